// Package testkit generates synthetic ConfusionFlow log directories for
// development and tests
package testkit

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
)

// LogGeneratorConfig controls the size and shape of a synthetic log
type LogGeneratorConfig struct {
	Dataset         string
	Classes         []string
	Runs            int
	Epochs          int
	SamplesPerClass int
	Seed            int64
	// accuracy of the first and last epoch, interpolated in between
	StartAccuracy float64
	EndAccuracy   float64
}

// DefaultLogConfig returns a small three class log with two runs
func DefaultLogConfig() LogGeneratorConfig {
	return LogGeneratorConfig{
		Dataset:         "synthetic",
		Classes:         []string{"cat", "dog", "bird"},
		Runs:            2,
		Epochs:          10,
		SamplesPerClass: 100,
		Seed:            42,
		StartAccuracy:   0.4,
		EndAccuracy:     0.9,
	}
}

type foldLogEntry struct {
	FoldLogID string `json:"foldlogId"`
	NumEpochs int    `json:"numepochs"`
}

type runEntry struct {
	RunID       string         `json:"runId"`
	TrainFoldID string         `json:"trainfoldId"`
	FoldLogs    []foldLogEntry `json:"foldlogs"`
}

type foldEntry struct {
	FoldID string `json:"foldId"`
}

type datasetEntry struct {
	DatasetID string      `json:"datasetId"`
	NumClass  int         `json:"numclass"`
	Classes   []string    `json:"classes"`
	Folds     []foldEntry `json:"folds"`
}

type epochEntry struct {
	EpochID int   `json:"epochId"`
	ConfMat []int `json:"confmat"`
}

type foldLogData struct {
	FoldLogID string       `json:"foldlogId"`
	NumEpochs int          `json:"numepochs"`
	EpochData []epochEntry `json:"epochdata"`
}

// LogGenerator writes runs whose accuracy improves steadily over the epochs
type LogGenerator struct {
	config LogGeneratorConfig
	rng    *rand.Rand
}

// NewLogGenerator creates a generator
func NewLogGenerator(config LogGeneratorConfig) *LogGenerator {
	return &LogGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// FoldLogIDs returns the ids of every fold log the generator writes, train
// before test for each run
func (g *LogGenerator) FoldLogIDs() []string {
	var ids []string
	for r := range g.config.Runs {
		for _, fold := range g.folds() {
			ids = append(ids, fmt.Sprintf("%s_%s", g.runID(r), fold))
		}
	}
	return ids
}

func (g *LogGenerator) runID(r int) string {
	return fmt.Sprintf("run%d", r+1)
}

func (g *LogGenerator) folds() []string {
	return []string{g.config.Dataset + "_train", g.config.Dataset + "_test"}
}

// WriteLogDir writes runs/index.json, datasets/index.json and one data file
// per fold log below dir
func (g *LogGenerator) WriteLogDir(dir string) error {
	if len(g.config.Classes) < 2 || g.config.Epochs < 1 || g.config.Runs < 1 {
		return fmt.Errorf("a log needs at least two classes, one epoch and one run")
	}

	folds := g.folds()
	dataset := datasetEntry{
		DatasetID: g.config.Dataset,
		NumClass:  len(g.config.Classes),
		Classes:   g.config.Classes,
		Folds:     []foldEntry{{FoldID: folds[0]}, {FoldID: folds[1]}},
	}
	if err := writeJSON(filepath.Join(dir, "datasets", "index.json"), []datasetEntry{dataset}); err != nil {
		return err
	}

	runs := make([]runEntry, 0, g.config.Runs)
	for r := range g.config.Runs {
		entry := runEntry{RunID: g.runID(r), TrainFoldID: folds[0]}
		for _, fold := range folds {
			id := fmt.Sprintf("%s_%s", entry.RunID, fold)
			entry.FoldLogs = append(entry.FoldLogs, foldLogEntry{FoldLogID: id, NumEpochs: g.config.Epochs})
			if err := writeJSON(filepath.Join(dir, "foldlogdata", id+"_data.json"), g.foldLogData(id)); err != nil {
				return err
			}
		}
		runs = append(runs, entry)
	}
	if err := writeJSON(filepath.Join(dir, "runs", "index.json"), runs); err != nil {
		return err
	}

	log.Printf("[Testkit] Wrote %d runs with %d epochs to %s", g.config.Runs, g.config.Epochs, dir)
	return nil
}

func (g *LogGenerator) foldLogData(id string) foldLogData {
	data := foldLogData{FoldLogID: id, NumEpochs: g.config.Epochs}
	for e := range g.config.Epochs {
		data.EpochData = append(data.EpochData, epochEntry{EpochID: e, ConfMat: g.confMat(g.accuracyAt(e))})
	}
	return data
}

func (g *LogGenerator) accuracyAt(epoch int) float64 {
	if g.config.Epochs == 1 {
		return g.config.EndAccuracy
	}
	t := float64(epoch) / float64(g.config.Epochs-1)
	return g.config.StartAccuracy + t*(g.config.EndAccuracy-g.config.StartAccuracy)
}

// confMat returns a flattened n x n matrix with SamplesPerClass samples per
// ground truth row
func (g *LogGenerator) confMat(accuracy float64) []int {
	n := len(g.config.Classes)
	m := make([]int, n*n)
	for gt := range n {
		for range g.config.SamplesPerClass {
			pred := gt
			if g.rng.Float64() >= accuracy {
				pred = (gt + 1 + g.rng.Intn(n-1)) % n
			}
			m[gt*n+pred]++
		}
	}
	return m
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}
