// Package foldlog parses ConfusionFlow performance logs. A log holds an index of
// runs, an index of datasets and one data document per fold log with the
// confusion matrix of every logged epoch. Each fold log of a run becomes one
// comparable dataset.
package foldlog

import (
	"fmt"
	"log"
	"strconv"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
)

// Index is the parsed listing of a log
type Index struct {
	Datasets []run.Dataset
	numClass map[core.RunID]int
}

// NumClass returns the class count of the named fold log
func (ix *Index) NumClass(name core.RunID) (int, bool) {
	if ix == nil {
		return 0, false
	}
	n, ok := ix.numClass[name]
	return n, ok
}

type datasetEntry struct {
	id      core.DatasetID
	classes []string
	folds   []string
}

// ParseIndex joins the run index with the dataset index. A run is matched to
// the dataset owning its training fold. Runs, fold logs and datasets that do
// not parse are skipped and logged.
func ParseIndex(runsJSON, datasetsJSON []byte) (*Index, error) {
	if !gjson.ValidBytes(runsJSON) {
		return nil, errors.MalformedUpstreamData("run index is not valid JSON")
	}
	if !gjson.ValidBytes(datasetsJSON) {
		return nil, errors.MalformedUpstreamData("dataset index is not valid JSON")
	}

	var datasets []datasetEntry
	gjson.ParseBytes(datasetsJSON).ForEach(func(_, d gjson.Result) bool {
		id := d.Get("datasetId").String()
		classes := lo.Map(d.Get("classes").Array(), func(c gjson.Result, _ int) string { return c.String() })
		numClass := int(d.Get("numclass").Int())
		if numClass == 0 {
			numClass = len(classes)
		}
		if id == "" || numClass <= 0 || len(classes) != numClass {
			log.Printf("[LogDir] Skipping dataset %q: %d labels for %d classes", id, len(classes), numClass)
			return true
		}
		datasets = append(datasets, datasetEntry{
			id:      core.DatasetID(id),
			classes: classes,
			folds:   lo.Map(d.Get("folds").Array(), func(f gjson.Result, _ int) string { return f.Get("foldId").String() }),
		})
		return true
	})

	ix := &Index{numClass: make(map[core.RunID]int)}
	gjson.ParseBytes(runsJSON).ForEach(func(_, r gjson.Result) bool {
		runID := r.Get("runId").String()
		trainFold := r.Get("trainfoldId").String()
		ds, ok := lo.Find(datasets, func(d datasetEntry) bool { return lo.Contains(d.folds, trainFold) })
		if runID == "" || !ok {
			log.Printf("[LogDir] Skipping run %q: no dataset for training fold %q", runID, trainFold)
			return true
		}

		r.Get("foldlogs").ForEach(func(_, fl gjson.Result) bool {
			id := fl.Get("foldlogId").String()
			numEpochs := fl.Get("numepochs")
			if id == "" || !numEpochs.Exists() || numEpochs.Int() < 0 {
				log.Printf("[LogDir] Skipping fold log %q of run %s", id, runID)
				return true
			}
			name := core.RunID(id)
			if _, dup := ix.numClass[name]; dup {
				log.Printf("[LogDir] Skipping duplicate fold log %s", id)
				return true
			}
			ix.numClass[name] = len(ds.classes)
			ix.Datasets = append(ix.Datasets, run.Dataset{
				Name:       name,
				DatasetID:  ds.id,
				EpochInfos: run.FillMissingEpochs(epochInfos(int(numEpochs.Int()))),
				Labels:     ds.classes,
				LabelIDs:   lo.Range(len(ds.classes)),
			})
			return true
		})
		return true
	})
	return ix, nil
}

func epochInfos(n int) []run.EpochInfo {
	return lo.Times(n, func(i int) run.EpochInfo {
		return run.EpochInfo{Name: strconv.Itoa(i), ID: i}
	})
}

// ParseEpoch extracts the confusion matrix of epochID from a fold log data
// document. Epochs are addressed by their position in the log; matrices are
// stored row-major as a flat array of numClass² counts.
func ParseEpoch(data []byte, epochID, numClass int) (*matrix.NumberMatrix, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.MalformedUpstreamData("fold log data is not valid JSON")
	}
	epochs := gjson.GetBytes(data, "epochdata").Array()
	if epochID < 0 || epochID >= len(epochs) {
		return nil, errors.NotFound(fmt.Sprintf("epoch %d", epochID))
	}
	entry := epochs[epochID]

	flat := entry.Get("confmat").Array()
	if numClass <= 0 || len(flat) != numClass*numClass {
		return nil, errors.MalformedUpstreamData(fmt.Sprintf("epoch %d has %d counts, expected %d", epochID, len(flat), numClass*numClass))
	}
	values := lo.Chunk(lo.Map(flat, func(v gjson.Result, _ int) float64 { return v.Float() }), numClass)
	return matrix.FromValues(values)
}
