package app

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"confusionflow/domain/core"
	"confusionflow/domain/measures"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/ports"
)

// MeasuresService computes confusion measures for whole runs, outside of any
// view. The CLI, the exports and the measures endpoint use it.
type MeasuresService struct {
	provider ports.DatasetProvider
}

// NewMeasuresService creates a measures service
func NewMeasuresService(provider ports.DatasetProvider) *MeasuresService {
	return &MeasuresService{provider: provider}
}

// Compute loads every logged epoch of the named run and measures it
func (s *MeasuresService) Compute(ctx context.Context, name core.RunID) (*measures.RunMeasures, error) {
	datasets, err := s.provider.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	ds, ok := lo.Find(datasets, func(d run.Dataset) bool { return d.Name == name })
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("run %s", name))
	}

	infos := lo.Compact(ds.EpochInfos)
	records := make([]run.EpochRecord, len(infos))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, info := range infos {
		g.Go(func() error {
			m, err := s.provider.LoadConfusionMatrix(ctx, name, info.ID)
			if err != nil {
				return errors.Wrapf(err, "failed to load epoch %s", info.Name)
			}
			records[i] = run.EpochRecord{Name: info.Name, ID: info.ID, Matrix: m}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return MeasureRun(run.LoadedRun{Name: ds.Name, Labels: ds.Labels, LabelIDs: ds.LabelIDs, MultiEpochRange: records})
}

// ComputeMany measures several runs, keeping the requested order
func (s *MeasuresService) ComputeMany(ctx context.Context, names []core.RunID) ([]measures.RunMeasures, error) {
	out := make([]measures.RunMeasures, 0, len(names))
	for _, name := range names {
		m, err := s.Compute(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// MeasureRuns measures already loaded runs, e.g. the current selection
func MeasureRuns(runs []run.LoadedRun) ([]measures.RunMeasures, error) {
	out := make([]measures.RunMeasures, 0, len(runs))
	for _, r := range runs {
		m, err := MeasureRun(r)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, nil
}

// MeasureRun measures the epoch range of r, or its single epoch when no range
// is loaded
func MeasureRun(r run.LoadedRun) (*measures.RunMeasures, error) {
	epochs := r.MultiEpochRange
	if len(epochs) == 0 && r.HasSingleEpoch() {
		epochs = []run.EpochRecord{*r.SingleEpoch}
	}

	res := &measures.RunMeasures{Run: r.Name, Color: r.Color, Labels: r.Labels}
	for _, e := range epochs {
		rows, err := measureEpoch(e, r.Labels)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to measure epoch %s of %s", e.Name, r.Name)
		}
		res.Classes = append(res.Classes, rows...)
		res.Epochs = append(res.Epochs, measures.EpochSummary{
			Epoch:           e.ID,
			OverallAccuracy: measures.SummedAccuracy(e.Matrix),
			MacroPrecision:  mean(lo.Map(rows, func(c measures.ClassMeasures, _ int) float64 { return c.Precision })),
			MacroRecall:     mean(lo.Map(rows, func(c measures.ClassMeasures, _ int) float64 { return c.Recall })),
			MacroF1:         mean(lo.Map(rows, func(c measures.ClassMeasures, _ int) float64 { return c.F1 })),
		})
	}
	return res, nil
}

func measureEpoch(e run.EpochRecord, labels []string) ([]measures.ClassMeasures, error) {
	fns := []measures.Func{
		measures.TP, measures.FP, measures.FN, measures.TN,
		measures.PPV, measures.TPR, measures.F1, measures.ACC, measures.ClassSize,
	}
	cols := make([][]float64, len(fns))
	for i, f := range fns {
		v, err := measures.CalcForMultipleClasses(e.Matrix, f)
		if err != nil {
			return nil, err
		}
		cols[i] = v
	}
	return lo.Times(e.Matrix.Order(), func(c int) measures.ClassMeasures {
		class := fmt.Sprint(c)
		if c < len(labels) {
			class = labels[c]
		}
		return measures.ClassMeasures{
			Epoch: e.ID, Class: class,
			TP: cols[0][c], FP: cols[1][c], FN: cols[2][c], TN: cols[3][c],
			Precision: cols[4][c], Recall: cols[5][c], F1: cols[6][c],
			Accuracy: cols[7][c], ClassSize: cols[8][c],
		}
	}), nil
}

func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}
