package app

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
	"confusionflow/ports"
)

// MatrixDataLoader fetches the confusion matrices of every selected run. Runs
// load concurrently; fetches are bounded so a wide timeline does not flood the
// provider.
type MatrixDataLoader struct {
	provider  ports.DatasetProvider
	selection *Selection
	bus       *events.Bus
	fetches   *semaphore.Weighted
}

// NewMatrixDataLoader creates a loader allowing maxFetches concurrent matrix
// requests
func NewMatrixDataLoader(provider ports.DatasetProvider, selection *Selection, bus *events.Bus, maxFetches int64) *MatrixDataLoader {
	return &MatrixDataLoader{
		provider:  provider,
		selection: selection,
		bus:       bus,
		fetches:   semaphore.NewWeighted(max(maxFetches, 1)),
	}
}

var _ ports.RunLoader = (*MatrixDataLoader)(nil)

// LoadRuns returns one loaded run per selected slot, ordered by slot
func (l *MatrixDataLoader) LoadRuns(ctx context.Context) ([]run.LoadedRun, error) {
	selected := l.selection.Runs()
	loaded := make([]run.LoadedRun, len(selected))

	g, ctx := errgroup.WithContext(ctx)
	for i, sr := range selected {
		g.Go(func() error {
			l.selection.setLoading(sr.Dataset.Name, true)
			defer l.selection.setLoading(sr.Dataset.Name, false)

			r, err := l.loadRun(ctx, sr)
			if err != nil {
				return errors.Wrapf(err, "failed to load run %s", sr.Dataset.Name)
			}
			loaded[i] = r
			l.bus.Fire(events.LoadingComplete, sr.Dataset.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

func (l *MatrixDataLoader) loadRun(ctx context.Context, sr SelectedRun) (run.LoadedRun, error) {
	multi, err := l.loadEpochs(ctx, sr, sr.MultiSelected)
	if err != nil {
		return run.LoadedRun{}, err
	}
	r := run.LoadedRun{
		Name:            sr.Dataset.Name,
		Color:           sr.Color,
		MultiEpochRange: multi,
		Labels:          sr.Dataset.Labels,
		LabelIDs:        sr.Dataset.LabelIDs,
	}
	if sr.SingleSelected != nil {
		single, err := l.loadEpochs(ctx, sr, []*run.EpochInfo{sr.SingleSelected})
		if err != nil {
			return run.LoadedRun{}, err
		}
		if len(single) == 1 {
			r.SingleEpoch = &single[0]
		}
	}

	r.ClassSizes, err = run.CalcClassSizes(r.MultiEpochRange, r.SingleEpoch)
	if err != nil {
		return run.LoadedRun{}, err
	}
	return r, nil
}

// loadEpochs fetches the matrices of infos in order. Gaps in the timeline are
// dropped; malformed epochs are logged and skipped.
func (l *MatrixDataLoader) loadEpochs(ctx context.Context, sr SelectedRun, infos []*run.EpochInfo) ([]run.EpochRecord, error) {
	infos = lo.Compact(infos)
	records := make([]*run.EpochRecord, len(infos))

	g, ctx := errgroup.WithContext(ctx)
	for i, info := range infos {
		g.Go(func() error {
			if err := l.fetches.Acquire(ctx, 1); err != nil {
				return err
			}
			defer l.fetches.Release(1)

			m, err := l.provider.LoadConfusionMatrix(ctx, sr.Dataset.Name, info.ID)
			if errors.IsCode(err, errors.CodeMalformedUpstreamData) {
				log.Printf("[Loader] Skipping epoch %s of %s: %v", info.Name, sr.Dataset.Name, err)
				return nil
			}
			if err != nil {
				return err
			}
			records[i] = &run.EpochRecord{Name: info.Name, ID: info.ID, Matrix: m}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]run.EpochRecord, 0, len(records))
	for _, rec := range lo.Compact(records) {
		if len(out) > 0 && rec.Matrix.Order() != out[0].Matrix.Order() {
			return nil, errors.MalformedUpstreamData(fmt.Sprintf("epoch %s has order %d, expected %d", rec.Name, rec.Matrix.Order(), out[0].Matrix.Order()))
		}
		out = append(out, *rec)
	}
	return out, nil
}
