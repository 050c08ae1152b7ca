package app

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
	"confusionflow/domain/run"
	"confusionflow/ports"
)

func mustMatrix(t *testing.T, vals [][]float64) *matrix.NumberMatrix {
	t.Helper()
	m, err := matrix.FromValues(vals)
	require.NoError(t, err)
	return m
}

// runA has two epochs and its single epoch is the second one
func runA(t *testing.T) run.LoadedRun {
	e0 := run.EpochRecord{Name: "epoch0", ID: 0, Matrix: mustMatrix(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}})}
	e1 := run.EpochRecord{Name: "epoch1", ID: 1, Matrix: mustMatrix(t, [][]float64{{6, 0, 0}, {1, 5, 0}, {0, 0, 3}})}
	return run.LoadedRun{
		Name:            "runA",
		Color:           "#ff0000",
		SingleEpoch:     &e1,
		MultiEpochRange: []run.EpochRecord{e0, e1},
		Labels:          []string{"a", "b", "c"},
		LabelIDs:        []int{0, 1, 2},
		ClassSizes:      []float64{6, 6, 3},
	}
}

func singleOnly(r run.LoadedRun) run.LoadedRun {
	r.MultiEpochRange = nil
	return r
}

func multiOnly(r run.LoadedRun) run.LoadedRun {
	r.SingleEpoch = nil
	return r
}

// recordSurface keeps the shapes drawn per layer
type recordSurface struct {
	mu     sync.Mutex
	shapes map[ports.Layer][]ports.Shape
}

func (s *recordSurface) Clear(layer ports.Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shapes, layer)
}

func (s *recordSurface) Draw(layer ports.Layer, shape ports.Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes[layer] = append(s.shapes[layer], shape)
}

func (s *recordSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, shapes := range s.shapes {
		n += len(shapes)
	}
	return n
}

type placed struct {
	placement ports.Placement
	surface   *recordSurface
}

// recordCanvas collects placements per area
type recordCanvas struct {
	mu    sync.Mutex
	areas map[ports.Area][]placed
}

func newRecordCanvas() *recordCanvas {
	return &recordCanvas{areas: map[ports.Area][]placed{}}
}

func (c *recordCanvas) Place(p ports.Placement) ports.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &recordSurface{shapes: map[ports.Layer][]ports.Shape{}}
	c.areas[p.Area] = append(c.areas[p.Area], placed{placement: p, surface: s})
	return s
}

func (c *recordCanvas) ClearArea(area ports.Area) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.areas, area)
}

func (c *recordCanvas) in(area ports.Area) []placed {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]placed{}, c.areas[area]...)
}

type fakeLoader struct {
	runs []run.LoadedRun
	err  error
}

func (l *fakeLoader) LoadRuns(context.Context) ([]run.LoadedRun, error) {
	return l.runs, l.err
}

// MockDatasetProvider is a testify mock of ports.DatasetProvider
type MockDatasetProvider struct {
	mock.Mock
}

func (m *MockDatasetProvider) ListDatasets(ctx context.Context) ([]run.Dataset, error) {
	args := m.Called(ctx)
	return args.Get(0).([]run.Dataset), args.Error(1)
}

func (m *MockDatasetProvider) LoadConfusionMatrix(ctx context.Context, name core.RunID, epochID int) (*matrix.NumberMatrix, error) {
	args := m.Called(ctx, name, epochID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matrix.NumberMatrix), args.Error(1)
}

func dataset(name core.RunID, epochs int) run.Dataset {
	infos := make([]run.EpochInfo, epochs)
	for i := range infos {
		infos[i] = run.EpochInfo{Name: "epoch" + strconv.Itoa(i), ID: i}
	}
	return run.Dataset{
		Name:       name,
		EpochInfos: run.FillMissingEpochs(infos),
		Labels:     []string{"a", "b", "c"},
		LabelIDs:   []int{0, 1, 2},
	}
}
