package app

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"confusionflow/domain/core"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
)

func TestMatrixDataLoaderLoadsSelectedEpochs(t *testing.T) {
	e0 := mustMatrix(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}})
	e1 := mustMatrix(t, [][]float64{{6, 0, 0}, {1, 5, 0}, {0, 0, 3}})

	provider := new(MockDatasetProvider)
	provider.On("LoadConfusionMatrix", mock.Anything, core.RunID("r1"), 0).Return(e0, nil)
	provider.On("LoadConfusionMatrix", mock.Anything, core.RunID("r1"), 1).Return(e1, nil)
	provider.On("LoadConfusionMatrix", mock.Anything, core.RunID("r2"), 0).
		Return(nil, errors.MalformedUpstreamData("confmat has 4 values, expected 9"))
	provider.On("LoadConfusionMatrix", mock.Anything, core.RunID("r2"), 1).Return(e1, nil)

	bus := events.NewBus()
	var completed atomic.Int32
	bus.Subscribe(events.LoadingComplete, func(events.Event) { completed.Add(1) })

	sel := NewSelection(bus, 3)
	require.NoError(t, sel.Add(dataset("r1", 2)))
	require.NoError(t, sel.Add(dataset("r2", 2)))
	require.NoError(t, sel.SetTimeline(Timeline{Min: 0, Max: 1, Single: 1}))

	loader := NewMatrixDataLoader(provider, sel, bus, 2)
	runs, err := loader.LoadRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int32(2), completed.Load())

	r1 := runs[0]
	assert.Equal(t, core.RunID("r1"), r1.Name)
	assert.Equal(t, "#1f77b4", r1.Color)
	require.Len(t, r1.MultiEpochRange, 2)
	assert.Equal(t, "epoch0", r1.MultiEpochRange[0].Name)
	require.True(t, r1.HasSingleEpoch())
	assert.Equal(t, 1, r1.SingleEpoch.ID)
	assert.Equal(t, []float64{6, 6, 3}, r1.ClassSizes)
	assert.Equal(t, []string{"a", "b", "c"}, r1.Labels)

	r2 := runs[1]
	require.Len(t, r2.MultiEpochRange, 1, "malformed epochs are skipped")
	assert.Equal(t, 1, r2.MultiEpochRange[0].ID)
	assert.Equal(t, []float64{6, 6, 3}, r2.ClassSizes)

	for _, r := range sel.Runs() {
		assert.False(t, r.Loading)
	}
	provider.AssertExpectations(t)
}

func TestMatrixDataLoaderPropagatesProviderErrors(t *testing.T) {
	provider := new(MockDatasetProvider)
	provider.On("LoadConfusionMatrix", mock.Anything, core.RunID("r1"), mock.Anything).
		Return(nil, errors.ExternalServiceError("api", assert.AnError))

	bus := events.NewBus()
	sel := NewSelection(bus, 1)
	require.NoError(t, sel.Add(dataset("r1", 2)))
	require.NoError(t, sel.SetTimeline(Timeline{Min: 0, Max: 1, Single: -1}))

	runs, err := NewMatrixDataLoader(provider, sel, bus, 4).LoadRuns(context.Background())
	require.Error(t, err)
	assert.Nil(t, runs)
	assert.True(t, errors.IsCode(err, errors.CodeExternalService))
}

func TestMatrixDataLoaderWithoutTimeline(t *testing.T) {
	provider := new(MockDatasetProvider)
	bus := events.NewBus()
	sel := NewSelection(bus, 1)
	require.NoError(t, sel.Add(dataset("r1", 2)))

	runs, err := NewMatrixDataLoader(provider, sel, bus, 4).LoadRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].HasSingleEpoch())
	assert.False(t, runs[0].HasMultiEpochs())
	assert.Nil(t, runs[0].ClassSizes)
	provider.AssertNotCalled(t, "LoadConfusionMatrix", mock.Anything, mock.Anything, mock.Anything)
}
