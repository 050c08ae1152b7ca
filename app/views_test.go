package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confusionflow/domain/cell"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
	"confusionflow/internal/render"
	"confusionflow/internal/viewstate"
	"confusionflow/ports"
)

type viewFixture struct {
	bus      *events.Bus
	state    *viewstate.State
	canvas   *recordCanvas
	loader   *fakeLoader
	matrix   *MatrixView
	detail   *DetailChart
	measures *MeasuresView
}

func newViewFixture(t *testing.T, runs ...run.LoadedRun) *viewFixture {
	t.Helper()
	bus := events.NewBus()
	state := viewstate.New(bus)
	canvas := newRecordCanvas()
	loader := &fakeLoader{runs: runs}

	f := &viewFixture{bus: bus, state: state, canvas: canvas, loader: loader}
	f.matrix = NewMatrixView(state, loader, canvas, 300, 3)
	f.detail = NewDetailChart(state, f.matrix, canvas, 400, 200, 3)
	f.measures = NewMeasuresView(state, canvas, 500, 300, 3)
	f.matrix.Attach()
	f.detail.Attach()
	f.measures.Attach()
	t.Cleanup(func() {
		f.matrix.Detach()
		f.detail.Detach()
		f.measures.Detach()
	})
	return f
}

func TestMatrixViewRefreshRendersEveryArea(t *testing.T) {
	f := newViewFixture(t, runA(t))
	renders := 0
	sub := f.bus.Subscribe(events.RenderConfMeasure, func(events.Event) { renders++ })
	defer sub.Unsubscribe()

	require.NoError(t, f.matrix.Refresh(context.Background()))

	assert.Equal(t, []int{0, 1, 2}, f.state.ClassIndices())
	assert.Equal(t, run.RenderCombined, f.state.RenderMode())
	assert.Len(t, f.canvas.in(ports.AreaMatrix), 9)
	assert.Len(t, f.canvas.in(ports.AreaFP), 3)
	assert.Len(t, f.canvas.in(ports.AreaFN), 3)
	assert.Len(t, f.canvas.in(ports.AreaAccuracy), 1)
	assert.Equal(t, 1, renders)

	w, h := f.state.CellSize()
	assert.Equal(t, 98.0, w)
	assert.Equal(t, 98.0, h)

	p := f.canvas.in(ports.AreaMatrix)[5].placement
	assert.Equal(t, 1, p.Row)
	assert.Equal(t, 2, p.Col)
	assert.Equal(t, "matrix-1-2", p.CellID)
	assert.Equal(t, 98.0, p.Width)

	fn := f.canvas.in(ports.AreaFN)[2].placement
	assert.Equal(t, 2, fn.Row)
	assert.Equal(t, 0, fn.Col)

	require.NotNil(t, f.state.SelectedCell())
	assert.Equal(t, "overallAccuracyScore--1--1", f.state.SelectedCell().ID.String())
	assert.NotNil(t, f.matrix.Bundle())
}

func TestMatrixViewRespectsClassSubset(t *testing.T) {
	f := newViewFixture(t, runA(t))
	f.state.SetClassIndices([]int{2, 0})

	require.NoError(t, f.matrix.Refresh(context.Background()))

	assert.Len(t, f.canvas.in(ports.AreaMatrix), 4)
	assert.Equal(t, []string{"c", "a"}, f.matrix.Bundle().Labels())
	w, _ := f.state.CellSize()
	assert.Equal(t, 148.0, w)
}

func TestMatrixViewRebindsSelectionOnRerender(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))

	require.NoError(t, f.matrix.Select("matrix-1-0"))
	before := f.state.SelectedCell()
	require.NotNil(t, before)

	f.state.SetCellRenderer(viewstate.CellRendererLine)

	after := f.state.SelectedCell()
	require.NotNil(t, after)
	assert.NotSame(t, before, after)
	assert.Equal(t, before.ID, after.ID)
	assert.Len(t, f.canvas.in(ports.AreaMatrix), 9)
}

func TestMatrixViewSelectUnknownCell(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))

	err := f.matrix.Select("matrix-9-9")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	err = f.matrix.Select("label-a")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestMatrixViewHoverHighlightsPanelMembers(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))

	f.matrix.Hover("matrix-1-0")
	assert.False(t, f.state.IsHighlighted(), "accuracy selection does not propagate")

	require.NoError(t, f.matrix.Select("cellFP-0--1"))
	f.matrix.Hover("matrix-1-0")
	assert.True(t, f.state.IsHighlighted())
	assert.True(t, f.state.CheckCellHighlight("b", "a"))

	f.matrix.Leave()
	assert.False(t, f.state.IsHighlighted())
}

func TestDetailChartHighlightsHoveredFPLine(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))
	require.NoError(t, f.matrix.Select("cellFP-0--1"))

	f.matrix.Hover("matrix-1-0")

	placed := f.canvas.in(ports.AreaDetail)
	require.Len(t, placed, 1)
	assert.Equal(t, []string{"#ff0000", "#d3d3d3"}, pathStrokes(placed[0].surface))
}

func TestMatrixViewClearsWithoutRuns(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))
	require.NotEmpty(t, f.canvas.in(ports.AreaMeasures))

	f.loader.runs = nil
	require.NoError(t, f.matrix.Refresh(context.Background()))

	for _, area := range ports.Areas {
		assert.Empty(t, f.canvas.in(area), string(area))
	}
	assert.Nil(t, f.state.SelectedCell())
	assert.Nil(t, f.matrix.Bundle())
	assert.Nil(t, f.measures.Table())
	assert.Nil(t, f.detail.Cell())
}

func TestMatrixViewLoadError(t *testing.T) {
	f := newViewFixture(t)
	f.loader.err = errors.ExternalServiceError("api", assert.AnError)

	err := f.matrix.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeExternalService))
}

func TestRedrawEventReloads(t *testing.T) {
	f := newViewFixture(t, runA(t))

	f.bus.Fire(events.Redraw, nil)

	assert.Len(t, f.canvas.in(ports.AreaMatrix), 9)
}

func TestDetachRemovesEveryListener(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))
	require.Positive(t, f.bus.Count(events.WeightFactorChanged))

	f.matrix.Detach()
	f.detail.Detach()
	f.measures.Detach()

	assert.Equal(t, 0, f.bus.Total())
}

func TestDetailChartFollowsSelection(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))

	assert.Equal(t, cell.TextOverallAccuracy, f.detail.Header())
	placed := f.canvas.in(ports.AreaDetail)
	require.Len(t, placed, 1)
	assert.Equal(t, cell.TextOverallAccuracy, placed[0].placement.Title)
	assert.Equal(t, 400.0, placed[0].placement.Width)

	require.NoError(t, f.matrix.Select("cellFP-0--1"))
	assert.Equal(t, "False Positive Rates for all classes predicted as a", f.detail.Header())
	require.NotNil(t, f.detail.Cell())
	assert.Equal(t, cell.KindDetailChart, f.detail.Cell().Kind)
	assert.Equal(t, "cellFP-0--1", f.detail.Cell().Child.ID.String())
	assert.Len(t, f.canvas.in(ports.AreaDetail), 1)

	f.state.SetAbsolute(true)
	assert.Equal(t, "# False Positives for all classes predicted as a", f.detail.Header())

	f.bus.Fire(events.ClearDetailChart, nil)
	assert.Empty(t, f.detail.Header())
	assert.Empty(t, f.canvas.in(ports.AreaDetail))
}

func TestDetailBlueprint(t *testing.T) {
	table, err := NewMeasuresTable(combinedBundle(t))
	require.NoError(t, err)

	size := detailBlueprint(table.Cell(0, ColumnClassSize))
	assert.Equal(t, []string{"bar-chart", "bar-axis"}, kindNames(size.Diagonal))
	assert.Empty(t, size.Functors)

	rate := detailBlueprint(table.Cell(0, ColumnF1))
	assert.Equal(t, []string{"line-chart", "axis", "vertical-line"}, kindNames(rate.Diagonal))
	assert.Empty(t, rate.Functors)

	fp := detailBlueprint(FPCells(combinedBundle(t))[0])
	assert.Len(t, fp.Functors, 2)
}

func TestDetailChartEmptyInSingleMode(t *testing.T) {
	f := newViewFixture(t, singleOnly(runA(t)))
	require.NoError(t, f.matrix.Refresh(context.Background()))

	assert.Equal(t, run.RenderSingle, f.state.RenderMode())
	require.NotNil(t, f.state.SelectedCell())
	assert.Empty(t, f.detail.Header())
	assert.Nil(t, f.detail.Cell())
	assert.Empty(t, f.canvas.in(ports.AreaDetail))
	assert.Nil(t, f.measures.Table())
	assert.Empty(t, f.canvas.in(ports.AreaMeasures))
}

func TestMeasuresViewRendersTable(t *testing.T) {
	f := newViewFixture(t, runA(t))
	require.NoError(t, f.matrix.Refresh(context.Background()))

	placed := f.canvas.in(ports.AreaMeasures)
	require.Len(t, placed, 15)
	assert.Equal(t, 62.5, placed[0].placement.Width)
	assert.Equal(t, 125.0, placed[1].placement.Width)
	assert.Equal(t, 100.0, placed[1].placement.Height)
	require.NotNil(t, f.measures.Table())

	assert.False(t, f.measures.Select(0, ColumnLabel))
	assert.False(t, f.measures.Select(7, ColumnRecall))
	require.True(t, f.measures.Select(0, ColumnPrecision))
	before := f.state.SelectedCell()
	assert.Equal(t, "cellPrecision-1-0", before.ID.String())
	assert.Equal(t, "Precision [%] for class a", f.detail.Header())

	f.state.SetTransposed(true)

	after := f.state.SelectedCell()
	require.NotNil(t, after)
	assert.NotSame(t, before, after)
	assert.Equal(t, before.ID, after.ID)
}

func kindNames(steps []render.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Kind.String()
	}
	return out
}
