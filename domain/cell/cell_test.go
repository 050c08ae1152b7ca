package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightFactor(t *testing.T) {
	matrixCell := NewMatrixCell(Data{}, "dog", "cat", 1, 0)
	metrics := NewMetricsPanelCell(Data{}, PanelPrecision, 1, 0)
	panel := NewPanelCell(Data{}, PanelFP, 0, -1)

	assert.Equal(t, 0.4, matrixCell.WeightFactor(0.4))
	assert.Equal(t, 0.4, panel.WeightFactor(0.4))
	assert.Equal(t, 1.0, metrics.WeightFactor(0.4))
	assert.Equal(t, 1.0, NewDetailChartCell(metrics).WeightFactor(0.4))
	assert.Equal(t, 0.4, NewDetailChartCell(matrixCell).WeightFactor(0.4))
}

func TestIsRate(t *testing.T) {
	assert.True(t, NewMetricsPanelCell(Data{}, PanelF1, 3, 0).IsRate())
	assert.True(t, NewDetailChartCell(NewMetricsPanelCell(Data{}, PanelRecall, 2, 0)).IsRate())
	assert.False(t, NewDetailChartCell(NewPanelCell(Data{}, PanelFN, 0, -1)).IsRate())
	assert.False(t, NewMetricsPanelCell(Data{}, PanelClassSize, 4, 0).IsRate())
}

func TestDiagonalSentinel(t *testing.T) {
	assert.True(t, IsDiagonalSentinel(Line{}))
	assert.False(t, IsDiagonalSentinel(Line{Values: []float64{0}}))

	d := FromPosition(Position{Lines: []Line{{PredictedLabel: "cat"}}})
	assert.True(t, d.IsSingleEmptyLine())

	fn := NewPanelCell(Data{Lines: [][]Line{{
		{Values: []float64{1}, PredictedLabel: "cat", GroundTruthLabel: "dog"},
		{PredictedLabel: "dog", GroundTruthLabel: "dog"},
	}}}, PanelFN, 1, -1)
	label, ok := fn.RowLabel()
	assert.True(t, ok)
	assert.Equal(t, "dog", label)
	assert.Equal(t, "# False Negatives for all classes given dog", Header(fn, true))
}

func TestLargestLine(t *testing.T) {
	_, ok := LargestLine(nil)
	assert.False(t, ok)

	l, ok := LargestLine([]Line{
		{Values: []float64{1, 2}, Color: "a"},
		{Values: []float64{1, 2, 3}, Color: "b"},
		{Values: []float64{1, 2, 3}, Color: "c"},
	})
	assert.True(t, ok)
	assert.Equal(t, "c", l.Color)
}

func TestTriggersHighlight(t *testing.T) {
	fpPanel := NewPanelCell(Data{Lines: [][]Line{{{Values: []float64{2}, PredictedLabel: "dog"}}}}, PanelFP, 1, -1)
	fnPanel := NewPanelCell(Data{Lines: [][]Line{{{Values: []float64{2}, PredictedLabel: "dog", GroundTruthLabel: "cat"}}}}, PanelFN, 0, -1)

	inDogColumn := NewMatrixCell(Data{}, "dog", "bird", 1, 2)
	inCatRow := NewMatrixCell(Data{}, "bird", "cat", 2, 0)

	assert.True(t, inDogColumn.TriggersHighlight(fpPanel))
	assert.False(t, inCatRow.TriggersHighlight(fpPanel))
	assert.True(t, inCatRow.TriggersHighlight(fnPanel))
	assert.False(t, inCatRow.TriggersHighlight(nil))
	assert.False(t, inCatRow.TriggersHighlight(inDogColumn))
}

func TestYLabel(t *testing.T) {
	m := NewMatrixCell(Data{}, "dog", "cat", 1, 0)
	assert.Equal(t, "# of Confused Instances", YLabel(m, true))
	assert.Equal(t, "% of Confused Instances", YLabel(m, false))
	assert.Equal(t, "False Positive Rate", YLabel(NewPanelCell(Data{}, PanelFP, 0, -1), false))
	assert.Equal(t, "Class Size", YLabel(NewMetricsPanelCell(Data{}, PanelClassSize, 4, 1), true))
	assert.Equal(t, "", YLabel(nil, true))
}
