package app

import (
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"confusionflow/domain/cell"
	"confusionflow/domain/matrix"
	"confusionflow/domain/measures"
	"confusionflow/domain/run"
	"confusionflow/internal/content"
	"confusionflow/internal/render"
)

// MatrixCells builds the N x N cells of the confusion matrix in row-major
// order. Diagonal positions become label cells.
func MatrixCells(b *RenderConfigBundle) []*cell.Cell {
	n := b.Order()
	labels := b.Labels()
	return lo.Times(n*n, func(pos int) *cell.Cell {
		groundTruth, predicted := pos/n, pos%n
		if content.IsDiagonal(pos, n) {
			return cell.NewLabelCell(labelOf(labels, groundTruth))
		}
		return cell.NewMatrixCell(b.PositionData(pos), labelOf(labels, predicted), labelOf(labels, groundTruth), predicted, groundTruth)
	})
}

// FPCells builds the false positive column. Cell i holds, per run, every line
// of predicted class i including the diagonal sentinel.
func FPCells(b *RenderConfigBundle) []*cell.Cell {
	n := b.Order()
	return lo.Times(n, func(i int) *cell.Cell {
		positions := lo.Filter(lo.Range(n*n), func(pos, _ int) bool { return pos%n == i })
		data := cell.Data{Heat: b.panelHeat(positions)}
		if b.Lines != nil {
			data.Lines = collectLines(b.Lines, positions)
		}
		return cell.NewPanelCell(data, cell.PanelFP, i, -1)
	})
}

// FNCells builds the false negative column. Cell i holds, per run, every line
// of ground truth class i including the diagonal sentinel.
func FNCells(b *RenderConfigBundle) []*cell.Cell {
	n := b.Order()
	return lo.Times(n, func(i int) *cell.Cell {
		positions := lo.RangeFrom(i*n, n)
		data := cell.Data{Heat: b.panelHeat(positions)}
		if b.Lines != nil {
			data.Lines = collectLines(b.Lines, positions)
		}
		return cell.NewPanelCell(data, cell.PanelFN, i, -1)
	})
}

// panelHeat returns summed counts in single mode and the single epoch
// index otherwise
func (b *RenderConfigBundle) panelHeat(positions []int) *cell.HeatContent {
	if b.Lines != nil {
		return &cell.HeatContent{IndexInMultiSelection: b.SingleEpochIndex}
	}
	var counts []float64
	var colors []string
	for _, pos := range positions {
		if pos >= len(b.Heat) || b.Heat[pos].IsEmpty() {
			continue
		}
		h := b.Heat[pos]
		if counts == nil {
			counts = make([]float64, len(h.Counts))
			colors = h.ColorValues
		}
		for k, v := range h.Counts {
			counts[k] += v
		}
	}
	if counts == nil {
		return cell.EmptyHeat()
	}
	return &cell.HeatContent{
		MaxVal:                seriesMax(counts),
		Counts:                counts,
		ClassLabels:           lo.Map(counts, func(v float64, _ int) string { return strconv.FormatFloat(v, 'f', -1, 64) }),
		IndexInMultiSelection: []int{},
		ColorValues:           colors,
	}
}

// collectLines regroups the lines of positions by run
func collectLines(lines [][]cell.Line, positions []int) [][]cell.Line {
	if len(positions) == 0 || positions[0] >= len(lines) {
		return nil
	}
	return lo.Times(len(lines[positions[0]]), func(k int) []cell.Line {
		return lo.FilterMap(positions, func(pos, _ int) (cell.Line, bool) {
			if pos >= len(lines) || k >= len(lines[pos]) {
				return cell.Line{}, false
			}
			return lines[pos][k], true
		})
	})
}

// OverallAccuracyCell builds the accuracy cell: one line per run
func OverallAccuracyCell(b *RenderConfigBundle) *cell.Cell {
	top := seriesMax(lo.Flatten(b.OverallAccuracy))
	colors := b.Colors()
	data := cell.Data{
		Heat: &cell.HeatContent{IndexInMultiSelection: b.SingleEpochIndex},
		Lines: lo.Map(b.OverallAccuracy, func(acc []float64, k int) []cell.Line {
			return []cell.Line{{
				Values:          acc,
				ValuesInPercent: acc,
				Max:             top,
				Color:           labelOf(colors, k),
			}}
		}),
	}
	return cell.NewPanelCell(data, cell.PanelOverallAccuracy, -1, -1)
}

// Measures table columns
const (
	ColumnLabel = iota
	ColumnPrecision
	ColumnRecall
	ColumnF1
	ColumnClassSize
)

// MeasuresTable is the per class metrics table next to the matrix. Rows are
// classes; Blueprints align with the columns.
type MeasuresTable struct {
	Header     []string
	Widths     []float64
	Rows       [][]*cell.Cell
	Blueprints []render.Blueprint
}

// NewMeasuresTable builds precision, recall and F1 series plus class size
// bars for every class. Single mode uses the single epoch as a one point series.
func NewMeasuresTable(b *RenderConfigBundle) (*MeasuresTable, error) {
	labels := b.Labels()
	colors := b.Colors()

	column := func(f measures.Func, panel cell.PanelType, col int) ([]*cell.Cell, error) {
		series, err := b.evolutions(f)
		if err != nil {
			return nil, err
		}
		top := seriesMax(lo.Flatten(lo.Flatten(series)))
		return lo.Times(len(labels), func(i int) *cell.Cell {
			data := cell.Data{
				Heat: &cell.HeatContent{IndexInMultiSelection: b.SingleEpochIndex},
				Lines: lo.Map(series, func(perClass [][]float64, k int) []cell.Line {
					values := []float64{}
					if i < len(perClass) {
						values = perClass[i]
					}
					return []cell.Line{{
						Values:          values,
						ValuesInPercent: values,
						Max:             top,
						PredictedLabel:  labels[i],
						Color:           labelOf(colors, k),
					}}
				}),
			}
			return cell.NewMetricsPanelCell(data, panel, col, i)
		}), nil
	}

	precision, err := column(measures.PPV, cell.PanelPrecision, ColumnPrecision)
	if err != nil {
		return nil, err
	}
	recall, err := column(measures.TPR, cell.PanelRecall, ColumnRecall)
	if err != nil {
		return nil, err
	}
	f1, err := column(measures.F1, cell.PanelF1, ColumnF1)
	if err != nil {
		return nil, err
	}

	t := &MeasuresTable{
		Header: []string{cell.TextClassLabels, cell.TextPrecision, cell.TextRecall, cell.TextF1Score, cell.TextClassSize},
		Widths: []float64{0.125, 0.25, 0.25, 0.25, 0.125},
		Blueprints: []render.Blueprint{
			b.Blueprints.Label,
			b.Blueprints.OverallAccuracy,
			b.Blueprints.OverallAccuracy,
			b.Blueprints.OverallAccuracy,
			b.Blueprints.ClassSize,
		},
	}
	for i, label := range labels {
		counts := lo.Map(b.Runs, func(r run.LoadedRun, _ int) float64 { return classSizeOf(r.ClassSizes, i) })
		size := cell.NewMetricsPanelCell(cell.Data{Heat: &cell.HeatContent{
			MaxVal:      seriesMax(counts),
			Counts:      counts,
			ColorValues: colors,
		}}, cell.PanelClassSize, ColumnClassSize, i)
		t.Rows = append(t.Rows, []*cell.Cell{cell.NewLabelCell(label), precision[i], recall[i], f1[i], size})
	}
	return t, nil
}

// evolutions returns, per run, the per class series of f over the shown epochs
func (b *RenderConfigBundle) evolutions(f measures.Func) ([][][]float64, error) {
	out := make([][][]float64, len(b.Runs))
	for k, r := range b.Runs {
		var matrices []*matrix.NumberMatrix
		if b.Mode == run.RenderSingle {
			if r.HasSingleEpoch() {
				matrices = []*matrix.NumberMatrix{r.SingleEpoch.Matrix}
			}
		} else {
			matrices = r.MultiMatrices()
		}
		evolution, err := measures.CalcEvolution(matrices, f)
		if err != nil {
			return nil, err
		}
		out[k] = lo.Times(evolution.Rows(), func(i int) []float64 { return evolution.At(i, 0) })
	}
	return out, nil
}

// Cell returns the cell at row, col or nil when out of range
func (t *MeasuresTable) Cell(row, col int) *cell.Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

func seriesMax(values []float64) float64 {
	m, err := stats.Max(values)
	if err != nil {
		return 0
	}
	return m
}

func labelOf(labels []string, i int) string {
	if i >= 0 && i < len(labels) {
		return labels[i]
	}
	return ""
}

func classSizeOf(sizes []float64, i int) float64 {
	if i < len(sizes) {
		return sizes[i]
	}
	return 0
}
