// Package content derives per-cell render payloads from the confusion
// matrices of the compared runs. Positions are processed in flattened
// row-major order: position p belongs to ground truth p/N and prediction p%N.
package content

import (
	"fmt"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"confusionflow/domain/cell"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
)

// IsDiagonal reports whether flattened position pos lies on the main diagonal
// of an order x order matrix
func IsDiagonal(pos, order int) bool {
	return pos%(order+1) == 0
}

// SingleEpochCalculator builds heat content from the single epoch of each run
type SingleEpochCalculator struct {
	RemoveMainDiagonal bool
}

// NewSingleEpochCalculator returns a calculator that suppresses the diagonal
func NewSingleEpochCalculator() SingleEpochCalculator {
	return SingleEpochCalculator{RemoveMainDiagonal: true}
}

// Calculate returns one heat content per matrix position. Runs without a
// single epoch are skipped.
func (c SingleEpochCalculator) Calculate(runs []run.LoadedRun) ([]*cell.HeatContent, error) {
	runs = lo.Filter(runs, func(r run.LoadedRun, _ int) bool { return r.HasSingleEpoch() })
	if len(runs) == 0 {
		return []*cell.HeatContent{}, nil
	}

	order := runs[0].SingleEpoch.Matrix.Order()
	flat := make([][]float64, len(runs))
	for i, r := range runs {
		if r.SingleEpoch.Matrix.Order() != order {
			return nil, orderMismatch(r.Name, r.SingleEpoch.Matrix.Order(), order)
		}
		flat[i] = r.SingleEpoch.Matrix.To1D()
	}

	// positions x runs
	byPosition := zip(flat)
	if c.RemoveMainDiagonal {
		for pos := range byPosition {
			if IsDiagonal(pos, order) {
				byPosition[pos] = make([]float64, len(runs))
			}
		}
	}
	maxVal := globalMax(lo.Flatten(byPosition))

	colors := lo.Map(runs, func(r run.LoadedRun, _ int) string { return r.Color })
	indices := lo.Map(runs, func(r run.LoadedRun, _ int) int { return r.IndexInRange() })

	return lo.Map(byPosition, func(counts []float64, pos int) *cell.HeatContent {
		if c.RemoveMainDiagonal && IsDiagonal(pos, order) {
			return cell.EmptyHeat()
		}
		return &cell.HeatContent{
			MaxVal:                maxVal,
			Counts:                counts,
			ClassLabels:           lo.Map(counts, func(v float64, _ int) string { return formatCount(v) }),
			IndexInMultiSelection: indices,
			ColorValues:           colors,
		}
	}), nil
}

// MultiEpochCalculator builds line content from the epoch range of each run
type MultiEpochCalculator struct {
	RemoveMainDiagonal bool
}

// NewMultiEpochCalculator returns a calculator that suppresses the diagonal
func NewMultiEpochCalculator() MultiEpochCalculator {
	return MultiEpochCalculator{RemoveMainDiagonal: true}
}

// Calculate returns, per matrix position, one line per run. Suppressed
// diagonal positions carry empty-valued lines that keep their labels; views
// use them to recover the ground truth class of a row. Runs without an epoch
// range are skipped.
func (c MultiEpochCalculator) Calculate(runs []run.LoadedRun) ([][]cell.Line, error) {
	runs = lo.Filter(runs, func(r run.LoadedRun, _ int) bool { return r.HasMultiEpochs() })
	if len(runs) == 0 {
		return [][]cell.Line{}, nil
	}

	order := runs[0].MultiEpochRange[0].Matrix.Order()
	// runs x positions x epochs
	series := make([][][]float64, len(runs))
	for i, r := range runs {
		flat := make([][]float64, 0, len(r.MultiEpochRange))
		for _, m := range r.MultiMatrices() {
			if m.Order() != order {
				return nil, orderMismatch(r.Name, m.Order(), order)
			}
			flat = append(flat, m.To1D())
		}
		series[i] = zip(flat)
	}

	// positions x runs x epochs
	byPosition := zip(series)
	if c.RemoveMainDiagonal {
		for pos := range byPosition {
			if IsDiagonal(pos, order) {
				byPosition[pos] = lo.Map(byPosition[pos], func(s []float64, _ int) []float64 {
					return make([]float64, len(s))
				})
			}
		}
	}
	maxVal := globalMax(lo.Flatten(lo.Flatten(byPosition)))

	labels := runs[0].Labels
	return lo.Map(byPosition, func(perRun [][]float64, pos int) []cell.Line {
		predicted := labelAt(labels, pos%order)
		groundTruth := labelAt(labels, pos/order)
		return lo.Map(perRun, func(values []float64, k int) cell.Line {
			line := cell.Line{
				PredictedLabel:   predicted,
				GroundTruthLabel: groundTruth,
				Color:            runs[k].Color,
			}
			if c.RemoveMainDiagonal && IsDiagonal(pos, order) {
				line.Values = []float64{}
				line.ValuesInPercent = []float64{}
				return line
			}
			classSize := classSizeAt(runs[k].ClassSizes, pos%order)
			line.Values = values
			line.ValuesInPercent = lo.Map(values, func(v float64, _ int) float64 {
				if classSize == 0 {
					return 0
				}
				return v / classSize
			})
			line.Max = maxVal
			return line
		})
	}), nil
}

// zip turns rows[i][j] into out[j][i]. The length of the first row decides
// the output length.
func zip[T any](rows [][]T) [][]T {
	if len(rows) == 0 {
		return [][]T{}
	}
	return lo.Times(len(rows[0]), func(c int) []T {
		return lo.Map(rows, func(row []T, _ int) T {
			var zero T
			if c < len(row) {
				return row[c]
			}
			return zero
		})
	})
}

// globalMax never drops below 0, so an all-empty input yields 0
func globalMax(values []float64) float64 {
	m, err := stats.Max(values)
	if err != nil || m < 0 {
		return 0
	}
	return m
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return strconv.Itoa(i)
}

func classSizeAt(sizes []float64, i int) float64 {
	if i < len(sizes) {
		return sizes[i]
	}
	return 0
}

func orderMismatch(name fmt.Stringer, got, want int) error {
	return errors.InvalidInput(fmt.Sprintf("run %s has a matrix of order %d, expected %d", name, got, want))
}

// Order reports the matrix order shared by the loaded runs, or 0 when none
// carries a matrix.
func Order(runs []run.LoadedRun) int {
	for _, r := range runs {
		if r.HasSingleEpoch() {
			return r.SingleEpoch.Matrix.Order()
		}
		if r.HasMultiEpochs() {
			return r.MultiEpochRange[0].Matrix.Order()
		}
	}
	return 0
}
