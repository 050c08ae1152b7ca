// Package measures implements confusion measures for one or several epochs.
// Definitions follow https://en.wikipedia.org/wiki/Confusion_matrix; degenerate
// denominators evaluate to 0 so downstream charts stay renderable.
package measures

import (
	"confusionflow/domain/matrix"
	"confusionflow/internal/errors"
)

// Func computes a measure for one class of a confusion matrix
type Func func(m *matrix.NumberMatrix, index int) (float64, error)

func checkIndex(m *matrix.NumberMatrix, index int) error {
	if index < 0 || index >= m.Order() {
		return errors.InvalidIndex(index, m.Order())
	}
	return nil
}

// TP returns the true positives of class index
func TP(m *matrix.NumberMatrix, index int) (float64, error) {
	if err := checkIndex(m, index); err != nil {
		return 0, err
	}
	return m.At(index, index), nil
}

// FP returns the row sum of class index minus its true positives
func FP(m *matrix.NumberMatrix, index int) (float64, error) {
	if err := checkIndex(m, index); err != nil {
		return 0, err
	}
	return matrix.RowSum(m, index) - m.At(index, index), nil
}

// FN returns the column sum of class index minus its true positives
func FN(m *matrix.NumberMatrix, index int) (float64, error) {
	if err := checkIndex(m, index); err != nil {
		return 0, err
	}
	t := m.Transpose()
	return matrix.RowSum(t, index) - t.At(index, index), nil
}

// TN returns everything that is neither TP, FP nor FN for class index
func TN(m *matrix.NumberMatrix, index int) (float64, error) {
	c, err := counts(m, index)
	if err != nil {
		return 0, err
	}
	return c.tn, nil
}

// ClassSize returns TP + FP
func ClassSize(m *matrix.NumberMatrix, index int) (float64, error) {
	c, err := counts(m, index)
	if err != nil {
		return 0, err
	}
	return c.tp + c.fp, nil
}

// TPR is the recall of class index
func TPR(m *matrix.NumberMatrix, index int) (float64, error) {
	c, err := counts(m, index)
	if err != nil {
		return 0, err
	}
	return ratio(c.tp, c.tp+c.fn), nil
}

// ACC is the accuracy of class index
func ACC(m *matrix.NumberMatrix, index int) (float64, error) {
	c, err := counts(m, index)
	if err != nil {
		return 0, err
	}
	return ratio(c.tp+c.tn, c.tp+c.tn+c.fp+c.fn), nil
}

// PPV is the precision of class index
func PPV(m *matrix.NumberMatrix, index int) (float64, error) {
	c, err := counts(m, index)
	if err != nil {
		return 0, err
	}
	return ratio(c.tp, c.tp+c.fp), nil
}

// F1 is the harmonic mean of PPV and TPR
func F1(m *matrix.NumberMatrix, index int) (float64, error) {
	c, err := counts(m, index)
	if err != nil {
		return 0, err
	}
	ppv := ratio(c.tp, c.tp+c.fp)
	tpr := ratio(c.tp, c.tp+c.fn)
	return 2 * ratio(ppv*tpr, ppv+tpr), nil
}

type classCounts struct {
	tp, fp, fn, tn float64
}

func counts(m *matrix.NumberMatrix, index int) (classCounts, error) {
	tp, err := TP(m, index)
	if err != nil {
		return classCounts{}, err
	}
	fp, _ := FP(m, index)
	fn, _ := FN(m, index)
	return classCounts{tp: tp, fp: fp, fn: fn, tn: matrix.Sum(m) - tp - fp - fn}, nil
}

func ratio(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}

// CalcForMultipleClasses applies f to every class 0..order-1
func CalcForMultipleClasses(m *matrix.NumberMatrix, f Func) ([]float64, error) {
	result := make([]float64, m.Order())
	for i := range result {
		v, err := f(m, i)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// CalcEvolution computes, per class, the series of f over the given matrices.
// The result is an order x 1 matrix whose cell i holds the time series of class i.
func CalcEvolution(matrices []*matrix.NumberMatrix, f Func) (*matrix.Matrix[[]float64], error) {
	if len(matrices) == 0 {
		return matrix.New[[]float64](0, 0), nil
	}
	order := matrices[0].Order()
	series := make([][]float64, order)
	for i := range series {
		series[i] = make([]float64, 0, len(matrices))
	}

	for _, m := range matrices {
		if m.Order() != order {
			return nil, errors.InvalidInput("matrices of an evolution must share the same order")
		}
		res, err := CalcForMultipleClasses(m, f)
		if err != nil {
			return nil, err
		}
		for i, v := range res {
			series[i] = append(series[i], v)
		}
	}

	rows := make([][][]float64, order)
	for i := range rows {
		rows[i] = [][]float64{series[i]}
	}
	evolution := matrix.New[[]float64](order, 1)
	if err := evolution.Init(rows); err != nil {
		return nil, err
	}
	return evolution, nil
}

// CalcOverallAccuracy returns the micro-averaged accuracy of each matrix:
// sum of TP over sum of class sizes.
func CalcOverallAccuracy(matrices []*matrix.NumberMatrix) []float64 {
	res := make([]float64, len(matrices))
	for i, m := range matrices {
		res[i] = SummedAccuracy(m)
	}
	return res
}

// SummedAccuracy is the micro-averaged accuracy of a single matrix
func SummedAccuracy(m *matrix.NumberMatrix) float64 {
	var tpSum, classSizeSum float64
	for i := 0; i < m.Order(); i++ {
		c, _ := counts(m, i)
		tpSum += c.tp
		classSizeSum += c.tp + c.fp
	}
	return ratio(tpSum, classSizeSum)
}
