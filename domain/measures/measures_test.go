package measures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confusionflow/domain/matrix"
	"confusionflow/internal/errors"
)

func confmat(t *testing.T, vals [][]float64) *matrix.NumberMatrix {
	t.Helper()
	m, err := matrix.FromValues(vals)
	require.NoError(t, err)
	return m
}

func TestBasicCounts(t *testing.T) {
	m := confmat(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}})

	tests := []struct {
		name  string
		f     Func
		class int
		want  float64
	}{
		{"TP class 0", TP, 0, 5},
		{"FP class 0", FP, 0, 1},
		{"FN class 0", FN, 0, 2},
		{"TN class 0", TN, 0, 7},
		{"class size 0", ClassSize, 0, 6},
		{"TP class 2", TP, 2, 3},
		{"FP class 2", FP, 2, 0},
		{"FN class 2", FN, 2, 0},
		{"TN class 2", TN, 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.f(m, tt.class)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountsPartitionTheMatrix(t *testing.T) {
	tests := []struct {
		name string
		vals [][]float64
	}{
		{"single class", [][]float64{{4}}},
		{"all zero", [][]float64{{0, 0}, {0, 0}}},
		{"mixed", [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}}},
		{"empty row", [][]float64{{3, 1, 2}, {0, 0, 0}, {1, 4, 6}}},
		{"empty column", [][]float64{{3, 0, 2}, {5, 0, 1}, {1, 0, 6}}},
		{"empty diagonal", [][]float64{{0, 2, 1}, {3, 0, 4}, {5, 6, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := confmat(t, tt.vals)
			for i := range m.Order() {
				tp, err := TP(m, i)
				require.NoError(t, err)
				fp, err := FP(m, i)
				require.NoError(t, err)
				fn, err := FN(m, i)
				require.NoError(t, err)
				tn, err := TN(m, i)
				require.NoError(t, err)

				column := 0.0
				for r := range m.Order() {
					column += m.At(r, i)
				}
				assert.Equal(t, matrix.RowSum(m, i), tp+fp, "row sum of class %d", i)
				assert.Equal(t, column, tp+fn, "column sum of class %d", i)
				assert.Equal(t, matrix.Sum(m), tp+fp+fn+tn, "total of class %d", i)
				assert.GreaterOrEqual(t, tn, 0.0)
			}
		})
	}
}

func TestRates(t *testing.T) {
	m := confmat(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}})

	tpr, err := TPR(m, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0/7.0, tpr, 1e-9)

	ppv, err := PPV(m, 0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0/6.0, ppv, 1e-9)

	acc, err := ACC(m, 0)
	require.NoError(t, err)
	assert.InDelta(t, 12.0/15.0, acc, 1e-9)

	f1, err := F1(m, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2*ppv*tpr/(ppv+tpr), f1, 1e-9)
}

func TestZeroDenominators(t *testing.T) {
	m := confmat(t, [][]float64{{0, 0}, {0, 0}})

	for name, f := range map[string]Func{"TPR": TPR, "PPV": PPV, "ACC": ACC, "F1": F1} {
		got, err := f(m, 1)
		require.NoError(t, err, name)
		assert.Equal(t, 0.0, got, name)
	}
	assert.Equal(t, []float64{0}, CalcOverallAccuracy([]*matrix.NumberMatrix{m}))
}

func TestInvalidIndex(t *testing.T) {
	m := confmat(t, [][]float64{{1, 0}, {0, 1}})

	for name, f := range map[string]Func{
		"TP": TP, "FP": FP, "FN": FN, "TN": TN, "ClassSize": ClassSize,
		"TPR": TPR, "ACC": ACC, "PPV": PPV, "F1": F1,
	} {
		_, err := f(m, 2)
		require.Error(t, err, name)
		assert.Equal(t, errors.CodeInvalidIndex, errors.GetCode(err), name)
	}
}

func TestCalcForMultipleClasses(t *testing.T) {
	m := confmat(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}})

	sizes, err := CalcForMultipleClasses(m, ClassSize)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 6, 3}, sizes)
}

func TestEvolutionAndOverallAccuracy(t *testing.T) {
	epochs := []*matrix.NumberMatrix{
		confmat(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}}),
		confmat(t, [][]float64{{6, 0, 0}, {1, 5, 0}, {0, 0, 3}}),
	}

	evo, err := CalcEvolution(epochs, TPR)
	require.NoError(t, err)
	require.Equal(t, 3, evo.Rows())
	require.Equal(t, 1, evo.Cols())
	assert.InDeltaSlice(t, []float64{5.0 / 7.0, 6.0 / 7.0}, evo.At(0, 0), 1e-9)
	assert.InDeltaSlice(t, []float64{1, 1}, evo.At(2, 0), 1e-9)

	precision, err := CalcEvolution(epochs, PPV)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5.0 / 6.0, 1}, precision.At(0, 0), 1e-9)

	acc := CalcOverallAccuracy(epochs)
	assert.InDeltaSlice(t, []float64{0.8, 14.0 / 15.0}, acc, 1e-9)
}

func TestOverallAccuracyPerfect(t *testing.T) {
	m := confmat(t, [][]float64{{4, 0}, {0, 9}})
	assert.Equal(t, []float64{1}, CalcOverallAccuracy([]*matrix.NumberMatrix{m}))
}

func TestEvolutionEmpty(t *testing.T) {
	evo, err := CalcEvolution(nil, TPR)
	require.NoError(t, err)
	assert.Equal(t, 0, evo.Rows())
}

func TestEvolutionOrderMismatch(t *testing.T) {
	_, err := CalcEvolution([]*matrix.NumberMatrix{
		confmat(t, [][]float64{{1}}),
		confmat(t, [][]float64{{1, 0}, {0, 1}}),
	}, TP)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
