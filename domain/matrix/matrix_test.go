package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confusionflow/internal/errors"
)

func mustSquare(t *testing.T, vals [][]float64) *NumberMatrix {
	t.Helper()
	m, err := FromValues(vals)
	require.NoError(t, err)
	return m
}

func TestTransposeTwiceIsIdentity(t *testing.T) {
	m := mustSquare(t, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	tr := m.Transpose()
	assert.Equal(t, [][]float64{{1, 4, 7}, {2, 5, 8}, {3, 6, 9}}, tr.Values())
	assert.Equal(t, m.Values(), tr.Transpose().Values())
	// original untouched
	assert.Equal(t, 2.0, m.At(0, 1))
}

func TestRectangularTranspose(t *testing.T) {
	m := New[int](2, 3)
	require.NoError(t, m.Init([][]int{{1, 2, 3}, {4, 5, 6}}))

	tr := m.Transpose()
	assert.Equal(t, 3, tr.Rows())
	assert.Equal(t, 2, tr.Cols())
	assert.Equal(t, []int{1, 4, 2, 5, 3, 6}, tr.To1D())
}

func TestInitRejectsWrongShape(t *testing.T) {
	m := NewSquare[float64](2)
	err := m.Init([][]float64{{1, 2}, {3}})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestFilter(t *testing.T) {
	m := mustSquare(t, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	t.Run("all indices returns equal matrix", func(t *testing.T) {
		f, err := m.Filter([]int{0, 1, 2})
		require.NoError(t, err)
		assert.Equal(t, m.Order(), f.Order())
		assert.Equal(t, m.Values(), f.Values())
	})

	t.Run("subset keeps rows and columns", func(t *testing.T) {
		f, err := m.Filter([]int{0, 2})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{1, 3}, {7, 9}}, f.Values())
	})

	t.Run("order of indices reorders classes", func(t *testing.T) {
		f, err := m.Filter([]int{2, 0})
		require.NoError(t, err)
		assert.Equal(t, [][]float64{{9, 7}, {3, 1}}, f.Values())
	})

	t.Run("idempotent under identical index sets", func(t *testing.T) {
		once, err := m.Filter([]int{1, 2})
		require.NoError(t, err)
		twice, err := m.Filter([]int{1, 2})
		require.NoError(t, err)
		assert.Equal(t, once.Values(), twice.Values())
	})

	t.Run("out of range fails", func(t *testing.T) {
		_, err := m.Filter([]int{0, 3})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidIndex))
	})

	t.Run("duplicates fail", func(t *testing.T) {
		_, err := m.Filter([]int{1, 1})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidIndex))
	})
}

func TestValidateIndices(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		order   int
		wantErr bool
	}{
		{"empty", nil, 3, false},
		{"distinct", []int{2, 0, 1}, 3, false},
		{"upper bound", []int{3}, 3, true},
		{"negative", []int{-1}, 3, true},
		{"duplicate", []int{0, 2, 0}, 3, true},
		{"zero order", []int{0}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIndices(tt.indices, tt.order)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidIndex))
		})
	}
}

func TestSlice(t *testing.T) {
	m := mustSquare(t, [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	s, err := m.Slice(1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{5, 6}, {8, 9}}, s.Values())

	_, err = m.Slice(2, 1)
	assert.Error(t, err)
	_, err = m.Slice(0, 3)
	assert.Error(t, err)
}

func TestSumsAndDiagonal(t *testing.T) {
	m := mustSquare(t, [][]float64{{5, 1, 0}, {2, 4, 0}, {0, 0, 3}})

	assert.Equal(t, 15.0, Sum(m))
	assert.Equal(t, 6.0, RowSum(m, 0))
	assert.Equal(t, []float64{5, 4, 3}, Diagonal(m))

	zeroed := SetDiagonal(m, func(int) float64 { return 0 })
	assert.Equal(t, []float64{0, 0, 0}, Diagonal(zeroed))
	assert.Equal(t, []float64{5, 4, 3}, Diagonal(m))

	assert.Equal(t, 5.0, MaxOf(&m.Matrix, func(v float64) float64 { return v }))
	assert.Equal(t, 0.0, MinOf(&m.Matrix, func(v float64) float64 { return v }))
	assert.Equal(t, 0.0, Sum(NewSquare[float64](0)))
}

func TestTransformSq(t *testing.T) {
	m := mustSquare(t, [][]float64{{1, 2}, {3, 4}})
	labels := TransformSq(m, func(r, c int, m *NumberMatrix) string {
		if r == c {
			return "tp"
		}
		return "err"
	})
	assert.Equal(t, []string{"tp", "err", "err", "tp"}, labels.To1D())
}
