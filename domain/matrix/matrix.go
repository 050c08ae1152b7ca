package matrix

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"confusionflow/internal/errors"
)

// Matrix is a general purpose rows x cols container.
// Algebraic operations never mutate the receiver; they return a new matrix.
type Matrix[T any] struct {
	rows   int
	cols   int
	values [][]T
}

// New creates an empty matrix of the given shape. Call Init to populate it.
func New[T any](rows, cols int) *Matrix[T] {
	return &Matrix[T]{rows: rows, cols: cols, values: alloc[T](rows, cols)}
}

func alloc[T any](rows, cols int) [][]T {
	values := make([][]T, rows)
	for r := range values {
		values[r] = make([]T, cols)
	}
	return values
}

// Init copies vals into the matrix. vals must match the matrix shape.
func (m *Matrix[T]) Init(vals [][]T) error {
	if len(vals) != m.rows {
		return errors.InvalidInput(fmt.Sprintf("expected %d rows, got %d", m.rows, len(vals)))
	}
	for r := 0; r < m.rows; r++ {
		if len(vals[r]) != m.cols {
			return errors.InvalidInput(fmt.Sprintf("row %d: expected %d columns, got %d", r, m.cols, len(vals[r])))
		}
		copy(m.values[r], vals[r])
	}
	return nil
}

// Rows returns the row count
func (m *Matrix[T]) Rows() int { return m.rows }

// Cols returns the column count
func (m *Matrix[T]) Cols() int { return m.cols }

// At returns the value at row r, column c
func (m *Matrix[T]) At(r, c int) T { return m.values[r][c] }

// Row returns a copy of row r
func (m *Matrix[T]) Row(r int) []T {
	row := make([]T, m.cols)
	copy(row, m.values[r])
	return row
}

// Values returns a deep copy of the backing values
func (m *Matrix[T]) Values() [][]T {
	out := alloc[T](m.rows, m.cols)
	for r := range out {
		copy(out[r], m.values[r])
	}
	return out
}

// Transpose returns a new matrix with rows and columns swapped
func (m *Matrix[T]) Transpose() *Matrix[T] {
	t := New[T](m.cols, m.rows)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			t.values[c][r] = m.values[r][c]
		}
	}
	return t
}

// To1D flattens the matrix in row-major order
func (m *Matrix[T]) To1D() []T {
	flat := make([]T, 0, m.rows*m.cols)
	for _, row := range m.values {
		flat = append(flat, row...)
	}
	return flat
}

// Clone returns a copy of the matrix
func (m *Matrix[T]) Clone() *Matrix[T] {
	return &Matrix[T]{rows: m.rows, cols: m.cols, values: m.Values()}
}

// SquareMatrix is an N x N matrix
type SquareMatrix[T any] struct {
	Matrix[T]
}

// NewSquare creates an empty square matrix of the given order
func NewSquare[T any](order int) *SquareMatrix[T] {
	return &SquareMatrix[T]{Matrix: *New[T](order, order)}
}

// FromValues builds a square matrix from row slices
func FromValues[T any](vals [][]T) (*SquareMatrix[T], error) {
	sm := NewSquare[T](len(vals))
	if err := sm.Init(vals); err != nil {
		return nil, err
	}
	return sm, nil
}

// Order returns the number of rows (= columns)
func (m *SquareMatrix[T]) Order() int { return m.rows }

// Transpose returns a new square matrix with values[r][c] = orig[c][r]
func (m *SquareMatrix[T]) Transpose() *SquareMatrix[T] {
	return &SquareMatrix[T]{Matrix: *m.Matrix.Transpose()}
}

// Clone returns a copy of the square matrix
func (m *SquareMatrix[T]) Clone() *SquareMatrix[T] {
	return &SquareMatrix[T]{Matrix: *m.Matrix.Clone()}
}

// Slice returns the sub matrix spanning rows and columns start..end inclusive
func (m *SquareMatrix[T]) Slice(start, end int) (*SquareMatrix[T], error) {
	if start < 0 || end >= m.Order() || start > end {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid slice range [%d, %d] for order %d", start, end, m.Order()))
	}
	order := end - start + 1
	sm := NewSquare[T](order)
	for r := 0; r < order; r++ {
		copy(sm.values[r], m.values[r+start][start:end+1])
	}
	return sm, nil
}

// Filter projects the matrix onto the given class indices.
// The result has len(indices) rows and columns in the order of indices, so
// Filter doubles as a class reordering. Indices must be unique and in range.
func (m *SquareMatrix[T]) Filter(indices []int) (*SquareMatrix[T], error) {
	if err := ValidateIndices(indices, m.Order()); err != nil {
		return nil, err
	}

	sm := NewSquare[T](len(indices))
	for newR, r := range indices {
		for newC, c := range indices {
			sm.values[newR][newC] = m.values[r][c]
		}
	}
	return sm, nil
}

// ValidateIndices checks that indices are distinct classes of a matrix of
// the given order
func ValidateIndices(indices []int, order int) error {
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= order {
			return errors.InvalidIndex(idx, order)
		}
		if _, dup := seen[idx]; dup {
			return errors.WithCode(errors.CodeInvalidIndex, fmt.Errorf("duplicate index %d in filter", idx))
		}
		seen[idx] = struct{}{}
	}
	return nil
}

// NumberMatrix is the confusion matrix type
type NumberMatrix = SquareMatrix[float64]

// Dense converts a number matrix to a gonum dense matrix
func Dense(m *NumberMatrix) *mat.Dense {
	if m.Order() == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(m.Order(), m.Order(), m.To1D())
}

// Sum adds all values of the matrix
func Sum(m *NumberMatrix) float64 {
	if m.Order() == 0 {
		return 0
	}
	return mat.Sum(Dense(m))
}

// RowSum adds the values of row r
func RowSum(m *NumberMatrix, r int) float64 {
	return floats.Sum(m.values[r])
}

// MaxOf returns the largest f(v) over all values, or 0 for an empty matrix
func MaxOf[T any](m *Matrix[T], f func(T) float64) float64 {
	flat := m.To1D()
	if len(flat) == 0 {
		return 0
	}
	res := f(flat[0])
	for _, v := range flat[1:] {
		if x := f(v); x > res {
			res = x
		}
	}
	return res
}

// MinOf returns the smallest f(v) over all values, or 0 for an empty matrix
func MinOf[T any](m *Matrix[T], f func(T) float64) float64 {
	flat := m.To1D()
	if len(flat) == 0 {
		return 0
	}
	res := f(flat[0])
	for _, v := range flat[1:] {
		if x := f(v); x < res {
			res = x
		}
	}
	return res
}

// Diagonal returns the main diagonal
func Diagonal[T any](m *SquareMatrix[T]) []T {
	diag := make([]T, m.Order())
	for i := range diag {
		diag[i] = m.values[i][i]
	}
	return diag
}

// SetDiagonal returns a copy of m with the diagonal replaced by f(i)
func SetDiagonal[T any](m *SquareMatrix[T], f func(i int) T) *SquareMatrix[T] {
	sm := m.Clone()
	for i := 0; i < sm.Order(); i++ {
		sm.values[i][i] = f(i)
	}
	return sm
}

// Transform maps every value of m through f
func Transform[U, V any](m *Matrix[U], f func(r, c int, m *Matrix[U]) V) *Matrix[V] {
	out := New[V](m.rows, m.cols)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			out.values[r][c] = f(r, c, m)
		}
	}
	return out
}

// TransformSq maps every value of a square matrix through f
func TransformSq[U, V any](m *SquareMatrix[U], f func(r, c int, m *SquareMatrix[U]) V) *SquareMatrix[V] {
	out := NewSquare[V](m.Order())
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			out.values[r][c] = f(r, c, m)
		}
	}
	return out
}
