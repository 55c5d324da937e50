// Package sparse adapts james-bowman/sparse's CSR matrix for the factorization
// machine: construction is validated and rows can be read as raw slices.
package sparse

import (
	"errors"
	"fmt"

	jsparse "github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("sparse: invalid shape")

// CSR stores row i's non-zero entries in Indices[Indptr[i]:Indptr[i+1]] and
// Data[Indptr[i]:Indptr[i+1]]. Column indices are strictly increasing within a row.
// The embedded matrix shares these slices.
type CSR struct {
	*jsparse.CSR
	Indptr  []int
	Indices []int
	Data    []float64
}

var _ mat.Matrix = (*CSR)(nil)

func NewCSR(rows, cols int, indptr, indices []int, data []float64) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %d x %d", ErrShape, rows, cols)
	}
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("%w: len(indptr) = %d, want %d", ErrShape, len(indptr), rows+1)
	}
	if len(indices) != len(data) {
		return nil, fmt.Errorf("%w: len(indices) = %d, len(data) = %d", ErrShape, len(indices), len(data))
	}
	if indptr[0] != 0 || indptr[rows] != len(data) {
		return nil, fmt.Errorf("%w: indptr must span [0, %d]", ErrShape, len(data))
	}
	for i := 0; i < rows; i++ {
		start, end := indptr[i], indptr[i+1]
		if start > end {
			return nil, fmt.Errorf("%w: indptr decreases at row %d", ErrShape, i)
		}
		for p := start; p < end; p++ {
			j := indices[p]
			if j < 0 || j >= cols {
				return nil, fmt.Errorf("%w: column %d out of range at row %d", ErrShape, j, i)
			}
			if p > start && indices[p-1] >= j {
				return nil, fmt.Errorf("%w: columns not strictly increasing at row %d", ErrShape, i)
			}
		}
	}
	return wrap(rows, cols, indptr, indices, data), nil
}

func wrap(rows, cols int, indptr, indices []int, data []float64) *CSR {
	return &CSR{
		CSR:     jsparse.NewCSR(rows, cols, indptr, indices, data),
		Indptr:  indptr,
		Indices: indices,
		Data:    data,
	}
}

// FromDense keeps the non-zero entries of m.
func FromDense(m mat.Matrix) *CSR {
	rows, cols := m.Dims()
	indptr := make([]int, rows+1)
	indices := make([]int, 0)
	data := make([]float64, 0)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			indices = append(indices, j)
			data = append(data, v)
		}
		indptr[i+1] = len(data)
	}
	return wrap(rows, cols, indptr, indices, data)
}

// RawRow returns the column indices and values of row i without copying.
func (c *CSR) RawRow(i int) ([]int, []float64) {
	start, end := c.Indptr[i], c.Indptr[i+1]
	return c.Indices[start:end], c.Data[start:end]
}
