// SPDX-License-Identifier: MIT

package cube

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Matrix is a row-major matrix of float64 values.
// Visibility weights and sigmas are held as [nRow][nCorr] so that one
// row's correlations are contiguous; baseline weight sums use [nAnt][nAnt].
type Matrix struct {
	r, c int       // number of rows and columns
	data []float64 // flat backing storage, length == r*c
}

// NewMatrix creates an r×c zero matrix.
// Stage 1 (Validate): ensure rows and cols > 0.
// Stage 2 (Prepare): allocate flat backing slice.
// Complexity: O(r*c) time and memory.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, cubeErrorf("Matrix", "New", ErrBadShape)
	}

	return &Matrix{r: rows, c: cols, data: make([]float64, rows*cols)}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.r }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.c }

// Data exposes the flat backing slice.
func (m *Matrix) Data() []float64 { return m.data }

// indexOf computes the flat index for (row, col) or returns ErrOutOfRange.
func (m *Matrix) indexOf(method string, row, col int) (int, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, fmt.Errorf("Matrix.%s(%d,%d): %w", method, row, col, ErrOutOfRange)
	}

	return row*m.c + col, nil
}

// At retrieves the element at (row, col).
func (m *Matrix) At(row, col int) (float64, error) {
	idx, err := m.indexOf("At", row, col)
	if err != nil {
		return 0, err
	}

	return m.data[idx], nil
}

// Set assigns v at (row, col).
func (m *Matrix) Set(row, col int, v float64) error {
	idx, err := m.indexOf("Set", row, col)
	if err != nil {
		return err
	}
	m.data[idx] = v

	return nil
}

// Row returns row i as a sub-slice that writes through. No bounds checks.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.c : (i+1)*m.c : (i+1)*m.c]
}

// RowSum returns the sum of row i.
func (m *Matrix) RowSum(i int) float64 {
	return floats.Sum(m.Row(i))
}

// ZeroRowCol clears row i and column i (square matrices).
func (m *Matrix) ZeroRowCol(i int) {
	for j := 0; j < m.c; j++ {
		m.data[i*m.c+j] = 0
	}
	for j := 0; j < m.r; j++ {
		m.data[j*m.c+i] = 0
	}
}

// Fill assigns v to every element.
func (m *Matrix) Fill(v float64) {
	for i := range m.data {
		m.data[i] = v
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	d := make([]float64, len(m.data))
	copy(d, m.data)

	return &Matrix{r: m.r, c: m.c, data: d}
}

// String implements fmt.Stringer for easy debugging.
func (m *Matrix) String() string {
	var s string
	for i := 0; i < m.r; i++ {
		s += "["
		for j := 0; j < m.c; j++ {
			s += fmt.Sprintf("%g", m.data[i*m.c+j])
			if j < m.c-1 {
				s += ", "
			}
		}
		s += "]\n"
	}

	return s
}
