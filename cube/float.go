// SPDX-License-Identifier: MIT

package cube

import "gonum.org/v1/gonum/floats"

// Float is a [nCorr][nChan][nRow] cube of real values (weight spectra).
type Float struct {
	shape Shape
	data  []float64
}

// NewFloat creates a zero-filled real cube.
func NewFloat(nCorr, nChan, nRow int) (*Float, error) {
	s := Shape{NCorr: nCorr, NChan: nChan, NRow: nRow}
	if !s.Valid() {
		return nil, cubeErrorf("Float", "New", ErrBadShape)
	}

	return &Float{shape: s, data: make([]float64, s.Len())}, nil
}

// Shape returns the cube shape.
func (f *Float) Shape() Shape { return f.shape }

// Data exposes the flat backing slice.
func (f *Float) Data() []float64 { return f.data }

// Index returns the flat offset of (corr, ch, row). No bounds checks.
func (f *Float) Index(corr, ch, row int) int { return f.shape.index(corr, ch, row) }

// Cell returns the nCorr-long sub-slice for (ch, row).
func (f *Float) Cell(ch, row int) []float64 {
	off := f.shape.index(0, ch, row)
	return f.data[off : off+f.shape.NCorr : off+f.shape.NCorr]
}

// At returns the value at (corr, ch, row).
func (f *Float) At(corr, ch, row int) (float64, error) {
	if !f.shape.contains(corr, ch, row) {
		return 0, cubeErrorf("Float", "At", ErrOutOfRange)
	}

	return f.data[f.shape.index(corr, ch, row)], nil
}

// Set assigns v at (corr, ch, row).
func (f *Float) Set(corr, ch, row int, v float64) error {
	if !f.shape.contains(corr, ch, row) {
		return cubeErrorf("Float", "Set", ErrOutOfRange)
	}
	f.data[f.shape.index(corr, ch, row)] = v

	return nil
}

// Fill assigns v to every element.
func (f *Float) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

// Clone returns a deep copy.
func (f *Float) Clone() *Float {
	d := make([]float64, len(f.data))
	copy(d, f.data)

	return &Float{shape: f.shape, data: d}
}

// Sum returns the sum of all elements.
func (f *Float) Sum() float64 {
	return floats.Sum(f.data)
}
