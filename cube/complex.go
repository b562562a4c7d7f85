// SPDX-License-Identifier: MIT

package cube

import (
	"fmt"
	"strings"
)

// Complex is a [nCorr][nChan][nRow] cube of complex visibilities.
type Complex struct {
	shape Shape
	data  []complex128 // flat backing storage, len == shape.Len()
}

// NewComplex creates a zero-filled complex cube.
// Stage 1 (Validate): every axis must be > 0.
// Stage 2 (Prepare): allocate the flat backing slice.
// Complexity: O(nCorr*nChan*nRow).
func NewComplex(nCorr, nChan, nRow int) (*Complex, error) {
	s := Shape{NCorr: nCorr, NChan: nChan, NRow: nRow}
	if !s.Valid() {
		return nil, cubeErrorf("Complex", "New", ErrBadShape)
	}

	return &Complex{shape: s, data: make([]complex128, s.Len())}, nil
}

// Shape returns the cube shape.
func (c *Complex) Shape() Shape { return c.shape }

// NCorr returns the correlation axis length.
func (c *Complex) NCorr() int { return c.shape.NCorr }

// NChan returns the channel axis length.
func (c *Complex) NChan() int { return c.shape.NChan }

// NRow returns the row axis length.
func (c *Complex) NRow() int { return c.shape.NRow }

// Data exposes the flat backing slice (correlation axis fastest).
func (c *Complex) Data() []complex128 { return c.data }

// Index returns the flat offset of (corr, ch, row). No bounds checks.
func (c *Complex) Index(corr, ch, row int) int { return c.shape.index(corr, ch, row) }

// Cell returns the nCorr-long sub-slice for (ch, row). Writes through.
func (c *Complex) Cell(ch, row int) []complex128 {
	off := c.shape.index(0, ch, row)
	return c.data[off : off+c.shape.NCorr : off+c.shape.NCorr]
}

// At returns the element at (corr, ch, row).
func (c *Complex) At(corr, ch, row int) (complex128, error) {
	if !c.shape.contains(corr, ch, row) {
		return 0, cubeErrorf("Complex", "At", ErrOutOfRange)
	}

	return c.data[c.shape.index(corr, ch, row)], nil
}

// Set assigns v at (corr, ch, row).
func (c *Complex) Set(corr, ch, row int, v complex128) error {
	if !c.shape.contains(corr, ch, row) {
		return cubeErrorf("Complex", "Set", ErrOutOfRange)
	}
	c.data[c.shape.index(corr, ch, row)] = v

	return nil
}

// Fill assigns v to every element.
func (c *Complex) Fill(v complex128) {
	for i := range c.data {
		c.data[i] = v
	}
}

// Resize reshapes the cube, reallocating (zeroed) only when the shape changes.
// Complexity: O(1) if unchanged, O(n) otherwise.
func (c *Complex) Resize(nCorr, nChan, nRow int) error {
	s := Shape{NCorr: nCorr, NChan: nChan, NRow: nRow}
	if !s.Valid() {
		return cubeErrorf("Complex", "Resize", ErrBadShape)
	}
	if s == c.shape {
		return nil
	}
	c.shape = s
	c.data = make([]complex128, s.Len())

	return nil
}

// Clone returns a deep copy.
func (c *Complex) Clone() *Complex {
	d := make([]complex128, len(c.data))
	copy(d, c.data)

	return &Complex{shape: c.shape, data: d}
}

// CopyFrom overwrites c with the contents of src (shapes must match).
func (c *Complex) CopyFrom(src *Complex) error {
	if err := ValidateSameShape(c.shape, src.shape); err != nil {
		return cubeErrorf("Complex", "CopyFrom", err)
	}
	copy(c.data, src.data)

	return nil
}

// Sub performs c -= o element-wise.
func (c *Complex) Sub(o *Complex) error {
	if err := ValidateSameShape(c.shape, o.shape); err != nil {
		return cubeErrorf("Complex", "Sub", err)
	}
	for i := range c.data {
		c.data[i] -= o.data[i]
	}

	return nil
}

// Add performs c += o element-wise.
func (c *Complex) Add(o *Complex) error {
	if err := ValidateSameShape(c.shape, o.shape); err != nil {
		return cubeErrorf("Complex", "Add", err)
	}
	for i := range c.data {
		c.data[i] += o.data[i]
	}

	return nil
}

// Scale multiplies every element by f.
func (c *Complex) Scale(f complex128) {
	for i := range c.data {
		c.data[i] *= f
	}
}

// String implements fmt.Stringer (one line per row/channel cell).
func (c *Complex) String() string {
	var b strings.Builder
	for row := 0; row < c.shape.NRow; row++ {
		for ch := 0; ch < c.shape.NChan; ch++ {
			fmt.Fprintf(&b, "(%d,%d) %v\n", ch, row, c.Cell(ch, row))
		}
	}

	return b.String()
}
