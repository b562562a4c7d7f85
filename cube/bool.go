// SPDX-License-Identifier: MIT

package cube

// Bool is a [nCorr][nChan][nRow] flag cube. true means flagged.
type Bool struct {
	shape Shape
	data  []bool
}

// NewBool creates an all-false flag cube.
func NewBool(nCorr, nChan, nRow int) (*Bool, error) {
	s := Shape{NCorr: nCorr, NChan: nChan, NRow: nRow}
	if !s.Valid() {
		return nil, cubeErrorf("Bool", "New", ErrBadShape)
	}

	return &Bool{shape: s, data: make([]bool, s.Len())}, nil
}

// Shape returns the cube shape.
func (b *Bool) Shape() Shape { return b.shape }

// Data exposes the flat backing slice.
func (b *Bool) Data() []bool { return b.data }

// Index returns the flat offset of (corr, ch, row). No bounds checks.
func (b *Bool) Index(corr, ch, row int) int { return b.shape.index(corr, ch, row) }

// Cell returns the nCorr-long sub-slice for (ch, row).
func (b *Bool) Cell(ch, row int) []bool {
	off := b.shape.index(0, ch, row)
	return b.data[off : off+b.shape.NCorr : off+b.shape.NCorr]
}

// At returns the flag at (corr, ch, row).
func (b *Bool) At(corr, ch, row int) (bool, error) {
	if !b.shape.contains(corr, ch, row) {
		return false, cubeErrorf("Bool", "At", ErrOutOfRange)
	}

	return b.data[b.shape.index(corr, ch, row)], nil
}

// Set assigns v at (corr, ch, row).
func (b *Bool) Set(corr, ch, row int, v bool) error {
	if !b.shape.contains(corr, ch, row) {
		return cubeErrorf("Bool", "Set", ErrOutOfRange)
	}
	b.data[b.shape.index(corr, ch, row)] = v

	return nil
}

// Fill assigns v to every element.
func (b *Bool) Fill(v bool) {
	for i := range b.data {
		b.data[i] = v
	}
}

// Resize reshapes the cube, reallocating (all false) only when the shape changes.
func (b *Bool) Resize(nCorr, nChan, nRow int) error {
	s := Shape{NCorr: nCorr, NChan: nChan, NRow: nRow}
	if !s.Valid() {
		return cubeErrorf("Bool", "Resize", ErrBadShape)
	}
	if s == b.shape {
		return nil
	}
	b.shape = s
	b.data = make([]bool, s.Len())

	return nil
}

// Clone returns a deep copy.
func (b *Bool) Clone() *Bool {
	d := make([]bool, len(b.data))
	copy(d, b.data)

	return &Bool{shape: b.shape, data: d}
}

// CellAll reports whether every correlation of (ch, row) is flagged.
func (b *Bool) CellAll(ch, row int) bool {
	for _, f := range b.Cell(ch, row) {
		if !f {
			return false
		}
	}

	return true
}

// Count returns the number of true elements (ntrue).
func (b *Bool) Count() int {
	return CountTrue(b.data)
}

// CountTrue returns the number of true entries in s.
func CountTrue(s []bool) int {
	n := 0
	for _, v := range s {
		if v {
			n++
		}
	}

	return n
}
