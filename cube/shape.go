// SPDX-License-Identifier: MIT

package cube

import "fmt"

// Shape describes the three visibility axes shared by Complex, Bool and Float.
type Shape struct {
	NCorr int // correlations per cell (1, 2 or 4 for visibilities)
	NChan int // spectral channels
	NRow  int // rows (baseline × integration)
}

// Len returns the number of elements covered by the shape.
func (s Shape) Len() int {
	return s.NCorr * s.NChan * s.NRow
}

// Valid reports whether every axis is strictly positive.
func (s Shape) Valid() bool {
	return s.NCorr > 0 && s.NChan > 0 && s.NRow > 0
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("[%d,%d,%d]", s.NCorr, s.NChan, s.NRow)
}

// index computes the flat offset of (corr, ch, row) without bounds checks.
func (s Shape) index(corr, ch, row int) int {
	return (row*s.NChan+ch)*s.NCorr + corr
}

// contains reports whether (corr, ch, row) lies inside the shape.
func (s Shape) contains(corr, ch, row int) bool {
	return corr >= 0 && corr < s.NCorr &&
		ch >= 0 && ch < s.NChan &&
		row >= 0 && row < s.NRow
}
