// SPDX-License-Identifier: MIT

package cube

// Deriv is the [nCorr][nPar][nChan][nRow][2] array of residual derivatives.
// The last axis selects the antenna side of the baseline (0 = antenna1,
// 1 = antenna2). Correlations of one (par, ch, row, side) are contiguous,
// as are the nPar blocks of one (ch, row, side).
type Deriv struct {
	nCorr, nPar, nChan, nRow int
	data                     []complex128
}

// NewDeriv allocates a zero derivative array.
func NewDeriv(nCorr, nPar, nChan, nRow int) (*Deriv, error) {
	if nCorr <= 0 || nPar <= 0 || nChan <= 0 || nRow <= 0 {
		return nil, cubeErrorf("Deriv", "New", ErrBadShape)
	}

	return &Deriv{
		nCorr: nCorr, nPar: nPar, nChan: nChan, nRow: nRow,
		data: make([]complex128, nCorr*nPar*nChan*nRow*2),
	}, nil
}

// NCorr returns the correlation axis length.
func (d *Deriv) NCorr() int { return d.nCorr }

// NPar returns the per-antenna parameter axis length.
func (d *Deriv) NPar() int { return d.nPar }

// NChan returns the channel axis length.
func (d *Deriv) NChan() int { return d.nChan }

// NRow returns the row axis length.
func (d *Deriv) NRow() int { return d.nRow }

// Data exposes the flat backing slice.
func (d *Deriv) Data() []complex128 { return d.data }

// Index returns the flat offset of (corr, par, ch, row, side). No bounds checks.
func (d *Deriv) Index(corr, par, ch, row, side int) int {
	return (((side*d.nRow+row)*d.nChan+ch)*d.nPar+par)*d.nCorr + corr
}

// Cell returns the nCorr-long derivative vector of one parameter.
func (d *Deriv) Cell(par, ch, row, side int) []complex128 {
	off := d.Index(0, par, ch, row, side)
	return d.data[off : off+d.nCorr : off+d.nCorr]
}

// At returns the element at (corr, par, ch, row, side).
func (d *Deriv) At(corr, par, ch, row, side int) (complex128, error) {
	if corr < 0 || corr >= d.nCorr || par < 0 || par >= d.nPar ||
		ch < 0 || ch >= d.nChan || row < 0 || row >= d.nRow ||
		side < 0 || side > 1 {
		return 0, cubeErrorf("Deriv", "At", ErrOutOfRange)
	}

	return d.data[d.Index(corr, par, ch, row, side)], nil
}

// Resize reshapes the array, reallocating (zeroed) only when the shape changes.
func (d *Deriv) Resize(nCorr, nPar, nChan, nRow int) error {
	if nCorr <= 0 || nPar <= 0 || nChan <= 0 || nRow <= 0 {
		return cubeErrorf("Deriv", "Resize", ErrBadShape)
	}
	if nCorr == d.nCorr && nPar == d.nPar && nChan == d.nChan && nRow == d.nRow {
		return nil
	}
	d.nCorr, d.nPar, d.nChan, d.nRow = nCorr, nPar, nChan, nRow
	d.data = make([]complex128, nCorr*nPar*nChan*nRow*2)

	return nil
}

// Zero clears every element.
func (d *Deriv) Zero() {
	for i := range d.data {
		d.data[i] = 0
	}
}
