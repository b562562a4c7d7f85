// SPDX-License-Identifier: MIT

package sdb

import (
	"fmt"

	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/vis"
)

// AllChannels keeps every channel of the source buffer in focus.
const AllChannels = -1

// Buffer is one integration prepared for solving.
type Buffer struct {
	nCorr, nChan, nRow int
	focusChan          int
	spw                int
	time               float64

	ant1, ant2 []int
	flagRow    []bool
	obs        *cube.Complex
	model      *cube.Complex
	flags      *cube.Bool
	wt         *cube.Float

	resid     *cube.Complex
	diffResid *cube.Deriv
	residFlag *cube.Bool
}

// New copies the in-focus part of a collapsed visibility buffer.
// focusChan selects one channel (per-channel solves) or AllChannels.
// The weight spectrum broadcasts the [nRow][nCorr] weights across channels
// and is zero wherever the data are flagged.
// Complexity: O(nCorr*nChan*nRow).
func New(vb *vis.Buffer, focusChan int) (*Buffer, error) {
	if vb == nil {
		return nil, ErrNilBuffer
	}
	if focusChan != AllChannels && (focusChan < 0 || focusChan >= vb.NChannel()) {
		return nil, fmt.Errorf("sdb.New(focus=%d, nChan=%d): %w", focusChan, vb.NChannel(), ErrFocusChan)
	}

	chans := make([]int, 0, vb.NChannel())
	if focusChan == AllChannels {
		for ch := 0; ch < vb.NChannel(); ch++ {
			chans = append(chans, ch)
		}
	} else {
		chans = append(chans, focusChan)
	}

	b := &Buffer{
		nCorr: vb.NCorr(), nChan: len(chans), nRow: vb.NRow(),
		focusChan: focusChan,
		spw:       vb.SpectralWindow(),
		ant1:      append([]int(nil), vb.Antenna1()...),
		ant2:      append([]int(nil), vb.Antenna2()...),
		flagRow:   append([]bool(nil), vb.FlagRow()...),
	}
	if vb.NRow() > 0 {
		b.time = vb.Time()[0]
	}

	var err error
	if b.obs, err = cube.NewComplex(b.nCorr, b.nChan, b.nRow); err != nil {
		return nil, err
	}
	if b.model, err = cube.NewComplex(b.nCorr, b.nChan, b.nRow); err != nil {
		return nil, err
	}
	if b.flags, err = cube.NewBool(b.nCorr, b.nChan, b.nRow); err != nil {
		return nil, err
	}
	if b.wt, err = cube.NewFloat(b.nCorr, b.nChan, b.nRow); err != nil {
		return nil, err
	}

	for row := 0; row < b.nRow; row++ {
		w := vb.WeightMat().Row(row)
		for i, ch := range chans {
			copy(b.obs.Cell(i, row), vb.VisCube().Cell(ch, row))
			copy(b.model.Cell(i, row), vb.ModelVisCube().Cell(ch, row))
			fl := b.flags.Cell(i, row)
			copy(fl, vb.FlagCube().Cell(ch, row))
			wt := b.wt.Cell(i, row)
			for corr := range wt {
				if !fl[corr] && !b.flagRow[row] {
					wt[corr] = w[corr]
				}
			}
		}
	}

	return b, nil
}

// NCorr returns the number of correlations.
func (b *Buffer) NCorr() int { return b.nCorr }

// NChannel returns the number of in-focus channels.
func (b *Buffer) NChannel() int { return b.nChan }

// NRow returns the number of rows.
func (b *Buffer) NRow() int { return b.nRow }

// FocusChan returns the source channel held, or AllChannels.
func (b *Buffer) FocusChan() int { return b.focusChan }

// SpectralWindow returns the source spectral window id.
func (b *Buffer) SpectralWindow() int { return b.spw }

// Time returns the timestamp of the first row.
func (b *Buffer) Time() float64 { return b.time }

// Antenna1 returns the first antenna of every row.
func (b *Buffer) Antenna1() []int { return b.ant1 }

// Antenna2 returns the second antenna of every row.
func (b *Buffer) Antenna2() []int { return b.ant2 }

// NAnt returns one more than the largest antenna index referenced.
func (b *Buffer) NAnt() int {
	n := 0
	for i := range b.ant1 {
		n = max(n, b.ant1[i]+1, b.ant2[i]+1)
	}

	return n
}

// FlagRow returns the per-row flags.
func (b *Buffer) FlagRow() []bool { return b.flagRow }

// VisCube returns the observed (corrected) data.
func (b *Buffer) VisCube() *cube.Complex { return b.obs }

// ModelVisCube returns the (partially corrupted) model.
func (b *Buffer) ModelVisCube() *cube.Complex { return b.model }

// FlagCube returns the data flags.
func (b *Buffer) FlagCube() *cube.Bool { return b.flags }

// InfocusWtSpec returns the in-focus weight spectrum.
func (b *Buffer) InfocusWtSpec() *cube.Float { return b.wt }

// Residuals returns the residual cube (nil before the first differentiation).
func (b *Buffer) Residuals() *cube.Complex { return b.resid }

// DiffResiduals returns the residual derivatives (nil before the first
// differentiation).
func (b *Buffer) DiffResiduals() *cube.Deriv { return b.diffResid }

// ResidFlagCube returns the residual flags (nil before the first
// differentiation).
func (b *Buffer) ResidFlagCube() *cube.Bool { return b.residFlag }

// PrepareResiduals sizes the residual workspace and seeds the residual
// flags from the data flags. With nPar > 0 the derivative array is sized
// [nCorr][nPar][nChan][nRow][2] and zeroed; nPar == 0 leaves it untouched.
func (b *Buffer) PrepareResiduals(nPar int) error {
	var err error
	if b.resid == nil {
		if b.resid, err = cube.NewComplex(b.nCorr, b.nChan, b.nRow); err != nil {
			return err
		}
		if b.residFlag, err = cube.NewBool(b.nCorr, b.nChan, b.nRow); err != nil {
			return err
		}
	}
	copy(b.residFlag.Data(), b.flags.Data())

	if nPar <= 0 {
		return nil
	}
	if b.diffResid == nil {
		b.diffResid, err = cube.NewDeriv(b.nCorr, nPar, b.nChan, b.nRow)
		return err
	}
	if err = b.diffResid.Resize(b.nCorr, nPar, b.nChan, b.nRow); err != nil {
		return err
	}
	b.diffResid.Zero()

	return nil
}

// String implements fmt.Stringer.
func (b *Buffer) String() string {
	return fmt.Sprintf("sdb.Buffer{t=%g focus=%d nCorr=%d nChan=%d nRow=%d}",
		b.time, b.focusChan, b.nCorr, b.nChan, b.nRow)
}
