// SPDX-License-Identifier: MIT

package viscal

import (
	"fmt"

	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/jones"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/vis"
)

// Differentiate writes the trial corrupted model J1·M·J2ᴴ of the in-focus
// parameters into sb.Residuals() and its derivatives into
// sb.DiffResiduals():
//
//	dR[.,p,.,.,0] = ∂J1/∂p · (M·J2ᴴ)
//	dR[.,p,.,.,1] = (J1·M) · (∂J2/∂p)ᴴ
//
// The observed data are not subtracted here.
func (t *Term) Differentiate(sb *sdb.Buffer) error {
	if err := sb.PrepareResiduals(t.nPar); err != nil {
		return fmt.Errorf("%s.Differentiate: %w", t.Name(), err)
	}
	in := diffInput{
		model: sb.ModelVisCube(), flagRow: sb.FlagRow(),
		ant1: sb.Antenna1(), ant2: sb.Antenna2(),
	}
	if err := t.differentiate(in, sb.Residuals(), sb.DiffResiduals(), sb.ResidFlagCube()); err != nil {
		return fmt.Errorf("%s.Differentiate: %w", t.Name(), err)
	}

	return nil
}

// Residualate is Differentiate without the derivative array.
func (t *Term) Residualate(sb *sdb.Buffer) error {
	if err := sb.PrepareResiduals(0); err != nil {
		return fmt.Errorf("%s.Residualate: %w", t.Name(), err)
	}
	in := diffInput{
		model: sb.ModelVisCube(), flagRow: sb.FlagRow(),
		ant1: sb.Antenna1(), ant2: sb.Antenna2(),
	}
	if err := t.differentiate(in, sb.Residuals(), nil, sb.ResidFlagCube()); err != nil {
		return fmt.Errorf("%s.Residualate: %w", t.Name(), err)
	}

	return nil
}

// DifferentiateBuffer is Differentiate over a visibility buffer. r, dr and
// flags are resized to the buffer; flags start as a copy of its flag cube.
func (t *Term) DifferentiateBuffer(vb *vis.Buffer, r *cube.Complex, dr *cube.Deriv, flags *cube.Bool) error {
	if err := cube.ValidateNotNil(r); err != nil || dr == nil || flags == nil {
		return fmt.Errorf("%s.DifferentiateBuffer: %w", t.Name(), cube.ErrNilCube)
	}
	nCorr, nChan, nRow := vb.NCorr(), vb.NChannel(), vb.NRow()
	if err := r.Resize(nCorr, nChan, nRow); err != nil {
		return err
	}
	if err := dr.Resize(nCorr, t.nPar, nChan, nRow); err != nil {
		return err
	}
	dr.Zero()
	if err := flags.Resize(nCorr, nChan, nRow); err != nil {
		return err
	}
	copy(flags.Data(), vb.FlagCube().Data())

	in := diffInput{
		model: vb.ModelVisCube(), flagRow: vb.FlagRow(),
		ant1: vb.Antenna1(), ant2: vb.Antenna2(),
	}
	if err := t.differentiate(in, r, dr, flags); err != nil {
		return fmt.Errorf("%s.DifferentiateBuffer: %w", t.Name(), err)
	}

	return nil
}

type diffInput struct {
	model      *cube.Complex
	flagRow    []bool
	ant1, ant2 []int
}

// differentiate is shared by every entry point. Flagged rows and
// auto-correlations are flagged in rflag and left at zero.
// Complexity: O(nRow*nChan*nPar) 2×2 products.
func (t *Term) differentiate(in diffInput, r *cube.Complex, dr *cube.Deriv, rflag *cube.Bool) error {
	vt, err := jones.VisTypeFor(in.model.NCorr())
	if err != nil {
		return err
	}
	v, err := jones.NewVisVector(vt, true)
	if err != nil {
		return err
	}
	js := t.jonesFor(t.focus)
	nChan := in.model.NChan()

	for row := 0; row < in.model.NRow(); row++ {
		a1, a2 := in.ant1[row], in.ant2[row]
		if in.flagRow[row] || a1 == a2 {
			for ch := 0; ch < nChan; ch++ {
				clear(r.Cell(ch, row))
				fl := rflag.Cell(ch, row)
				for i := range fl {
					fl[i] = true
				}
			}
			continue
		}
		if a1 >= t.nAnt || a2 >= t.nAnt {
			return fmt.Errorf("row %d baseline %d-%d: %w", row, a1, a2, ErrAntenna)
		}
		J1, J2 := js[a1], js[a2]
		m1, m2h := mat2(J1.Matrix()), mat2(J2.Matrix()).herm()

		for ch := 0; ch < nChan; ch++ {
			m := in.model.Cell(ch, row)
			cell := r.Cell(ch, row)
			copy(cell, m)
			if err = v.Sync(cell, rflag.Cell(ch, row)); err != nil {
				return err
			}
			if err = jones.Apply(J1, v, J2); err != nil {
				return err
			}
			if dr == nil {
				continue
			}

			M := expand(m)
			vj2 := M.mul(m2h)
			j1v := m1.mul(M)
			for p, dJ := range t.dJ {
				contract(dJ.mul(vj2), dr.Cell(p, ch, row, 0))
				contract(j1v.mul(dJ.herm()), dr.Cell(p, ch, row, 1))
			}
		}
	}

	return nil
}
