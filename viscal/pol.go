// SPDX-License-Identifier: MIT

package viscal

import (
	"fmt"
	"math/cmplx"

	"github.com/katalvlaran/viscal/vis"
)

// SetUpForPolSolve divides data and model by the Stokes I model
// (M[first]+M[last])/2 and, for four correlations, resets the model
// cross-hands to 1 so that leakage factors multiplying them propagate.
// Cells with zero Stokes I are flagged. Row weights are scaled by the mean
// |I|² of their unflagged channels. Correlations must be in canonical order.
func (t *Term) SetUpForPolSolve(vb *vis.Buffer) error {
	nCorr := vb.NCorr()
	if nCorr < 2 {
		return fmt.Errorf("%s.SetUpForPolSolve: %w", t.Name(), ErrPolSolve)
	}
	last := nCorr - 1

	for row := 0; row < vb.NRow(); row++ {
		if vb.FlagRow()[row] {
			continue
		}
		sumI2, n := 0.0, 0
		for ch := 0; ch < vb.NChannel(); ch++ {
			m := vb.ModelVisCube().Cell(ch, row)
			d := vb.VisCube().Cell(ch, row)
			I := (m[0] + m[last]) / 2
			if cmplx.Abs(I) == 0 {
				fl := vb.FlagCube().Cell(ch, row)
				for i := range fl {
					fl[i] = true
				}
				continue
			}
			for i := range d {
				d[i] /= I
			}
			m[0] /= I
			m[last] /= I
			if nCorr == 4 {
				m[1], m[2] = 1, 1
			}
			a := cmplx.Abs(I)
			sumI2 += a * a
			n++
		}
		if n > 0 {
			w := vb.WeightMat().Row(row)
			for i := range w {
				w[i] *= sumI2 / float64(n)
			}
		}
	}

	return nil
}
