// SPDX-License-Identifier: MIT

package viscal

import (
	"fmt"

	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/jones"
	"github.com/katalvlaran/viscal/vis"
)

// Correct applies J1⁻¹·V·J2⁻ᴴ to the observed data of every unflagged
// row. Elements touched by a not-ok matrix entry are flagged.
func (t *Term) Correct(vb *vis.Buffer) error {
	if err := t.apply(vb, vb.VisCube(), true); err != nil {
		return fmt.Errorf("%s.Correct: %w", t.Name(), err)
	}

	return nil
}

// Corrupt applies J1·M·J2ᴴ to the model data of every unflagged row.
func (t *Term) Corrupt(vb *vis.Buffer) error {
	if err := t.apply(vb, vb.ModelVisCube(), false); err != nil {
		return fmt.Errorf("%s.Corrupt: %w", t.Name(), err)
	}

	return nil
}

// parChan maps a data channel onto a parameter channel: a single
// parameter channel broadcasts, otherwise the counts must agree.
func (t *Term) parChan(nChan int) (func(ch int) int, error) {
	switch {
	case t.nChanPar == 1:
		return func(int) int { return 0 }, nil
	case t.nChanPar == nChan:
		return func(ch int) int { return ch }, nil
	}

	return nil, fmt.Errorf("%d data channels for %d parameter channels: %w", nChan, t.nChanPar, ErrChannel)
}

// apply transforms c in place, row by row.
// Stage 1 (Prepare): per parameter channel, build (and for correction
// invert) one Jones per antenna.
// Stage 2 (Execute): sandwich every cell between its antennas' matrices.
// Complexity: O(nChan*nRow) matrix applications.
func (t *Term) apply(vb *vis.Buffer, c *cube.Complex, invert bool) error {
	pc, err := t.parChan(vb.NChannel())
	if err != nil {
		return err
	}
	vt, err := jones.VisTypeFor(vb.NCorr())
	if err != nil {
		return err
	}
	v, err := jones.NewVisVector(vt, true)
	if err != nil {
		return err
	}

	js := make([][]*jones.Jones, t.nChanPar)
	for ch := range js {
		js[ch] = t.jonesFor(ch)
		if invert {
			for _, J := range js[ch] {
				J.Invert()
			}
		}
	}

	a1, a2 := vb.Antenna1(), vb.Antenna2()
	flags := vb.FlagCube()
	for row := 0; row < vb.NRow(); row++ {
		if vb.FlagRow()[row] {
			continue
		}
		if a1[row] >= t.nAnt || a2[row] >= t.nAnt {
			return fmt.Errorf("row %d baseline %d-%d: %w", row, a1[row], a2[row], ErrAntenna)
		}
		for ch := 0; ch < vb.NChannel(); ch++ {
			if err = v.Sync(c.Cell(ch, row), flags.Cell(ch, row)); err != nil {
				return err
			}
			set := js[pc(ch)]
			if err = jones.Apply(set[a1[row]], v, set[a2[row]]); err != nil {
				return err
			}
		}
	}

	return nil
}
