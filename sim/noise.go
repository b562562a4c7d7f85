// SPDX-License-Identifier: MIT

package sim

import (
	"math/rand/v2"

	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"gonum.org/v1/gonum/stat/distuv"
)

// Noise is the additive thermal-noise term. It has no matrix form: Correct
// and Corrupt leave the data alone, InjectNoise adds independent Gaussian
// samples of standard deviation sigma to the real and imaginary parts of
// every unflagged cross-correlation element and records sigma in the
// buffer.
type Noise struct {
	sigma float64
	dist  distuv.Normal
}

// NewNoise returns a noise term with a deterministic stream for seed.
func NewNoise(sigma float64, seed uint64) *Noise {
	return &Noise{
		sigma: sigma,
		dist:  distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)},
	}
}

// Name implements viscal.VisCal.
func (n *Noise) Name() string { return "ANoise" }

// Type places noise first in the chain, after Test.
func (n *Noise) Type() viscal.Type { return viscal.ANoise }

// SpwOK accepts every spectral window.
func (n *Noise) SpwOK(int) bool { return true }

// FreqDepMat reports false: the noise level is the same in every channel.
func (n *Noise) FreqDepMat() bool { return false }

// FreqDepPar reports false.
func (n *Noise) FreqDepPar() bool { return false }

// Correct is a no-op; noise cannot be removed.
func (n *Noise) Correct(*vis.Buffer) error { return nil }

// Corrupt is a no-op; CollapseForSim adds noise through InjectNoise.
func (n *Noise) Corrupt(*vis.Buffer) error { return nil }

// Sigma returns the standard deviation per real and imaginary part.
func (n *Noise) Sigma() float64 { return n.sigma }

// InjectNoise implements viscal.NoiseInjector.
func (n *Noise) InjectNoise(vb *vis.Buffer) error {
	if n.sigma <= 0 {
		return nil
	}
	a1, a2 := vb.Antenna1(), vb.Antenna2()
	for row := 0; row < vb.NRow(); row++ {
		if vb.FlagRow()[row] || a1[row] == a2[row] {
			continue
		}
		for ch := 0; ch < vb.NChannel(); ch++ {
			cell := vb.VisCube().Cell(ch, row)
			for i := range cell {
				cell[i] += complex(n.dist.Rand(), n.dist.Rand())
			}
		}
	}
	vb.Sigma().Fill(n.sigma)

	return nil
}
