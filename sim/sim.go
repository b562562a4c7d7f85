// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"
	"math/cmplx"

	"github.com/katalvlaran/viscal/config"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/katalvlaran/viscal/visequation"
	"github.com/sirupsen/logrus"
	"github.com/soniakeys/unit"
)

// Simulator turns a scenario into visibility buffers.
type Simulator struct {
	sc   *config.Scenario
	opts Options
}

// New validates sc and returns a simulator for it.
func New(sc *config.Scenario, opts ...Option) (*Simulator, error) {
	if sc == nil {
		return nil, fmt.Errorf("sim.New: nil scenario: %w", config.ErrInvalid)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}

	return &Simulator{sc: sc, opts: gatherOptions(opts...)}, nil
}

// Gains returns the true electronic gains as a G term.
func (s *Simulator) Gains() (*viscal.Term, error) {
	g, err := viscal.NewG(s.sc.NAnt(), viscal.WithName("true G"))
	if err != nil {
		return nil, err
	}
	for a, ant := range s.sc.Antennas {
		if err = g.SetPar(0, a, []complex128{ant.Gain(0), ant.Gain(1)}); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// Bandpass returns the true bandpass, unit amplitude with a per-antenna
// phase slope across channels, or nil when no antenna has a slope.
func (s *Simulator) Bandpass() (*viscal.Term, error) {
	if !s.sc.HasBandpass() {
		return nil, nil
	}
	nChan := s.sc.Observation.Channels
	b, err := viscal.NewB(s.sc.NAnt(), nChan, viscal.WithName("true B"))
	if err != nil {
		return nil, err
	}
	for a, ant := range s.sc.Antennas {
		for ch := 0; ch < nChan; ch++ {
			p := cmplx.Rect(1, unit.AngleFromDeg(ant.SlopeDeg*float64(ch)).Rad())
			if err = b.SetPar(ch, a, []complex128{p, p}); err != nil {
				return nil, err
			}
		}
	}

	return b, nil
}

// TrueTerms returns every corrupting term of the scenario.
func (s *Simulator) TrueTerms() ([]viscal.VisCal, error) {
	g, err := s.Gains()
	if err != nil {
		return nil, err
	}
	terms := []viscal.VisCal{g}
	b, err := s.Bandpass()
	if err != nil {
		return nil, err
	}
	if b != nil {
		terms = append(terms, b)
	}

	return terms, nil
}

// Baselines returns every antenna pair a1 < a2 in row order.
func Baselines(nAnt int) (ant1, ant2 []int) {
	for a := 0; a < nAnt; a++ {
		for b := a + 1; b < nAnt; b++ {
			ant1 = append(ant1, a)
			ant2 = append(ant2, b)
		}
	}

	return ant1, ant2
}

// Run simulates every integration, one buffer each.
// Stage 1 (Prepare): true terms, noise term and equation.
// Stage 2 (Execute): per integration, model buffer then CollapseForSim.
// Complexity: O(nInt*nBl*nChan*nCorr).
func (s *Simulator) Run() ([]*vis.Buffer, error) {
	terms, err := s.TrueTerms()
	if err != nil {
		return nil, fmt.Errorf("Simulator.Run: %w", err)
	}
	o := s.sc.Observation
	noise := NewNoise(o.Noise, o.Seed)
	ve := visequation.New(visequation.WithLogger(s.opts.log))
	ve.SetApply(terms)

	out := make([]*vis.Buffer, 0, o.Integrations)
	for k := 0; k < o.Integrations; k++ {
		vb, err := s.modelBuffer(k)
		if err != nil {
			return nil, fmt.Errorf("Simulator.Run: integration %d: %w", k, err)
		}
		if err = ve.CollapseForSim(vb, noise); err != nil {
			return nil, fmt.Errorf("Simulator.Run: integration %d: %w", k, err)
		}
		vb.ResetWeightMat()
		out = append(out, vb)
	}
	s.opts.log.WithFields(logrus.Fields{
		"scenario": s.sc.Name, "integrations": len(out), "nAnt": s.sc.NAnt(),
		"corrs": o.Corrs, "channels": o.Channels, "noise": o.Noise,
	}).Info("simulation done")

	return out, nil
}

// modelBuffer lays out integration k with the unpolarized point-source
// model on the parallel hands.
func (s *Simulator) modelBuffer(k int) (*vis.Buffer, error) {
	o := s.sc.Observation
	ant1, ant2 := Baselines(s.sc.NAnt())
	vb, err := vis.New(o.Corrs, o.Channels, len(ant1))
	if err != nil {
		return nil, err
	}
	if err = vb.SetAntennas(ant1, ant2); err != nil {
		return nil, err
	}
	t := float64(k) * o.IntTime
	for row := range vb.Time() {
		vb.Time()[row] = t
	}
	for ch := range vb.Frequency() {
		vb.Frequency()[ch] = o.FreqStart + float64(ch)*o.FreqStep
	}

	flux := complex(o.Flux, 0)
	last := o.Corrs - 1
	for row := 0; row < vb.NRow(); row++ {
		for ch := 0; ch < vb.NChannel(); ch++ {
			m := vb.ModelVisCube().Cell(ch, row)
			m[0], m[last] = flux, flux
		}
	}

	return vb, nil
}
