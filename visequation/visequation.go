// SPDX-License-Identifier: MIT

// Package visequation: ordering and application of calibration terms.
// This file defines:
//   - VisEquation with SetApply / SetSolve,
//   - Correct and Corrupt over the applied chain,
//   - Collapse and CollapseForSim, which reduce a buffer to the form the
//     solvable term sees,
//   - Differentiate, Residualate and DiffResiduals, the residual entry
//     points the solver drives.
//
// Notes:
//   - Terms are ordered by Type. Lower types sit closer to the data: they
//     are corrected first and corrupted last.
//   - The solvable term splits the chain. Collapse corrects the data with
//     the terms below it and corrupts the model with the terms at or above it.
package visequation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/sirupsen/logrus"
)

// VisEquation is an ordered chain of applied terms around at most one
// solvable term. It never owns the terms. Not safe for concurrent use.
type VisEquation struct {
	vc  []viscal.VisCal // stably sorted by Type
	svc viscal.SolvableVisCal

	lfd       int // rightmost frequency-dependent term left of svc, -1 if none
	rfd       int // leftmost frequency-dependent term right of svc, len(vc) if none
	freqAveOK bool

	log logrus.FieldLogger
}

// New returns an empty equation.
func New(opts ...Option) *VisEquation {
	o := gatherOptions(opts...)
	return &VisEquation{lfd: -1, log: o.log}
}

// SetApply replaces the applied terms with a stably Type-sorted copy of
// terms. Terms of equal Type keep their input order.
// Complexity: O(n log n).
func (ve *VisEquation) SetApply(terms []viscal.VisCal) {
	ve.vc = append(ve.vc[:0:0], terms...)
	sort.SliceStable(ve.vc, func(i, j int) bool { return ve.vc[i].Type() < ve.vc[j].Type() })
	if ve.svc != nil {
		ve.setFreqDep()
	}
	ve.log.WithField("napply", len(ve.vc)).Debug("apply terms set")
}

// SetSolve designates the solvable term.
func (ve *VisEquation) SetSolve(svc viscal.SolvableVisCal) {
	ve.svc = svc
	ve.setFreqDep()
	ve.log.WithFields(logrus.Fields{
		"solve": svc.Name(), "lfd": ve.lfd, "rfd": ve.rfd, "freqAveOK": ve.freqAveOK,
	}).Debug("solve term set")
}

// setFreqDep locates the frequency-dependent terms nearest to the solvable
// term on either side. Averaging over frequency before the solve is safe
// only when neither the model side nor the solvable term's matrices vary
// with frequency.
func (ve *VisEquation) setFreqDep() {
	napp := len(ve.vc)
	ve.lfd, ve.rfd = -1, napp
	for i, vc := range ve.vc {
		if vc.Type() < ve.svc.Type() {
			if vc.FreqDepMat() {
				ve.lfd = i
			}
			continue
		}
		if vc.FreqDepMat() {
			ve.rfd = i
			break
		}
	}
	ve.freqAveOK = ve.rfd == napp && !ve.svc.FreqDepMat()
}

// NApply returns the number of applied terms.
func (ve *VisEquation) NApply() int { return len(ve.vc) }

// Terms returns the applied terms in sorted order.
func (ve *VisEquation) Terms() []viscal.VisCal {
	return append([]viscal.VisCal(nil), ve.vc...)
}

// Solvable returns the solvable term, or nil.
func (ve *VisEquation) Solvable() viscal.SolvableVisCal { return ve.svc }

// FreqAveOK reports whether Collapse may average over frequency.
func (ve *VisEquation) FreqAveOK() bool { return ve.freqAveOK }

// SpwOK reports whether every applied term accepts spectral window spw.
func (ve *VisEquation) SpwOK(spw int) bool {
	for _, vc := range ve.vc {
		if !vc.SpwOK(spw) {
			return false
		}
	}

	return true
}

// CollapseOrder returns the terms Collapse corrects (in application order)
// and corrupts (in application order, highest Type first), ignoring
// frequency averaging.
func (ve *VisEquation) CollapseOrder() (correct, corrupt []viscal.VisCal, err error) {
	if ve.svc == nil {
		return nil, nil, ErrNoSolve
	}
	for _, vc := range ve.vc {
		if vc.Type() < ve.svc.Type() {
			correct = append(correct, vc)
		}
	}
	for i := len(ve.vc) - 1; i >= 0; i-- {
		if ve.vc[i].Type() >= ve.svc.Type() {
			corrupt = append(corrupt, ve.vc[i])
		}
	}

	return correct, corrupt, nil
}

// sortCorr puts vb in canonical order and returns the matching restore.
func sortCorr(vb *vis.Buffer) func() {
	if vb.Sorted() {
		return func() {}
	}
	vb.SortCorr()

	return vb.UnSortCorr
}

// Correct applies every term's correction to the observed data, lowest
// Type first.
func (ve *VisEquation) Correct(vb *vis.Buffer) error {
	if len(ve.vc) == 0 {
		return fmt.Errorf("VisEquation.Correct: %w", ErrNoApply)
	}
	defer sortCorr(vb)()
	for _, vc := range ve.vc {
		if err := vc.Correct(vb); err != nil {
			return fmt.Errorf("VisEquation.Correct: %w", err)
		}
	}

	return nil
}

// Corrupt applies every term's corruption to the model, highest Type first.
func (ve *VisEquation) Corrupt(vb *vis.Buffer) error {
	if len(ve.vc) == 0 {
		return fmt.Errorf("VisEquation.Corrupt: %w", ErrNoApply)
	}
	defer sortCorr(vb)()
	for i := len(ve.vc) - 1; i >= 0; i-- {
		if err := ve.vc[i].Corrupt(vb); err != nil {
			return fmt.Errorf("VisEquation.Corrupt: %w", err)
		}
	}

	return nil
}

// Collapse prepares vb for solving the solvable term. The buffer is left
// in canonical correlation order.
// Stage 1 (Prepare): canonical order, weights from sigma, optional
// polarization normalisation by the solvable term.
// Stage 2 (Average): when safe and the solvable parameters are not
// frequency dependent, apply the frequency-dependent terms and average
// data and model over channels.
// Stage 3 (Apply): correct the data up to the solvable term and corrupt
// the model down to (and including) its Type.
func (ve *VisEquation) Collapse(vb *vis.Buffer) error {
	if ve.svc == nil {
		return fmt.Errorf("VisEquation.Collapse: %w", ErrNoSolve)
	}
	vb.SortCorr()
	vb.ResetWeightMat()
	if ve.svc.SolvePol() > 0 {
		if err := ve.svc.SetUpForPolSolve(vb); err != nil {
			return fmt.Errorf("VisEquation.Collapse: %w", err)
		}
	}

	napp := len(ve.vc)
	lidx, ridx := 0, napp-1
	if ve.freqAveOK && !ve.svc.FreqDepPar() && vb.NChannel() > 1 {
		for ; lidx <= ve.lfd; lidx++ {
			if err := ve.vc[lidx].Correct(vb); err != nil {
				return fmt.Errorf("VisEquation.Collapse: %w", err)
			}
		}
		for ; ridx >= ve.rfd; ridx-- {
			if err := ve.vc[ridx].Corrupt(vb); err != nil {
				return fmt.Errorf("VisEquation.Collapse: %w", err)
			}
		}
		if err := vb.FreqAveCubes(); err != nil {
			return fmt.Errorf("VisEquation.Collapse: %w", err)
		}
	}

	st := ve.svc.Type()
	for ; lidx < napp && ve.vc[lidx].Type() < st; lidx++ {
		if err := ve.vc[lidx].Correct(vb); err != nil {
			return fmt.Errorf("VisEquation.Collapse: %w", err)
		}
	}
	for ; ridx >= 0 && ve.vc[ridx].Type() >= st; ridx-- {
		if err := ve.vc[ridx].Corrupt(vb); err != nil {
			return fmt.Errorf("VisEquation.Collapse: %w", err)
		}
	}

	return nil
}

// CollapseForSim builds simulated data around pivot: a copy of the model
// is corrupted by every term of Type >= pivot.Type(), the observed cube is
// zeroed and, when pivot is a viscal.NoiseInjector, filled with its noise,
// the terms of lower Type are applied by correction, and the corrupted
// model is added back. Flags raised on the model copy carry over.
func (ve *VisEquation) CollapseForSim(vb *vis.Buffer, pivot viscal.VisCal) error {
	if pivot == nil {
		return fmt.Errorf("VisEquation.CollapseForSim: %w", ErrNoSolve)
	}
	defer sortCorr(vb)()

	pt := pivot.Type()
	work := vb.Clone()
	for i := len(ve.vc) - 1; i >= 0 && ve.vc[i].Type() >= pt; i-- {
		if err := ve.vc[i].Corrupt(work); err != nil {
			return fmt.Errorf("VisEquation.CollapseForSim: %w", err)
		}
	}

	vb.VisCube().Fill(0)
	if ni, ok := pivot.(viscal.NoiseInjector); ok {
		if err := ni.InjectNoise(vb); err != nil {
			return fmt.Errorf("VisEquation.CollapseForSim: %w", err)
		}
	}
	for i := 0; i < len(ve.vc) && ve.vc[i].Type() < pt; i++ {
		if err := ve.vc[i].Correct(vb); err != nil {
			return fmt.Errorf("VisEquation.CollapseForSim: %w", err)
		}
	}

	if err := vb.VisCube().Add(work.ModelVisCube()); err != nil {
		return fmt.Errorf("VisEquation.CollapseForSim: %w", err)
	}
	fl, wfl := vb.FlagCube().Data(), work.FlagCube().Data()
	for i := range fl {
		fl[i] = fl[i] || wfl[i]
	}

	return nil
}

// Differentiate has the solvable term compute trial residuals and their
// derivatives for sb, then subtracts the observed data.
func (ve *VisEquation) Differentiate(sb *sdb.Buffer) error {
	if ve.svc == nil {
		return fmt.Errorf("VisEquation.Differentiate: %w", ErrNoSolve)
	}
	if err := ve.svc.Differentiate(sb); err != nil {
		return fmt.Errorf("VisEquation.Differentiate: %w", err)
	}

	return subtractObs("VisEquation.Differentiate", sb.Residuals(), sb.VisCube())
}

// Residualate is Differentiate without derivatives.
func (ve *VisEquation) Residualate(sb *sdb.Buffer) error {
	if ve.svc == nil {
		return fmt.Errorf("VisEquation.Residualate: %w", ErrNoSolve)
	}
	if err := ve.svc.Residualate(sb); err != nil {
		return fmt.Errorf("VisEquation.Residualate: %w", err)
	}

	return subtractObs("VisEquation.Residualate", sb.Residuals(), sb.VisCube())
}

// DiffResiduals computes residuals r and derivatives dr for a visibility
// buffer into caller-owned containers.
func (ve *VisEquation) DiffResiduals(vb *vis.Buffer, r *cube.Complex, dr *cube.Deriv, flags *cube.Bool) error {
	if ve.svc == nil {
		return fmt.Errorf("VisEquation.DiffResiduals: %w", ErrNoSolve)
	}
	if err := ve.svc.DifferentiateBuffer(vb, r, dr, flags); err != nil {
		return fmt.Errorf("VisEquation.DiffResiduals: %w", err)
	}

	return subtractObs("VisEquation.DiffResiduals", r, vb.VisCube())
}

// Residuals is not provided; use Differentiate or DiffResiduals.
func (ve *VisEquation) Residuals(*vis.Buffer, *cube.Complex, *cube.Bool) error {
	return fmt.Errorf("VisEquation.Residuals: %w", ErrNotImplemented)
}

func subtractObs(op string, r, obs *cube.Complex) error {
	if err := r.Sub(obs); err != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrShapeMismatch, err)
	}

	return nil
}

// State describes the configured ordering. It has no side effects.
func (ve *VisEquation) State() string {
	var b strings.Builder
	fmt.Fprintf(&b, "VisEquation: %d apply term(s)\n", len(ve.vc))
	for i, vc := range ve.vc {
		fmt.Fprintf(&b, "  [%d] %s (type %v, freqDepMat=%t)\n", i, vc.Name(), vc.Type(), vc.FreqDepMat())
	}
	if ve.svc == nil {
		b.WriteString("  solve: none\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  solve: %s (type %v, freqDepPar=%t)\n", ve.svc.Name(), ve.svc.Type(), ve.svc.FreqDepPar())
	fmt.Fprintf(&b, "  lfd=%d rfd=%d freqAveOK=%t\n", ve.lfd, ve.rfd, ve.freqAveOK)
	correct, corrupt, _ := ve.CollapseOrder()
	b.WriteString("  collapse correct:")
	for _, vc := range correct {
		b.WriteString(" " + vc.Name())
	}
	b.WriteString("\n  collapse corrupt:")
	for _, vc := range corrupt {
		b.WriteString(" " + vc.Name())
	}
	b.WriteString("\n")

	return b.String()
}
