// SPDX-License-Identifier: MIT

// Package solver: the iteration itself.
// This file defines:
//   - Step, the per-iteration record kept in History,
//   - Solver and Solve, the outer loop with accept/revert bookkeeping,
//   - chi-square, convergence counting, gradient and diagonal Hessian
//     accumulation, the damped step and the line search,
//   - parameter errors and the degrees-of-freedom accessors.
//
// Notes:
//   - Parameters are owned by the term. The solver aliases the in-focus
//     slices for the duration of Solve and drops them on return.
//   - Only the diagonal of the Hessian is formed, one entry per antenna
//     parameter; antennas couple through the residuals alone.
package solver

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/katalvlaran/viscal/visequation"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

const (
	// lmFact divides every Newton step. The damping scalar lambda is kept
	// and reported but does not enter the step.
	lmFact = 2.0

	initLambda = 2.0

	// convergence bookkeeping
	cvrgFrac   = 0.001
	cvrgAbs    = 0.1
	cvrgNeeded = 5

	// line-search bracketing limit per direction
	maxBracket = 30
)

// Step records one outer iteration.
type Step struct {
	Iter      int
	ChiSq     float64
	DChiSq    float64
	Lambda    float64
	CvrgCount int
	Accepted  bool
	StepSize  float64 // line-search multiplier, 1 without line search
}

// chiStats holds one chi-square accumulation.
type chiStats struct {
	chiSq  float64
	chiSqV []float64 // per correlation
	sumWtV []float64
	sumWt  float64
	nWt    int
}

// Solver is reusable across solves but not safe for concurrent use.
type Solver struct {
	opts Options

	// bound for the duration of Solve
	ve    *visequation.VisEquation
	svc   viscal.SolvableVisCal
	sdbs  *sdb.List
	par   []complex128
	parOK []bool
	err   []float64

	nPar, nParAnt int
	lastPar       []complex128
	dpar          []complex128
	grad          []complex128
	hess          []float64

	stats     chiStats
	lastChiSq float64
	nOK       int
	lambda    float64
	cvrgCount int
	history   []Step
}

// New returns a solver.
func New(opts ...Option) *Solver {
	return &Solver{opts: gatherOptions(opts...), lambda: initLambda}
}

// Solve fits svc to sdbs through ve, starting from the parameters already
// loaded in svc. It reports whether any parameter ended up ok.
//
// An iteration whose chi-square does not rise is accepted: its parameters
// become the revert point and the gradient and Hessian are rebuilt from
// its residuals. One that rises is rejected: the parameters go back to the
// revert point exactly and the previous gradient and Hessian are reused.
// Lambda only changes on acceptance.
//
// Errors: ErrNilInput, ErrParShape, ErrZeroChiSq, and whatever the term
// returns from differentiation or UpdatePar.
// Stage 1 (Init): bind parameter storage and reset scratch state.
// Stage 2 (Constrain): drop antennas without enough baselines.
// Stage 3 (Iterate): differentiate, chi-square, convergence test,
// gradient/Hessian, step, optional line search, update.
func (s *Solver) Solve(ve *visequation.VisEquation, svc viscal.SolvableVisCal, sdbs *sdb.List) (bool, error) {
	if ve == nil || svc == nil || sdbs == nil {
		return false, fmt.Errorf("Solver.Solve: %w", ErrNilInput)
	}
	if err := s.initSolve(ve, svc, sdbs); err != nil {
		return false, err
	}
	defer s.release()

	log := s.opts.log.WithField("term", svc.Name())
	if !svc.VerifyConstraints(sdbs) {
		log.WithField("minBlPerAnt", "unmet").Warn("insufficient unflagged baselines, solve skipped")
		return false, nil
	}

	for iter := 1; ; iter++ {
		if err := s.differentiate(); err != nil {
			return false, err
		}
		st, err := s.chiSquare()
		if err != nil {
			return false, err
		}
		if st.chiSq == 0 {
			log.WithField("iter", iter).Error("chi-square is zero")
			return false, fmt.Errorf("Solver.Solve: iteration %d: %w", iter, ErrZeroChiSq)
		}
		s.stats = st
		dChiSq := s.stats.chiSq - s.lastChiSq
		conv := s.converged(dChiSq)
		step := Step{
			Iter: iter, ChiSq: s.stats.chiSq, DChiSq: dChiSq,
			CvrgCount: s.cvrgCount, Accepted: dChiSq <= 0, StepSize: 1,
		}

		if conv {
			s.accGradHess()
			s.getErrors()
			step.Lambda = s.lambda
			s.history = append(s.history, step)
			log.WithFields(logrus.Fields{"iter": iter, "chiSq": s.stats.chiSq, "nOK": s.nOK}).Info("solve converged")

			return s.nOK > 0, nil
		}

		if dChiSq <= 0 {
			s.lastChiSq = s.stats.chiSq
			copy(s.lastPar, s.par)
			s.accGradHess()
			s.lambda = max(s.lambda/2, 1)
		} else {
			copy(s.par, s.lastPar)
			s.stats.chiSq = s.lastChiSq
		}

		s.solveGradHess()
		if s.opts.optStep {
			if step.StepSize, err = s.optStepSize(); err != nil {
				return false, err
			}
		}
		if err = svc.UpdatePar(s.dpar); err != nil {
			return false, fmt.Errorf("Solver.Solve: %w", err)
		}
		step.Lambda = s.lambda
		s.history = append(s.history, step)
		log.WithFields(logrus.Fields{
			"iter": iter, "chiSq": step.ChiSq, "dChiSq": dChiSq,
			"cvrg": s.cvrgCount, "step": step.StepSize,
		}).Debug("solve iteration")

		if iter == s.opts.maxIter {
			s.nOK = cube.CountTrue(s.parOK)
			log.WithFields(logrus.Fields{"maxIter": s.opts.maxIter, "nOK": s.nOK}).Warn("iteration limit reached")

			return s.nOK > 0, nil
		}
	}
}

// initSolve binds the term's parameter storage and sizes the scratch
// vectors.
func (s *Solver) initSolve(ve *visequation.VisEquation, svc viscal.SolvableVisCal, sdbs *sdb.List) error {
	n := svc.NTotalPar()
	par, ok, perr := svc.SolveCPar(), svc.SolveParOK(), svc.SolveParErr()
	if len(par) != n || len(ok) != n || len(perr) != n || svc.NPar() <= 0 {
		return fmt.Errorf("Solver.initSolve: %d/%d/%d values for %d parameters: %w",
			len(par), len(ok), len(perr), n, ErrParShape)
	}
	nCorr, err := sdbs.NCorr()
	if err != nil {
		return fmt.Errorf("Solver.initSolve: %w", err)
	}

	s.ve, s.svc, s.sdbs = ve, svc, sdbs
	s.par, s.parOK, s.err = par, ok, perr
	s.nPar, s.nParAnt = n, svc.NPar()
	s.lastPar = resize(s.lastPar, n)
	s.dpar = resize(s.dpar, n)
	s.grad = resize(s.grad, n)
	s.hess = resize(s.hess, n)
	copy(s.lastPar, par)
	s.stats = chiStats{chiSqV: make([]float64, nCorr), sumWtV: make([]float64, nCorr)}
	s.lastChiSq = math.MaxFloat64
	s.nOK = cube.CountTrue(ok)
	s.lambda = initLambda
	s.cvrgCount = 0
	s.history = s.history[:0]

	return nil
}

// release drops every reference into caller-owned data.
func (s *Solver) release() {
	s.ve, s.svc, s.sdbs = nil, nil, nil
	s.par, s.parOK, s.err = nil, nil, nil
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)

	return s
}

func (s *Solver) differentiate() error {
	for i, sb := range s.sdbs.Buffers() {
		if err := s.ve.Differentiate(sb); err != nil {
			return fmt.Errorf("Solver.differentiate: buffer %d: %w", i, err)
		}
	}

	return nil
}

func (s *Solver) residualate() error {
	for i, sb := range s.sdbs.Buffers() {
		if err := s.ve.Residualate(sb); err != nil {
			return fmt.Errorf("Solver.residualate: buffer %d: %w", i, err)
		}
	}

	return nil
}

// chiSquare sums w·|R|² over unflagged, positively weighted elements of
// the current residuals.
func (s *Solver) chiSquare() (chiStats, error) {
	nCorr := len(s.stats.chiSqV)
	st := chiStats{chiSqV: make([]float64, nCorr), sumWtV: make([]float64, nCorr)}
	for i, sb := range s.sdbs.Buffers() {
		if sb.NCorr() != nCorr {
			return st, fmt.Errorf("Solver.chiSquare: buffer %d has %d correlations, want %d: %w",
				i, sb.NCorr(), nCorr, ErrParShape)
		}
		r, rf, wt := sb.Residuals(), sb.ResidFlagCube(), sb.InfocusWtSpec()
		for row := 0; row < sb.NRow(); row++ {
			if sb.FlagRow()[row] {
				continue
			}
			for ch := 0; ch < sb.NChannel(); ch++ {
				rc, fc, wc := r.Cell(ch, row), rf.Cell(ch, row), wt.Cell(ch, row)
				for corr := range rc {
					if fc[corr] || wc[corr] <= 0 {
						continue
					}
					st.chiSqV[corr] += wc[corr] * abs2(rc[corr])
					st.sumWtV[corr] += wc[corr]
					st.nWt++
				}
			}
		}
	}
	st.chiSq = floats.Sum(st.chiSqV)
	st.sumWt = floats.Sum(st.sumWtV)

	return st, nil
}

// converged updates the convergence counter with dChiSq and reports
// whether it has exceeded the required run of quiet iterations.
//
// A small relative change counts up. A rise of more than a tenth of
// chi-square resets the count; a smaller rise counts down to zero.
func (s *Solver) converged(dChiSq float64) bool {
	chiSq := s.stats.chiSq
	f := dChiSq / chiSq
	switch {
	case f <= cvrgFrac && math.Abs(dChiSq) < cvrgAbs*chiSq:
		s.cvrgCount++
	case dChiSq > cvrgAbs*chiSq:
		s.cvrgCount = 0
	case dChiSq > 0:
		s.cvrgCount = max(s.cvrgCount-1, 0)
	}

	return s.cvrgCount > cvrgNeeded
}

// accGradHess accumulates, per antenna parameter, the gradient
// Σ w·R·conj(dR) (conjugated for the antenna-2 side) and the diagonal
// Hessian Σ w·|dR|² from the current residuals and derivatives.
// Complexity: O(N*nPar).
func (s *Solver) accGradHess() {
	clear(s.grad)
	clear(s.hess)
	np := s.nParAnt
	for _, sb := range s.sdbs.Buffers() {
		r, rf, wt, dr := sb.Residuals(), sb.ResidFlagCube(), sb.InfocusWtSpec(), sb.DiffResiduals()
		a1, a2 := sb.Antenna1(), sb.Antenna2()
		for row := 0; row < sb.NRow(); row++ {
			if sb.FlagRow()[row] || a1[row] == a2[row] {
				continue
			}
			i1, i2 := a1[row]*np, a2[row]*np
			for ch := 0; ch < sb.NChannel(); ch++ {
				rc, fc, wc := r.Cell(ch, row), rf.Cell(ch, row), wt.Cell(ch, row)
				for p := 0; p < np; p++ {
					d1, d2 := dr.Cell(p, ch, row, 0), dr.Cell(p, ch, row, 1)
					for corr := range rc {
						if fc[corr] || wc[corr] <= 0 {
							continue
						}
						w := complex(wc[corr], 0)
						s.grad[i1+p] += w * rc[corr] * cmplx.Conj(d1[corr])
						s.grad[i2+p] += w * cmplx.Conj(rc[corr]) * d2[corr]
						s.hess[i1+p] += wc[corr] * abs2(d1[corr])
						s.hess[i2+p] += wc[corr] * abs2(d2[corr])
					}
				}
			}
		}
	}
}

func abs2(c complex128) float64 { return real(c)*real(c) + imag(c)*imag(c) }

// solveGradHess forms dpar = -grad/hess/lmFact. A parameter with a zero or
// non-finite Hessian gets no step and is marked not ok.
func (s *Solver) solveGradHess() {
	for i := range s.dpar {
		h := s.hess[i]
		if !s.parOK[i] || h == 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			s.dpar[i] = 0
			s.parOK[i] = false
			continue
		}
		s.dpar[i] = -s.grad[i] / complex(h*lmFact, 0)
	}
}

// trialChiSq evaluates chi-square at lastPar + h·dpar.
func (s *Solver) trialChiSq(h float64, scratch []complex128) (float64, error) {
	copy(s.par, s.lastPar)
	for i, d := range s.dpar {
		scratch[i] = d * complex(h, 0)
	}
	if err := s.svc.UpdatePar(scratch); err != nil {
		return 0, fmt.Errorf("Solver.optStepSize: %w", err)
	}
	if err := s.residualate(); err != nil {
		return 0, err
	}
	st, err := s.chiSquare()
	if err != nil {
		return 0, err
	}

	return st.chiSq, nil
}

// optStepSize scales dpar by the multiplier that minimises chi-square
// along it. The parameters sit at lastPar on entry and on return.
// Stage 1 (Bracket): samples at 0, h and 2h; h doubles while the far
// sample keeps improving, or halves until the near sample improves on 0.
// Stage 2 (Fit): vertex of the parabola through the three samples, kept
// only if it beats the best sample.
func (s *Solver) optStepSize() (float64, error) {
	scratch := make([]complex128, len(s.dpar))
	defer copy(s.par, s.lastPar)

	y0 := s.stats.chiSq
	h := 1.0
	y1, err := s.trialChiSq(h, scratch)
	if err != nil {
		return 0, err
	}
	var y2 float64
	if y1 < y0 {
		if y2, err = s.trialChiSq(2*h, scratch); err != nil {
			return 0, err
		}
		for n := 0; y2 < y1 && n < maxBracket; n++ {
			h *= 2
			y1 = y2
			if y2, err = s.trialChiSq(2*h, scratch); err != nil {
				return 0, err
			}
		}
	} else {
		for n := 0; y1 >= y0 && n < maxBracket; n++ {
			y2 = y1
			h /= 2
			if y1, err = s.trialChiSq(h, scratch); err != nil {
				return 0, err
			}
		}
		if y1 >= y0 {
			clear(s.dpar)
			return 0, nil
		}
	}

	best, bestY := h, y1
	if y2 < y1 {
		best, bestY = 2*h, y2
	}
	if den := y0 - 2*y1 + y2; den > 0 {
		t := h * (3*y0 - 4*y1 + y2) / (2 * den)
		if t > 0 && !math.IsInf(t, 0) {
			yt, err := s.trialChiSq(t, scratch)
			if err != nil {
				return 0, err
			}
			if yt < bestY {
				best = t
			}
		}
	}
	for i := range s.dpar {
		s.dpar[i] *= complex(best, 0)
	}

	return best, nil
}

// getErrors sets err = 1/sqrt(hess/k2/2) for ok parameters with positive
// Hessian, k2 = chiSq/nDOF; other errors are zero.
// It also fixes nOK, which NDOF reads.
func (s *Solver) getErrors() {
	s.nOK = cube.CountTrue(s.parOK)
	k2 := s.stats.chiSq / float64(s.NDOF())
	for i := range s.err {
		if !s.parOK[i] || s.hess[i] <= 0 {
			s.err[i] = 0
			continue
		}
		s.err[i] = 1 / math.Sqrt(s.hess[i]/k2/2)
	}
}

// NDOF returns max(2*(nWt - nOK), 1), nOK being the ok parameter count
// last taken by the solve.
func (s *Solver) NDOF() int {
	return max(2*(s.stats.nWt-s.nOK), 1)
}

// ChiSq returns the last accepted chi-square.
func (s *Solver) ChiSq() float64 { return s.stats.chiSq }

// ChiSqV returns the per-correlation chi-square of the last evaluation.
func (s *Solver) ChiSqV() []float64 { return append([]float64(nil), s.stats.chiSqV...) }

// SumWt returns the weight sum of the last evaluation.
func (s *Solver) SumWt() float64 { return s.stats.sumWt }

// NWt returns the number of weighted elements of the last evaluation.
func (s *Solver) NWt() int { return s.stats.nWt }

// Lambda returns the damping scalar.
func (s *Solver) Lambda() float64 { return s.lambda }

// History returns a copy of the iteration records of the last solve.
func (s *Solver) History() []Step { return append([]Step(nil), s.history...) }
