package solver_test

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"testing"

	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/solver"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/katalvlaran/viscal/visequation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noise = 1e-7

// wrongShape reports one parameter more than it stores.
type wrongShape struct{ *viscal.Term }

func (w wrongShape) NTotalPar() int { return w.Term.NTotalPar() + 1 }

// overshoot multiplies the first parameter update by factor and records
// the parameters in place before every update.
type overshoot struct {
	*viscal.Term
	factor float64
	before [][]complex128
}

func (o *overshoot) UpdatePar(dpar []complex128) error {
	o.before = append(o.before, append([]complex128(nil), o.SolveCPar()...))
	if len(o.before) == 1 {
		for i := range dpar {
			dpar[i] *= complex(o.factor, 0)
		}
	}

	return o.Term.UpdatePar(dpar)
}

func polar(amp, deg float64) complex128 {
	return cmplx.Rect(amp, deg*math.Pi/180)
}

// simulate builds one buffer with unit model and data g[a1]·conj(g[a2])
// plus seeded Gaussian noise on every correlation.
func simulate(t *testing.T, gains []complex128, ant1, ant2 []int, nCorr int, sigma float64) *sdb.List {
	t.Helper()
	vb, err := vis.New(nCorr, 1, len(ant1))
	require.NoError(t, err)
	require.NoError(t, vb.SetAntennas(ant1, ant2))
	vb.ModelVisCube().Fill(1)
	r := rand.New(rand.NewPCG(7, 11))
	for row := range ant1 {
		cell := vb.VisCube().Cell(0, row)
		for i := range cell {
			n := complex(sigma*r.NormFloat64(), sigma*r.NormFloat64())
			cell[i] = gains[ant1[row]]*cmplx.Conj(gains[ant2[row]]) + n
		}
	}
	list, err := sdb.FromVisBuffers([]*vis.Buffer{vb}, sdb.AllChannels)
	require.NoError(t, err)

	return list
}

func threeAntGains() []complex128 {
	return []complex128{1, polar(0.9, 10), polar(1.1, -5)}
}

func solveT(t *testing.T, nAnt int, list *sdb.List, sopts []solver.Option, topts ...viscal.Option) (*viscal.Term, *solver.Solver, bool, error) {
	t.Helper()
	term, err := viscal.NewT(nAnt, topts...)
	require.NoError(t, err)
	ve := visequation.New()
	ve.SetSolve(term)
	s := solver.New(sopts...)
	ok, err := s.Solve(ve, term, list)

	return term, s, ok, err
}

// TestSolve_EndToEnd recovers three scalar gains up to the reference phase.
func TestSolve_EndToEnd(t *testing.T) {
	gains := threeAntGains()
	list := simulate(t, gains, []int{0, 0, 1}, []int{1, 2, 2}, 2, noise)

	term, s, ok, err := solveT(t, 3, list, []solver.Option{solver.WithMaxIter(100)}, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, term.ReReference(0))

	for a, want := range gains {
		got, err := term.Par(0, a)
		require.NoError(t, err)
		assert.InDelta(t, cmplx.Abs(want), cmplx.Abs(got[0]), 1e-6, "amplitude of antenna %d", a)
		assert.InDelta(t, cmplx.Phase(want), cmplx.Phase(got[0]), 1e-6, "phase of antenna %d", a)

		pok, err := term.ParOK(0, a)
		require.NoError(t, err)
		assert.True(t, pok[0])
		perr, err := term.ParErr(0, a)
		require.NoError(t, err)
		assert.Greater(t, perr[0], 0.0)
	}
	assert.Less(t, len(s.History()), 100, "converged before the limit")
	assert.Equal(t, 6, s.NWt())
	assert.Equal(t, 6, s.NDOF(), "2*(6 weighted - 3 ok)")
	assert.Greater(t, s.ChiSq(), 0.0)
	assert.Len(t, s.ChiSqV(), 2)
	assert.InDelta(t, 6.0, s.SumWt(), 1e-12)
}

// TestSolve_AntennaPair converges to the true gain ratio.
func TestSolve_AntennaPair(t *testing.T) {
	gains := []complex128{1, polar(0.8, 17)}
	list := simulate(t, gains, []int{0, 0}, []int{1, 1}, 2, noise)

	term, s, ok, err := solveT(t, 2, list, nil, viscal.WithMinBlPerAnt(1))
	require.NoError(t, err)
	require.True(t, ok)

	p0, err := term.Par(0, 0)
	require.NoError(t, err)
	p1, err := term.Par(0, 1)
	require.NoError(t, err)
	got := p0[0] * cmplx.Conj(p1[0])
	want := gains[0] * cmplx.Conj(gains[1])
	assert.InDelta(t, 0, cmplx.Abs(got-want), 1e-6)
	assert.LessOrEqual(t, len(s.History()), 15)
}

// TestSolve_NoOptStep converges with plain half steps.
func TestSolve_NoOptStep(t *testing.T) {
	gains := threeAntGains()
	list := simulate(t, gains, []int{0, 0, 1}, []int{1, 2, 2}, 1, noise)

	term, s, ok, err := solveT(t, 3, list,
		[]solver.Option{solver.WithMaxIter(200), solver.WithOptStep(false)}, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, term.ReReference(0))
	p2, err := term.Par(0, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(p2[0]-gains[2]), 1e-6)
	for _, st := range s.History() {
		assert.Equal(t, 1.0, st.StepSize)
	}
}

// TestSolve_History checks accepted chi-square never rises and lambda
// stays at or above one.
func TestSolve_History(t *testing.T) {
	list := simulate(t, threeAntGains(), []int{0, 0, 1}, []int{1, 2, 2}, 2, noise)
	_, s, ok, err := solveT(t, 3, list, []solver.Option{solver.WithMaxIter(100)}, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	require.True(t, ok)

	h := s.History()
	require.NotEmpty(t, h)
	assert.True(t, h[0].Accepted)
	last := math.Inf(1)
	for i, st := range h {
		assert.Equal(t, i+1, st.Iter)
		assert.GreaterOrEqual(t, st.Lambda, 1.0)
		if st.Accepted {
			assert.LessOrEqual(t, st.ChiSq, last)
			last = st.ChiSq
		}
	}
	assert.Greater(t, h[len(h)-1].CvrgCount, 5)
	assert.Equal(t, 1.0, s.Lambda())
}

// TestSolve_Revert rejects an iteration that raises chi-square and
// restores the last accepted parameters before the next step.
func TestSolve_Revert(t *testing.T) {
	gains := threeAntGains()
	list := simulate(t, gains, []int{0, 0, 1}, []int{1, 2, 2}, 2, noise)
	term, err := viscal.NewT(3, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	svc := &overshoot{Term: term, factor: 25}
	ve := visequation.New()
	ve.SetSolve(svc)

	s := solver.New(solver.WithMaxIter(200), solver.WithOptStep(false))
	ok, err := s.Solve(ve, svc, list)
	require.NoError(t, err)
	require.True(t, ok)

	h := s.History()
	require.GreaterOrEqual(t, len(h), 3)
	require.GreaterOrEqual(t, len(svc.before), 2)
	assert.True(t, h[0].Accepted)
	assert.False(t, h[1].Accepted)
	assert.Greater(t, h[1].ChiSq, h[0].ChiSq)
	assert.Greater(t, h[1].DChiSq, 0.0)
	assert.Equal(t, 0, h[1].CvrgCount)
	assert.Equal(t, h[0].Lambda, h[1].Lambda, "lambda unchanged on a rejected step")
	assert.True(t, h[2].Accepted)
	assert.Less(t, h[2].ChiSq, h[0].ChiSq)
	assert.Equal(t, svc.before[0], svc.before[1], "parameters restored exactly")

	require.NoError(t, term.ReReference(0))
	for a, want := range gains {
		got, err := term.Par(0, a)
		require.NoError(t, err)
		assert.InDelta(t, 0, cmplx.Abs(got[0]-want), 1e-6, "antenna %d", a)
	}
}

// TestSolve_IterationLimit reports ok parameters without converging.
func TestSolve_IterationLimit(t *testing.T) {
	list := simulate(t, threeAntGains(), []int{0, 0, 1}, []int{1, 2, 2}, 2, noise)
	_, s, ok, err := solveT(t, 3, list, []solver.Option{solver.WithMaxIter(3)}, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, s.History(), 3)
}

// TestSolve_InsufficientData returns false and leaves parameters alone.
func TestSolve_InsufficientData(t *testing.T) {
	list := simulate(t, []complex128{1, 2}, []int{0}, []int{1}, 1, noise)
	term, err := viscal.NewT(2)
	require.NoError(t, err)
	require.NoError(t, term.SetPar(0, 1, []complex128{0.5 + 0.5i}))
	before := append([]complex128(nil), term.SolveCPar()...)

	ve := visequation.New()
	ve.SetSolve(term)
	s := solver.New()
	ok, err := s.Solve(ve, term, list)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, term.SolveCPar())
	assert.Empty(t, s.History())
	assert.Equal(t, 1, s.NDOF(), "floored at one")
}

// TestSolve_FlaggedAntenna drops an antenna with no usable baselines.
func TestSolve_FlaggedAntenna(t *testing.T) {
	gains := append(threeAntGains(), polar(1.3, 40))
	ant1 := []int{0, 0, 1, 0, 1, 2}
	ant2 := []int{1, 2, 2, 3, 3, 3}
	vb, err := vis.New(2, 1, len(ant1))
	require.NoError(t, err)
	require.NoError(t, vb.SetAntennas(ant1, ant2))
	vb.ModelVisCube().Fill(1)
	r := rand.New(rand.NewPCG(3, 5))
	for row := range ant1 {
		cell := vb.VisCube().Cell(0, row)
		for i := range cell {
			cell[i] = gains[ant1[row]]*cmplx.Conj(gains[ant2[row]]) +
				complex(noise*r.NormFloat64(), noise*r.NormFloat64())
		}
		vb.FlagRow()[row] = ant2[row] == 3
	}
	list, err := sdb.FromVisBuffers([]*vis.Buffer{vb}, sdb.AllChannels)
	require.NoError(t, err)

	term, s, ok, err := solveT(t, 4, list, []solver.Option{solver.WithMaxIter(100)}, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	require.True(t, ok)

	nOK := 0
	for _, v := range term.SolveParOK() {
		if v {
			nOK++
		}
	}
	assert.Equal(t, 3, nOK)
	assert.Equal(t, 6, s.NWt(), "flagged rows carry no weight")
	assert.Equal(t, max(2*(s.NWt()-nOK), 1), s.NDOF())
	assert.Equal(t, 6, s.NDOF())

	pok, err := term.ParOK(0, 3)
	require.NoError(t, err)
	assert.False(t, pok[0])
	p3, err := term.Par(0, 3)
	require.NoError(t, err)
	assert.Equal(t, complex128(1), p3[0], "untouched")

	require.NoError(t, term.ReReference(0))
	p1, err := term.Par(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, cmplx.Abs(p1[0]-gains[1]), 1e-6)
}

// TestSolve_ZeroChiSq aborts when the model already fits exactly.
func TestSolve_ZeroChiSq(t *testing.T) {
	list := simulate(t, []complex128{1, 1, 1}, []int{0, 0, 1}, []int{1, 2, 2}, 2, 0)
	_, _, ok, err := solveT(t, 3, list, nil, viscal.WithMinBlPerAnt(2))
	require.ErrorIs(t, err, solver.ErrZeroChiSq)
	assert.False(t, ok)
}

// TestSolve_ParShape rejects storage that disagrees with NTotalPar.
func TestSolve_ParShape(t *testing.T) {
	list := simulate(t, threeAntGains(), []int{0, 0, 1}, []int{1, 2, 2}, 2, noise)
	term, err := viscal.NewT(3, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	bad := wrongShape{term}
	ve := visequation.New()
	ve.SetSolve(bad)

	ok, err := solver.New().Solve(ve, bad, list)
	require.ErrorIs(t, err, solver.ErrParShape)
	assert.False(t, ok)
}

// TestSolve_NilInput covers missing collaborators and empty lists.
func TestSolve_NilInput(t *testing.T) {
	term, err := viscal.NewT(2)
	require.NoError(t, err)
	ve := visequation.New()
	s := solver.New()

	_, err = s.Solve(nil, term, sdb.NewList())
	require.ErrorIs(t, err, solver.ErrNilInput)
	_, err = s.Solve(ve, nil, sdb.NewList())
	require.ErrorIs(t, err, solver.ErrNilInput)
	_, err = s.Solve(ve, term, nil)
	require.ErrorIs(t, err, solver.ErrNilInput)
	_, err = s.Solve(ve, term, sdb.NewList())
	require.ErrorIs(t, err, sdb.ErrEmptyList)
}

// TestOptions_Panics verifies option validation.
func TestOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { solver.WithMaxIter(0) })
	assert.Panics(t, func() { solver.WithLogger(nil) })
	assert.NotPanics(t, func() { solver.New(solver.WithMaxIter(1), solver.WithOptStep(false)) })
}
