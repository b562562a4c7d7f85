package visequation_test

import (
	"testing"

	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/katalvlaran/viscal/visequation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTerm records the order in which it is applied.
type fakeTerm struct {
	name   string
	typ    viscal.Type
	fdm    bool
	badSpw int
	calls  *[]string
}

func (f *fakeTerm) Name() string       { return f.name }
func (f *fakeTerm) Type() viscal.Type  { return f.typ }
func (f *fakeTerm) SpwOK(spw int) bool { return spw != f.badSpw }
func (f *fakeTerm) FreqDepMat() bool   { return f.fdm }
func (f *fakeTerm) FreqDepPar() bool   { return f.fdm }

func (f *fakeTerm) Correct(*vis.Buffer) error {
	*f.calls = append(*f.calls, "correct:"+f.name)
	return nil
}

func (f *fakeTerm) Corrupt(*vis.Buffer) error {
	*f.calls = append(*f.calls, "corrupt:"+f.name)
	return nil
}

// noiseTerm adds a constant to the observed data.
type noiseTerm struct{ fakeTerm }

func (n *noiseTerm) InjectNoise(vb *vis.Buffer) error {
	vb.VisCube().Fill(0.5)
	return nil
}

// badShape resizes the residual cube to something the data cannot match.
type badShape struct{ *viscal.Term }

func (b badShape) DifferentiateBuffer(_ *vis.Buffer, r *cube.Complex, _ *cube.Deriv, _ *cube.Bool) error {
	return r.Resize(1, 1, 1)
}

func newFakes(calls *[]string, defs ...interface{}) []viscal.VisCal {
	var out []viscal.VisCal
	for i := 0; i < len(defs); i += 3 {
		out = append(out, &fakeTerm{
			name: defs[i].(string), typ: defs[i+1].(viscal.Type), fdm: defs[i+2].(bool),
			badSpw: -1, calls: calls,
		})
	}

	return out
}

func names(vcs []viscal.VisCal) []string {
	out := make([]string, len(vcs))
	for i, vc := range vcs {
		out[i] = vc.Name()
	}

	return out
}

func pairBuffer(t *testing.T, nCorr, nChan int) *vis.Buffer {
	t.Helper()
	vb, err := vis.New(nCorr, nChan, 3)
	require.NoError(t, err)
	require.NoError(t, vb.SetAntennas([]int{0, 0, 1}, []int{1, 2, 2}))
	vb.ModelVisCube().Fill(1)

	return vb
}

// TestSetApply_StableSort keeps input order among equal types.
func TestSetApply_StableSort(t *testing.T) {
	var calls []string
	ve := visequation.New()
	ve.SetApply(newFakes(&calls,
		"P", viscal.P, false,
		"B1", viscal.B, true,
		"M", viscal.M, false,
		"B2", viscal.B, false,
		"D", viscal.D, false,
	))

	assert.Equal(t, 5, ve.NApply())
	assert.Equal(t, []string{"M", "B1", "B2", "D", "P"}, names(ve.Terms()))
}

// TestCollapseOrder_Invariant verifies the split around the solvable term.
func TestCollapseOrder_Invariant(t *testing.T) {
	var calls []string
	ve := visequation.New()
	ve.SetApply(newFakes(&calls,
		"T", viscal.T, false,
		"KAntPos", viscal.KAntPos, false,
		"G2", viscal.G, false,
		"B", viscal.B, false,
		"D", viscal.D, false,
	))
	svc, err := viscal.NewG(3)
	require.NoError(t, err)

	_, _, err = ve.CollapseOrder()
	require.ErrorIs(t, err, visequation.ErrNoSolve)

	ve.SetSolve(svc)
	correct, corrupt, err := ve.CollapseOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"KAntPos", "B"}, names(correct))
	assert.Equal(t, []string{"T", "D", "G2"}, names(corrupt), "equal type sits on the model side")
	for _, vc := range correct {
		assert.Less(t, vc.Type(), svc.Type())
	}
	for _, vc := range corrupt {
		assert.GreaterOrEqual(t, vc.Type(), svc.Type())
	}
}

// TestCorrectCorrupt_Order verifies direction and the empty-chain error.
func TestCorrectCorrupt_Order(t *testing.T) {
	var calls []string
	ve := visequation.New()
	vb := pairBuffer(t, 2, 1)
	require.ErrorIs(t, ve.Correct(vb), visequation.ErrNoApply)
	require.ErrorIs(t, ve.Corrupt(vb), visequation.ErrNoApply)

	ve.SetApply(newFakes(&calls, "G", viscal.G, false, "B", viscal.B, false, "T", viscal.T, false))
	require.NoError(t, ve.Correct(vb))
	require.NoError(t, ve.Corrupt(vb))
	assert.Equal(t, []string{
		"correct:B", "correct:G", "correct:T",
		"corrupt:T", "corrupt:G", "corrupt:B",
	}, calls)
	assert.False(t, vb.Sorted(), "correlation order is restored")
}

// TestCollapse_FreqAverage applies frequency-dependent terms before averaging.
func TestCollapse_FreqAverage(t *testing.T) {
	var calls []string
	ve := visequation.New()
	ve.SetApply(newFakes(&calls,
		"P", viscal.P, false,
		"B1", viscal.B, true,
		"M", viscal.M, false,
		"B2", viscal.B, false,
		"KAntPos", viscal.KAntPos, false,
		"D", viscal.D, false,
	))
	svc, err := viscal.NewG(3)
	require.NoError(t, err)
	ve.SetSolve(svc)
	assert.True(t, ve.FreqAveOK())

	vb := pairBuffer(t, 2, 4)
	vb.Sigma().Fill(0.5)
	require.NoError(t, ve.Collapse(vb))
	assert.Equal(t, []string{
		"correct:M", "correct:KAntPos", "correct:B1",
		"correct:B2", "corrupt:P", "corrupt:D",
	}, calls)
	assert.Equal(t, 1, vb.NChannel())
	assert.True(t, vb.Sorted())
	assert.Equal(t, 4.0, vb.WeightMat().Data()[0], "weights recomputed from sigma")
}

// TestCollapse_NoAverage covers the cases that forbid averaging.
func TestCollapse_NoAverage(t *testing.T) {
	var calls []string
	ve := visequation.New()
	ve.SetApply(newFakes(&calls, "E", viscal.E, true, "M", viscal.M, false))
	g, err := viscal.NewG(3)
	require.NoError(t, err)
	ve.SetSolve(g)
	assert.False(t, ve.FreqAveOK(), "frequency-dependent model-side term")

	vb := pairBuffer(t, 2, 4)
	require.NoError(t, ve.Collapse(vb))
	assert.Equal(t, 4, vb.NChannel())
	assert.Equal(t, []string{"correct:M", "corrupt:E"}, calls)

	b, err := viscal.NewB(3, 4)
	require.NoError(t, err)
	ve.SetApply(nil)
	ve.SetSolve(b)
	assert.False(t, ve.FreqAveOK(), "frequency-dependent solvable term")
}

// TestCollapse_PolSetup delegates normalisation to the solvable term.
func TestCollapse_PolSetup(t *testing.T) {
	d, err := viscal.NewD(3, viscal.WithSolvePol(1))
	require.NoError(t, err)
	ve := visequation.New()
	ve.SetSolve(d)
	vb := pairBuffer(t, 4, 1)
	vb.ModelVisCube().Fill(2)
	vb.VisCube().Fill(2)

	require.NoError(t, ve.Collapse(vb))
	assert.Equal(t, []complex128{1, 1, 1, 1}, vb.ModelVisCube().Cell(0, 0))
	assert.Equal(t, []complex128{1, 1, 1, 1}, vb.VisCube().Cell(0, 0))
}

// TestCollapse_CorruptsModelWithRealTerm checks model-side corruption values.
func TestCollapse_CorruptsModelWithRealTerm(t *testing.T) {
	tt, err := viscal.NewT(3)
	require.NoError(t, err)
	require.NoError(t, tt.SetPar(0, 1, []complex128{2}))
	g, err := viscal.NewG(3)
	require.NoError(t, err)

	ve := visequation.New()
	ve.SetApply([]viscal.VisCal{tt})
	ve.SetSolve(g)
	vb := pairBuffer(t, 2, 1)
	require.NoError(t, ve.Collapse(vb))
	// rows 0-1, 0-2, 1-2: antenna 1 has gain 2
	assert.Equal(t, []complex128{2, 2, 1, 1, 2, 2}, vb.ModelVisCube().Data())
}

// TestCollapseForSim corrupts the model copy and injects noise at the pivot.
func TestCollapseForSim(t *testing.T) {
	var calls []string
	gains, err := viscal.NewT(3)
	require.NoError(t, err)
	require.NoError(t, gains.SetPar(0, 2, []complex128{1i}))
	noise := &noiseTerm{fakeTerm{name: "noise", typ: viscal.ANoise, badSpw: -1, calls: &calls}}
	left := &fakeTerm{name: "test", typ: viscal.Test, badSpw: -1, calls: &calls}

	ve := visequation.New()
	ve.SetApply([]viscal.VisCal{gains, left})
	vb := pairBuffer(t, 2, 1)
	require.NoError(t, ve.CollapseForSim(vb, noise))

	// row 1-2 and 0-2 carry conj(i) from antenna 2
	assert.Equal(t, []complex128{1.5, 1.5, 0.5 - 1i, 0.5 - 1i, 0.5 - 1i, 0.5 - 1i}, vb.VisCube().Data())
	assert.Equal(t, []complex128{1, 1, 1, 1, 1, 1}, vb.ModelVisCube().Data(), "model itself untouched")
	assert.Equal(t, []string{"correct:test"}, calls)

	require.ErrorIs(t, ve.CollapseForSim(vb, nil), visequation.ErrNoSolve)
}

// TestDifferentiate_SubtractsObserved verifies residual = corrupted model - data.
func TestDifferentiate_SubtractsObserved(t *testing.T) {
	tt, err := viscal.NewT(3)
	require.NoError(t, err)
	require.NoError(t, tt.SetPar(0, 0, []complex128{2}))
	ve := visequation.New()
	vb := pairBuffer(t, 1, 1)
	vb.VisCube().Fill(0.5)
	sb, err := sdb.New(vb, sdb.AllChannels)
	require.NoError(t, err)

	require.ErrorIs(t, ve.Differentiate(sb), visequation.ErrNoSolve)
	require.ErrorIs(t, ve.Residualate(sb), visequation.ErrNoSolve)

	ve.SetSolve(tt)
	require.NoError(t, ve.Differentiate(sb))
	assert.Equal(t, []complex128{1.5, 1.5, 0.5}, sb.Residuals().Data())
	require.NotNil(t, sb.DiffResiduals())

	require.NoError(t, tt.SetPar(0, 0, []complex128{1}))
	require.NoError(t, ve.Residualate(sb))
	assert.Equal(t, []complex128{0.5, 0.5, 0.5}, sb.Residuals().Data())
}

// TestDiffResiduals_VisBuffer covers the buffer overload and shape checks.
func TestDiffResiduals_VisBuffer(t *testing.T) {
	tt, err := viscal.NewT(3)
	require.NoError(t, err)
	ve := visequation.New()
	vb := pairBuffer(t, 2, 1)
	vb.VisCube().Fill(0.25)
	r, err := cube.NewComplex(1, 1, 1)
	require.NoError(t, err)
	dr, err := cube.NewDeriv(1, 1, 1, 1)
	require.NoError(t, err)
	fl, err := cube.NewBool(1, 1, 1)
	require.NoError(t, err)

	require.ErrorIs(t, ve.DiffResiduals(vb, r, dr, fl), visequation.ErrNoSolve)
	ve.SetSolve(tt)
	require.NoError(t, ve.DiffResiduals(vb, r, dr, fl))
	for _, v := range r.Data() {
		assert.Equal(t, complex128(0.75), v)
	}

	ve.SetSolve(badShape{tt})
	err = ve.DiffResiduals(vb, r, dr, fl)
	require.ErrorIs(t, err, visequation.ErrShapeMismatch)
	require.ErrorIs(t, err, cube.ErrDimensionMismatch)

	require.ErrorIs(t, ve.Residuals(vb, r, fl), visequation.ErrNotImplemented)
}

// TestSpwOK_AND combines per-term validity.
func TestSpwOK_AND(t *testing.T) {
	var calls []string
	ve := visequation.New()
	assert.True(t, ve.SpwOK(0))
	fakes := newFakes(&calls, "a", viscal.G, false, "b", viscal.T, false)
	fakes[1].(*fakeTerm).badSpw = 2
	ve.SetApply(fakes)
	assert.True(t, ve.SpwOK(1))
	assert.False(t, ve.SpwOK(2))
}

// TestState lists the ordering without side effects.
func TestState(t *testing.T) {
	var calls []string
	ve := visequation.New()
	assert.Contains(t, ve.State(), "solve: none")
	ve.SetApply(newFakes(&calls, "B", viscal.B, false, "T", viscal.T, false))
	g, err := viscal.NewG(2)
	require.NoError(t, err)
	ve.SetSolve(g)

	s := ve.State()
	assert.Contains(t, s, "solve: G Jones")
	assert.Contains(t, s, "collapse correct: B")
	assert.Contains(t, s, "collapse corrupt: T")
	assert.Empty(t, calls)
}
