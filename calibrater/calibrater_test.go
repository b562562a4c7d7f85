package calibrater_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/viscal/calibrater"
	"github.com/katalvlaran/viscal/config"
	"github.com/katalvlaran/viscal/sim"
	"github.com/katalvlaran/viscal/solver"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario(chans, ints int, noise float64) *config.Scenario {
	return &config.Scenario{
		Name: "calibrater",
		Antennas: []config.Antenna{
			{Amp: 1},
			{Amp: 0.9, PhaseDeg: 10, AmpY: 0.8, PhaseYDeg: 20},
			{Amp: 1.1, PhaseDeg: -5},
		},
		Observation: config.Observation{
			Corrs: 2, Channels: chans, Integrations: ints, IntTime: 10,
			FreqStart: 1e9, FreqStep: 1e6, Flux: 2, Noise: noise, Seed: 5,
		},
		Solve: config.Solve{Type: "G", Interval: 2, MinBlPerAnt: 2, MaxIter: 100},
	}
}

func simulate(t *testing.T, sc *config.Scenario) (*sim.Simulator, []*vis.Buffer) {
	t.Helper()
	s, err := sim.New(sc)
	require.NoError(t, err)
	vbs, err := s.Run()
	require.NoError(t, err)

	return s, vbs
}

func maxIter() calibrater.Option {
	return calibrater.WithSolverOptions(solver.WithMaxIter(100))
}

// TestIntervals groups consecutive buffers.
func TestIntervals(t *testing.T) {
	vbs := make([]*vis.Buffer, 5)
	groups, err := calibrater.Intervals(vbs, 2)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[2], 1)

	_, err = calibrater.Intervals(vbs, 0)
	require.ErrorIs(t, err, calibrater.ErrInterval)
	_, err = calibrater.Intervals(nil, 1)
	require.ErrorIs(t, err, calibrater.ErrNoData)
}

// TestSolve_Gains recovers the simulated gains of every interval.
func TestSolve_Gains(t *testing.T) {
	sc := scenario(4, 4, 1e-6)
	_, vbs := simulate(t, sc)
	before := vbs[0].VisCube().Clone()

	proto, err := viscal.NewG(3, viscal.WithMinBlPerAnt(2), viscal.WithRefAnt(0))
	require.NoError(t, err)
	protoPar := append([]complex128(nil), proto.SolveCPar()...)
	protoOK := append([]bool(nil), proto.SolveParOK()...)
	res, err := calibrater.New(maxIter()).Solve(context.Background(), proto, nil, vbs, 2)
	require.NoError(t, err)

	assert.Equal(t, before.Data(), vbs[0].VisCube().Data(), "input untouched")
	require.Len(t, res.Intervals, 2)
	assert.Equal(t, 5.0, res.Intervals[0].Time)
	assert.Equal(t, 25.0, res.Intervals[1].Time)

	tab := res.Table
	require.NoError(t, tab.Validate())
	assert.Equal(t, "G", tab.Type)
	assert.Equal(t, 0, tab.RefAnt)
	require.Len(t, tab.Rows, 6)
	for _, ir := range res.Intervals {
		assert.False(t, ir.Flagged())
		require.Len(t, ir.Solves, 1)
		assert.True(t, ir.Solves[0].OK)
		assert.NotEmpty(t, ir.Solves[0].History)
	}

	for interval := 0; interval < 2; interval++ {
		for a, ant := range sc.Antennas {
			row, err := tab.Lookup(interval, 0, a)
			require.NoError(t, err)
			assert.True(t, row.Good())
			wantAmpY, wantPhY := ant.AmpY, ant.PhaseYDeg
			if wantAmpY == 0 {
				wantAmpY, wantPhY = ant.Amp, ant.PhaseDeg
			}
			assert.InDelta(t, ant.Amp, row.Amp[0], 1e-4, "antenna %d", a)
			assert.InDelta(t, ant.PhaseDeg, row.PhaseDeg[0], 1e-3, "antenna %d", a)
			assert.InDelta(t, wantAmpY, row.Amp[1], 1e-4, "antenna %d", a)
			assert.InDelta(t, wantPhY, row.PhaseDeg[1], 1e-3, "antenna %d", a)
		}
	}
	assert.Equal(t, protoPar, proto.SolveCPar(), "prototype parameters untouched")
	assert.Equal(t, protoOK, proto.SolveParOK(), "prototype flags untouched")
}

// TestSolve_Bandpass solves channel by channel with the true gains applied.
func TestSolve_Bandpass(t *testing.T) {
	sc := scenario(3, 2, 1e-6)
	sc.Antennas[1].SlopeDeg = 3
	sc.Antennas[2].SlopeDeg = -2
	s, vbs := simulate(t, sc)
	g, err := s.Gains()
	require.NoError(t, err)

	proto, err := viscal.NewB(3, 3, viscal.WithMinBlPerAnt(2), viscal.WithRefAnt(0))
	require.NoError(t, err)
	res, err := calibrater.New(maxIter(), calibrater.WithParallel(1)).
		Solve(context.Background(), proto, []viscal.VisCal{g}, vbs, 2)
	require.NoError(t, err)

	require.Len(t, res.Intervals, 1)
	require.Len(t, res.Intervals[0].Solves, 3)
	require.Len(t, res.Table.Rows, 9)
	for ch := 0; ch < 3; ch++ {
		assert.Equal(t, ch, res.Intervals[0].Solves[ch].Channel)
		for a, ant := range sc.Antennas {
			row, err := res.Table.Lookup(0, ch, a)
			require.NoError(t, err)
			assert.InDelta(t, 1, row.Amp[0], 1e-4)
			assert.InDelta(t, ant.SlopeDeg*float64(ch), row.PhaseDeg[0], 1e-3, "antenna %d channel %d", a, ch)
			assert.InDelta(t, ant.SlopeDeg*float64(ch), row.PhaseDeg[1], 1e-3, "antenna %d channel %d", a, ch)
		}
	}
}

// TestSolve_FlaggedIntervals stores insufficient and exact-fit intervals
// as flagged rows.
func TestSolve_FlaggedIntervals(t *testing.T) {
	_, vbs := simulate(t, scenario(1, 1, 1e-6))
	proto, err := viscal.NewG(3)
	require.NoError(t, err)
	res, err := calibrater.New().Solve(context.Background(), proto, nil, vbs, 1)
	require.NoError(t, err)
	assert.True(t, res.Intervals[0].Flagged(), "two baselines per antenna, four needed")
	for _, row := range res.Table.Rows {
		assert.Equal(t, []bool{true, true}, row.Flag)
	}

	sc := scenario(1, 1, 0)
	for i := range sc.Antennas {
		sc.Antennas[i] = config.Antenna{Amp: 1}
	}
	_, vbs = simulate(t, sc)
	proto, err = viscal.NewG(3, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	res, err = calibrater.New().Solve(context.Background(), proto, nil, vbs, 1)
	require.NoError(t, err)
	assert.True(t, res.Intervals[0].Solves[0].ZeroChiSq)
	assert.True(t, res.Intervals[0].Flagged())
	assert.False(t, res.Table.Rows[0].Good())
}

// TestSolve_ParallelDeterministic gives the same rows at any parallelism.
func TestSolve_ParallelDeterministic(t *testing.T) {
	_, vbs := simulate(t, scenario(2, 6, 1e-6))
	proto, err := viscal.NewT(3, viscal.WithMinBlPerAnt(2), viscal.WithRefAnt(1))
	require.NoError(t, err)

	serial, err := calibrater.New(maxIter(), calibrater.WithParallel(1)).Solve(context.Background(), proto, nil, vbs, 1)
	require.NoError(t, err)
	parallel, err := calibrater.New(maxIter()).Solve(context.Background(), proto, nil, vbs, 1)
	require.NoError(t, err)

	assert.Equal(t, serial.Table.Rows, parallel.Table.Rows)
	assert.NotEqual(t, serial.Table.ID, parallel.Table.ID)
	assert.Equal(t, 6, serial.Table.NInterval())
}

// TestSolve_Errors covers bad inputs and cancellation.
func TestSolve_Errors(t *testing.T) {
	_, vbs := simulate(t, scenario(4, 2, 1e-6))
	c := calibrater.New()
	ctx := context.Background()

	_, err := c.Solve(ctx, nil, nil, vbs, 1)
	require.ErrorIs(t, err, calibrater.ErrNilTerm)

	g, err := viscal.NewG(3, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	_, err = c.Solve(ctx, g, nil, nil, 1)
	require.ErrorIs(t, err, calibrater.ErrNoData)
	_, err = c.Solve(ctx, g, nil, vbs, 0)
	require.ErrorIs(t, err, calibrater.ErrInterval)

	b, err := viscal.NewB(3, 3, viscal.WithMinBlPerAnt(2))
	require.NoError(t, err)
	_, err = c.Solve(ctx, b, nil, vbs, 1)
	require.ErrorIs(t, err, calibrater.ErrChannels)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.Solve(cancelled, g, nil, vbs, 1)
	require.ErrorIs(t, err, context.Canceled)
}

// TestOptions_Panics verifies option validation.
func TestOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { calibrater.WithParallel(-1) })
	assert.Panics(t, func() { calibrater.WithLogger(nil) })
	assert.NotPanics(t, func() { calibrater.New(calibrater.WithParallel(0)) })
}
