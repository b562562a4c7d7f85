package sim_test

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/katalvlaran/viscal/config"
	"github.com/katalvlaran/viscal/sim"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario(corrs, chans, ints int, noise float64) *config.Scenario {
	return &config.Scenario{
		Name: "test",
		Antennas: []config.Antenna{
			{Amp: 1},
			{Amp: 0.9, PhaseDeg: 10, AmpY: 0.8, PhaseYDeg: 20},
			{Amp: 1.1, PhaseDeg: -5},
		},
		Observation: config.Observation{
			Corrs: corrs, Channels: chans, Integrations: ints, IntTime: 10,
			FreqStart: 1e9, FreqStep: 1e6, Flux: 2, Noise: noise, Seed: 9,
		},
		Solve: config.Solve{Type: "G", Interval: 1, MinBlPerAnt: 2, MaxIter: 50},
	}
}

// TestBaselines enumerates pairs in row order.
func TestBaselines(t *testing.T) {
	a1, a2 := sim.Baselines(4)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 2}, a1)
	assert.Equal(t, []int{1, 2, 3, 2, 3, 3}, a2)
}

// TestRun_Noiseless reproduces g1·M·conj(g2) per polarization.
func TestRun_Noiseless(t *testing.T) {
	sc := scenario(4, 1, 2, 0)
	s, err := sim.New(sc)
	require.NoError(t, err)
	vbs, err := s.Run()
	require.NoError(t, err)
	require.Len(t, vbs, 2)
	assert.Equal(t, 10.0, vbs[1].Time()[0])

	for _, vb := range vbs {
		require.Equal(t, 3, vb.NRow())
		for row := 0; row < vb.NRow(); row++ {
			a, b := sc.Antennas[vb.Antenna1()[row]], sc.Antennas[vb.Antenna2()[row]]
			cell := vb.VisCube().Cell(0, row)
			wantXX := 2 * a.Gain(0) * cmplx.Conj(b.Gain(0))
			wantYY := 2 * a.Gain(1) * cmplx.Conj(b.Gain(1))
			assert.InDelta(t, 0, cmplx.Abs(cell[0]-wantXX), 1e-12)
			assert.InDelta(t, 0, cmplx.Abs(cell[3]-wantYY), 1e-12)
			assert.Equal(t, complex128(0), cell[1])
			assert.Equal(t, complex128(0), cell[2])
			assert.Equal(t, []complex128{2, 0, 0, 2}, vb.ModelVisCube().Cell(0, row), "model kept")
		}
		assert.Equal(t, 1.0, vb.WeightMat().Data()[0])
	}
}

// TestRun_Bandpass adds the per-channel phase slope difference.
func TestRun_Bandpass(t *testing.T) {
	sc := scenario(1, 4, 1, 0)
	sc.Antennas[1].SlopeDeg = 3
	s, err := sim.New(sc)
	require.NoError(t, err)

	b, err := s.Bandpass()
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, viscal.B, b.Type())
	terms, err := s.TrueTerms()
	require.NoError(t, err)
	assert.Len(t, terms, 2)

	vbs, err := s.Run()
	require.NoError(t, err)
	vb := vbs[0]
	assert.Equal(t, []float64{1e9, 1.001e9, 1.002e9, 1.003e9}, vb.Frequency())
	g0, g1 := sc.Antennas[0].Gain(0), sc.Antennas[1].Gain(0)
	for ch := 0; ch < 4; ch++ {
		bp := cmplx.Rect(1, 3*float64(ch)*math.Pi/180)
		want := 2 * g0 * cmplx.Conj(g1*bp)
		assert.InDelta(t, 0, cmplx.Abs(vb.VisCube().Cell(ch, 0)[0]-want), 1e-12, "channel %d", ch)
	}
}

// TestRun_NoBandpass returns no bandpass term without slopes.
func TestRun_NoBandpass(t *testing.T) {
	s, err := sim.New(scenario(2, 2, 1, 0))
	require.NoError(t, err)
	b, err := s.Bandpass()
	require.NoError(t, err)
	assert.Nil(t, b)
}

// TestRun_NoiseSeeded checks determinism, recorded sigma and spread.
func TestRun_NoiseSeeded(t *testing.T) {
	const sigma = 0.01
	run := func(seed uint64) []*vis.Buffer {
		sc := scenario(2, 8, 50, sigma)
		sc.Observation.Seed = seed
		s, err := sim.New(sc)
		require.NoError(t, err)
		vbs, err := s.Run()
		require.NoError(t, err)
		return vbs
	}
	a, b, c := run(1), run(1), run(2)
	assert.Equal(t, a[3].VisCube().Data(), b[3].VisCube().Data())
	assert.NotEqual(t, a[3].VisCube().Data(), c[3].VisCube().Data())

	s, err := sim.New(scenario(2, 8, 50, 0))
	require.NoError(t, err)
	clean, err := s.Run()
	require.NoError(t, err)

	var sum2 float64
	n := 0
	for k := range a {
		d, m := a[k].VisCube().Data(), clean[k].VisCube().Data()
		for i := range d {
			r := d[i] - m[i]
			sum2 += real(r)*real(r) + imag(r)*imag(r)
			n += 2
		}
	}
	assert.InEpsilon(t, sigma, math.Sqrt(sum2/float64(n)), 0.1)
	assert.Equal(t, sigma, a[0].Sigma().Data()[0])
	assert.InDelta(t, 1/(sigma*sigma), a[0].WeightMat().Data()[0], 1e-6)
}

// TestNoise_Term covers the inert apply side and skipped rows.
func TestNoise_Term(t *testing.T) {
	n := sim.NewNoise(1, 3)
	assert.Equal(t, viscal.ANoise, n.Type())
	assert.Equal(t, "ANoise", n.Name())
	assert.True(t, n.SpwOK(5))
	assert.False(t, n.FreqDepMat())
	assert.Equal(t, 1.0, n.Sigma())

	vb, err := vis.New(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, vb.SetAntennas([]int{0, 0, 1}, []int{0, 1, 1}))
	vb.FlagRow()[2] = true
	require.NoError(t, n.Corrupt(vb))
	require.NoError(t, n.Correct(vb))
	require.NoError(t, n.InjectNoise(vb))
	d := vb.VisCube().Data()
	assert.Equal(t, complex128(0), d[0], "auto-correlation")
	assert.NotEqual(t, complex128(0), d[1])
	assert.Equal(t, complex128(0), d[2], "flagged row")

	var _ viscal.NoiseInjector = n
	var _ viscal.VisCal = n
}

// TestNew_Invalid rejects missing or invalid scenarios.
func TestNew_Invalid(t *testing.T) {
	_, err := sim.New(nil)
	require.ErrorIs(t, err, config.ErrInvalid)
	sc := scenario(3, 1, 1, 0)
	_, err = sim.New(sc)
	require.ErrorIs(t, err, config.ErrInvalid)
}
