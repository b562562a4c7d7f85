package config_test

import (
	"math/cmplx"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/viscal/config"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
name: three-antenna
antennas:
  - amp: 1.0
  - amp: 0.9
    phase_deg: 10
  - amp: 1.1
    phase_deg: -5
    amp_y: 1.2
    phase_y_deg: 30
observation:
  corrs: 4
  channels: 8
  noise: 0.001
  seed: 42
solve:
  type: t
  interval: 2
  minblperant: 2
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

// TestLoad_ValuesAndDefaults reads a scenario and fills defaults.
func TestLoad_ValuesAndDefaults(t *testing.T) {
	sc, err := config.Load(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "three-antenna", sc.Name)
	assert.Equal(t, 3, sc.NAnt())
	assert.Equal(t, 4, sc.Observation.Corrs)
	assert.Equal(t, 8, sc.Observation.Channels)
	assert.Equal(t, 1, sc.Observation.Integrations, "default")
	assert.Equal(t, 1.0, sc.Observation.Flux, "default")
	assert.Equal(t, uint64(42), sc.Observation.Seed)
	assert.Equal(t, 2, sc.Solve.Interval)
	assert.Equal(t, 2, sc.Solve.MinBlPerAnt)
	assert.Equal(t, 50, sc.Solve.MaxIter, "default")
	assert.True(t, sc.Solve.OptStep, "default")
	assert.False(t, sc.HasBandpass())

	typ, err := sc.SolveType()
	require.NoError(t, err)
	assert.Equal(t, viscal.T, typ)
}

// TestAntenna_Gain converts degrees and falls back for the second pol.
func TestAntenna_Gain(t *testing.T) {
	a := config.Antenna{Amp: 2, PhaseDeg: 90}
	g := a.Gain(0)
	assert.InDelta(t, 0, real(g), 1e-12)
	assert.InDelta(t, 2, imag(g), 1e-12)
	assert.Equal(t, g, a.Gain(1))

	b := config.Antenna{Amp: 1, AmpY: 3, PhaseYDeg: -180}
	assert.InDelta(t, -3, real(b.Gain(1)), 1e-12)
	assert.InDelta(t, 3, cmplx.Abs(b.Gain(1)), 1e-12)
}

// TestValidate_Rejects covers the validation table.
func TestValidate_Rejects(t *testing.T) {
	valid := func() *viper.Viper {
		v := viper.New()
		config.SetDefaults(v)
		v.Set("antennas", []map[string]interface{}{{"amp": 1.0}, {"amp": 1.0}, {"amp": 1.0}})
		return v
	}
	_, err := config.FromViper(valid())
	require.NoError(t, err)

	cases := map[string]func(v *viper.Viper){
		"one antenna":    func(v *viper.Viper) { v.Set("antennas", []map[string]interface{}{{"amp": 1.0}}) },
		"three corrs":    func(v *viper.Viper) { v.Set("observation.corrs", 3) },
		"no channels":    func(v *viper.Viper) { v.Set("observation.channels", 0) },
		"negative noise": func(v *viper.Viper) { v.Set("observation.noise", -1.0) },
		"zero flux":      func(v *viper.Viper) { v.Set("observation.flux", 0.0) },
		"zero interval":  func(v *viper.Viper) { v.Set("solve.interval", 0) },
		"refant range":   func(v *viper.Viper) { v.Set("solve.refant", 3) },
		"minblperant":    func(v *viper.Viper) { v.Set("solve.minblperant", 0) },
		"unknown type":   func(v *viper.Viper) { v.Set("solve.type", "Q") },
		"model type":     func(v *viper.Viper) { v.Set("solve.type", "M") },
		"zero amp": func(v *viper.Viper) {
			v.Set("antennas", []map[string]interface{}{{"amp": 1.0}, {"amp": 0.0}})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := valid()
			mutate(v)
			_, err := config.FromViper(v)
			require.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

// TestLoad_MissingFile surfaces the read error.
func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestHasBandpass detects per-channel slopes.
func TestHasBandpass(t *testing.T) {
	sc := config.Scenario{Antennas: []config.Antenna{{Amp: 1}, {Amp: 1, SlopeDeg: 2}}}
	assert.True(t, sc.HasBandpass())
}
