// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"math/cmplx"
	"strings"

	"github.com/katalvlaran/viscal/viscal"
	"github.com/soniakeys/unit"
	"github.com/spf13/viper"
)

// Antenna holds the true gains of one antenna. The second polarization
// falls back to the first when AmpY is zero.
type Antenna struct {
	Amp       float64 `mapstructure:"amp"`
	PhaseDeg  float64 `mapstructure:"phase_deg"`
	AmpY      float64 `mapstructure:"amp_y"`
	PhaseYDeg float64 `mapstructure:"phase_y_deg"`
	SlopeDeg  float64 `mapstructure:"slope_deg"` // bandpass phase slope per channel
}

// Gain returns the complex gain of polarization pol (0 or 1).
func (a Antenna) Gain(pol int) complex128 {
	amp, ph := a.Amp, a.PhaseDeg
	if pol == 1 && a.AmpY != 0 {
		amp, ph = a.AmpY, a.PhaseYDeg
	}

	return cmplx.Rect(amp, unit.AngleFromDeg(ph).Rad())
}

// Observation describes the simulated data layout.
type Observation struct {
	Corrs        int     `mapstructure:"corrs"`
	Channels     int     `mapstructure:"channels"`
	Integrations int     `mapstructure:"integrations"`
	IntTime      float64 `mapstructure:"int_time"` // seconds
	FreqStart    float64 `mapstructure:"freq_start"`
	FreqStep     float64 `mapstructure:"freq_step"`
	Flux         float64 `mapstructure:"flux"` // point-source Stokes I, Jy
	Noise        float64 `mapstructure:"noise"`
	Seed         uint64  `mapstructure:"seed"`
}

// Solve carries the solve settings.
type Solve struct {
	Type        string  `mapstructure:"type"`
	Interval    int     `mapstructure:"interval"` // integrations per solution
	RefAnt      int     `mapstructure:"refant"`
	MinBlPerAnt int     `mapstructure:"minblperant"`
	MinSNR      float64 `mapstructure:"minsnr"`
	MaxIter     int     `mapstructure:"maxiter"`
	OptStep     bool    `mapstructure:"optstep"`
	Parallel    int     `mapstructure:"parallel"`
}

// Scenario is one complete simulate-and-solve setup.
type Scenario struct {
	Name        string      `mapstructure:"name"`
	Antennas    []Antenna   `mapstructure:"antennas"`
	Observation Observation `mapstructure:"observation"`
	Solve       Solve       `mapstructure:"solve"`
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("name", "scenario")
	v.SetDefault("observation.corrs", 2)
	v.SetDefault("observation.channels", 1)
	v.SetDefault("observation.integrations", 1)
	v.SetDefault("observation.int_time", 10.0)
	v.SetDefault("observation.freq_start", 1.4e9)
	v.SetDefault("observation.freq_step", 1e6)
	v.SetDefault("observation.flux", 1.0)
	v.SetDefault("observation.noise", 0.0)
	v.SetDefault("observation.seed", 1)
	v.SetDefault("solve.type", "G")
	v.SetDefault("solve.interval", 1)
	v.SetDefault("solve.refant", 0)
	v.SetDefault("solve.minblperant", viscal.DefaultMinBlPerAnt)
	v.SetDefault("solve.minsnr", viscal.DefaultMinSNR)
	v.SetDefault("solve.maxiter", 50)
	v.SetDefault("solve.optstep", true)
	v.SetDefault("solve.parallel", 0)
}

// Load reads the YAML scenario at path into a fresh viper instance and
// validates it.
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return FromViper(v)
}

// FromViper decodes and validates the scenario held by v.
func FromViper(v *viper.Viper) (*Scenario, error) {
	var sc Scenario
	if err := v.Unmarshal(&sc); err != nil {
		return nil, fmt.Errorf("config.FromViper: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	return &sc, nil
}

// SolveType parses Solve.Type.
func (sc *Scenario) SolveType() (viscal.Type, error) {
	return viscal.ParseType(strings.TrimSpace(sc.Solve.Type))
}

// NAnt returns the number of antennas.
func (sc *Scenario) NAnt() int { return len(sc.Antennas) }

// HasBandpass reports whether any antenna carries a bandpass slope.
func (sc *Scenario) HasBandpass() bool {
	for _, a := range sc.Antennas {
		if a.SlopeDeg != 0 {
			return true
		}
	}

	return false
}

// Validate checks ranges and cross-field consistency.
func (sc *Scenario) Validate() error {
	o, s := sc.Observation, sc.Solve
	switch {
	case len(sc.Antennas) < 2:
		return fmt.Errorf("%w: need at least 2 antennas, have %d", ErrInvalid, len(sc.Antennas))
	case o.Corrs != 1 && o.Corrs != 2 && o.Corrs != 4:
		return fmt.Errorf("%w: corrs must be 1, 2 or 4, have %d", ErrInvalid, o.Corrs)
	case o.Channels < 1 || o.Integrations < 1:
		return fmt.Errorf("%w: channels and integrations must be positive", ErrInvalid)
	case o.Noise < 0:
		return fmt.Errorf("%w: negative noise", ErrInvalid)
	case o.Flux <= 0:
		return fmt.Errorf("%w: flux must be positive", ErrInvalid)
	case s.Interval < 1:
		return fmt.Errorf("%w: solve.interval must be positive", ErrInvalid)
	case s.RefAnt < -1 || s.RefAnt >= len(sc.Antennas):
		return fmt.Errorf("%w: refant %d out of range", ErrInvalid, s.RefAnt)
	case s.MinBlPerAnt < 1 || s.MaxIter < 1 || s.MinSNR < 0 || s.Parallel < 0:
		return fmt.Errorf("%w: minblperant, maxiter, minsnr or parallel out of range", ErrInvalid)
	}
	for i, a := range sc.Antennas {
		if a.Amp <= 0 || a.AmpY < 0 {
			return fmt.Errorf("%w: antenna %d amplitude must be positive", ErrInvalid, i)
		}
	}
	typ, err := sc.SolveType()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err = viscal.New(typ, len(sc.Antennas), 1); err != nil {
		return fmt.Errorf("%w: solve type %v: %w", ErrInvalid, typ, err)
	}

	return nil
}
