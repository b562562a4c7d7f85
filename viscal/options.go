// SPDX-License-Identifier: MIT

// Package viscal: functional configuration for the standard Jones terms.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors that panic on nonsensical values,
//   - gatherOptions helper (internal).
package viscal

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultMinBlPerAnt is the minimum number of baselines an antenna
	// needs to be solvable.
	DefaultMinBlPerAnt = 4

	// DefaultRefAnt disables re-referencing (-1).
	DefaultRefAnt = -1

	// DefaultMinSNR disables the SNR threshold (0).
	DefaultMinSNR = 0.0

	// DefaultSolvePol disables the polarization normalisation (0).
	DefaultSolvePol = 0
)

// ---------- Internal panic messages ----------

const (
	panicMinBlPerAnt = "viscal: WithMinBlPerAnt: n must be >= 1"
	panicRefAnt      = "viscal: WithRefAnt: refant must be >= -1"
	panicMinSNR      = "viscal: WithMinSNR: snr must be finite, non-negative"
	panicSolvePol    = "viscal: WithSolvePol: n must be >= 0"
	panicNilLogger   = "viscal: WithLogger: logger must not be nil"
)

// Option mutates internal options.
type Option func(*Options)

// Options stores the effective configuration of a term.
type Options struct {
	name        string
	minBlPerAnt int
	refAnt      int
	minSNR      float64
	solvePol    int
	log         logrus.FieldLogger
}

// WithName overrides the default term name ("G Jones", ...).
func WithName(name string) Option {
	return func(o *Options) { o.name = name }
}

// WithMinBlPerAnt sets the minimum baselines per antenna.
// Panics when n < 1.
func WithMinBlPerAnt(n int) Option {
	if n < 1 {
		panic(panicMinBlPerAnt)
	}

	return func(o *Options) { o.minBlPerAnt = n }
}

// WithRefAnt sets the reference antenna used by ReReference; -1 disables it.
func WithRefAnt(refant int) Option {
	if refant < -1 {
		panic(panicRefAnt)
	}

	return func(o *Options) { o.refAnt = refant }
}

// WithMinSNR sets the threshold used by ApplySNRThreshold; 0 disables it.
func WithMinSNR(snr float64) Option {
	if math.IsNaN(snr) || math.IsInf(snr, 0) || snr < 0 {
		panic(panicMinSNR)
	}

	return func(o *Options) { o.minSNR = snr }
}

// WithSolvePol enables the polarization normalisation during collapse.
func WithSolvePol(n int) Option {
	if n < 0 {
		panic(panicSolvePol)
	}

	return func(o *Options) { o.solvePol = n }
}

// WithLogger sets the structured logger.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic(panicNilLogger)
	}

	return func(o *Options) { o.log = l }
}

// gatherOptions applies opts over the defaults.
func gatherOptions(opts ...Option) Options {
	o := Options{
		minBlPerAnt: DefaultMinBlPerAnt,
		refAnt:      DefaultRefAnt,
		minSNR:      DefaultMinSNR,
		solvePol:    DefaultSolvePol,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = discardLogger()
	}

	return o
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
