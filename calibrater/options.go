// SPDX-License-Identifier: MIT

package calibrater

import (
	"io"

	"github.com/katalvlaran/viscal/solver"
	"github.com/sirupsen/logrus"
)

// DefaultParallel lets every interval run at once (0 = no limit).
const DefaultParallel = 0

const (
	panicParallel  = "calibrater: WithParallel: n must be >= 0"
	panicNilLogger = "calibrater: WithLogger: logger must not be nil"
)

// Option mutates internal options.
type Option func(*Options)

// Options stores the effective configuration.
type Options struct {
	parallel   int
	solverOpts []solver.Option
	log        logrus.FieldLogger
}

// WithParallel bounds the number of intervals solved at once; 0 removes
// the bound. Panics when n < 0.
func WithParallel(n int) Option {
	if n < 0 {
		panic(panicParallel)
	}

	return func(o *Options) { o.parallel = n }
}

// WithSolverOptions forwards options to every per-interval solver.
func WithSolverOptions(opts ...solver.Option) Option {
	return func(o *Options) { o.solverOpts = append(o.solverOpts, opts...) }
}

// WithLogger sets the structured logger. Panics on nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic(panicNilLogger)
	}

	return func(o *Options) { o.log = l }
}

func gatherOptions(opts ...Option) Options {
	o := Options{parallel: DefaultParallel}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		o.log = l
	}

	return o
}
