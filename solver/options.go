// SPDX-License-Identifier: MIT

// Package solver: functional configuration of the gradient solver.
// This file defines:
//   - Option / Options, with unexported fields,
//   - DefaultMaxIter and DefaultOptStep,
//   - WithX constructors that panic on values no caller should pass,
//   - gatherOptions, which fills in a discarding logger.
package solver

import (
	"io"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxIter bounds the outer iterations of one solve.
	DefaultMaxIter = 50

	// DefaultOptStep enables the line search on every step.
	DefaultOptStep = true
)

const (
	panicMaxIter   = "solver: WithMaxIter: n must be >= 1"
	panicNilLogger = "solver: WithLogger: logger must not be nil"
)

// Option mutates internal options.
type Option func(*Options)

// Options stores the effective solver configuration.
type Options struct {
	maxIter int
	optStep bool
	log     logrus.FieldLogger
}

// WithMaxIter sets the iteration limit. Panics when n < 1.
func WithMaxIter(n int) Option {
	if n < 1 {
		panic(panicMaxIter)
	}

	return func(o *Options) { o.maxIter = n }
}

// WithOptStep toggles the line search. Without it a rejected step is
// retried unchanged, since the gradient, the Hessian and the step factor
// stay fixed until an iteration is accepted; such a solve runs to the
// iteration limit.
func WithOptStep(on bool) Option {
	return func(o *Options) { o.optStep = on }
}

// WithLogger sets the structured logger. Panics on nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic(panicNilLogger)
	}

	return func(o *Options) { o.log = l }
}

func gatherOptions(opts ...Option) Options {
	o := Options{maxIter: DefaultMaxIter, optStep: DefaultOptStep}
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
