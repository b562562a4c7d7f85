// SPDX-License-Identifier: MIT

package sim

import (
	"io"

	"github.com/sirupsen/logrus"
)

const panicNilLogger = "sim: WithLogger: logger must not be nil"

// Option mutates internal options.
type Option func(*Options)

// Options stores the simulator configuration.
type Options struct {
	log logrus.FieldLogger
}

// WithLogger sets the structured logger. Panics on nil.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic(panicNilLogger)
	}

	return func(o *Options) { o.log = l }
}

func gatherOptions(opts ...Option) Options {
	var o Options
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
