// SPDX-License-Identifier: MIT

// Package solver: sentinel errors.
// Callers match them with errors.Is; the solver wraps each with the
// failing operation and iteration.
// Insufficient data is not an error: Solve returns false with a nil error.
package solver

import "errors"

var (
	// ErrParShape indicates parameter storage of a length other than NTotalPar.
	ErrParShape = errors.New("solver: parameter storage does not match NTotalPar")

	// ErrZeroChiSq indicates a chi-square of exactly zero, which real data
	// cannot produce.
	ErrZeroChiSq = errors.New("solver: chi-square is exactly zero")

	// ErrNilInput indicates a nil equation, term or buffer list.
	ErrNilInput = errors.New("solver: nil input")
)
