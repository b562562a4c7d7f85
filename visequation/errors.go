// SPDX-License-Identifier: MIT

// Package visequation: sentinel errors, wrapped with the operation name.
package visequation

import "errors"

var (
	// ErrNoApply is returned by Correct and Corrupt with no terms set.
	ErrNoApply = errors.New("visequation: no calibration terms to apply")

	// ErrNoSolve is returned by solve-path operations with no solvable term.
	ErrNoSolve = errors.New("visequation: no solvable term set")

	// ErrNotImplemented marks the plain Residuals entry point.
	ErrNotImplemented = errors.New("visequation: not implemented")

	// ErrShapeMismatch indicates residual and observed cubes of different shapes.
	ErrShapeMismatch = errors.New("visequation: residual shape mismatch")
)
