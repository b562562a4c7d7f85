// SPDX-License-Identifier: MIT
// Package cube: sentinel error set.
// Every message is prefixed with "cube: ..." so logs can be grepped; callers
// wrap with fmt.Errorf("ctx: %w", ErrX) and tests match via errors.Is.

package cube

import (
	"errors"
	"fmt"
)

var (
	// ErrBadShape is returned when a requested shape has a non-positive axis.
	ErrBadShape = errors.New("cube: invalid shape")

	// ErrOutOfRange indicates an index outside the valid bounds of an axis.
	ErrOutOfRange = errors.New("cube: index out of range")

	// ErrDimensionMismatch indicates incompatible operand shapes.
	ErrDimensionMismatch = errors.New("cube: dimension mismatch")

	// ErrNilCube indicates that a nil container was passed where data is required.
	ErrNilCube = errors.New("cube: nil container")
)

// cubeErrorf wraps an underlying error with method context.
func cubeErrorf(kind, method string, err error) error {
	return fmt.Errorf("%s.%s: %w", kind, method, err)
}
