// SPDX-License-Identifier: MIT
// Package: cube
//
// Purpose:
//   - Single source of truth for shape checks shared by the containers and
//     by the calibration packages that combine cubes.
//   - Return plain sentinels wrapped with a validator tag; callers add context.

package cube

import "fmt"

// validatorErrorf wraps an underlying error with the given validator tag.
func validatorErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// ValidateSameShape ensures two visibility shapes are identical.
// Complexity: O(1).
func ValidateSameShape(a, b Shape) error {
	if a.NCorr != b.NCorr {
		return validatorErrorf("ValidateSameShape: NCorr", ErrDimensionMismatch)
	}
	if a.NChan != b.NChan {
		return validatorErrorf("ValidateSameShape: NChan", ErrDimensionMismatch)
	}
	if a.NRow != b.NRow {
		return validatorErrorf("ValidateSameShape: NRow", ErrDimensionMismatch)
	}

	return nil
}

// ValidateLen ensures a flat vector has exactly n elements.
func ValidateLen(got, want int) error {
	if got != want {
		return validatorErrorf(fmt.Sprintf("ValidateLen: %d != %d", got, want), ErrDimensionMismatch)
	}

	return nil
}

// ValidateNotNil ensures none of the given containers is nil.
func ValidateNotNil(cs ...*Complex) error {
	for _, c := range cs {
		if c == nil {
			return validatorErrorf("ValidateNotNil", ErrNilCube)
		}
	}

	return nil
}
