// SPDX-License-Identifier: MIT

package calibrater

import "errors"

var (
	// ErrNoData is returned when there are no buffers to solve.
	ErrNoData = errors.New("calibrater: no visibility buffers")

	// ErrInterval indicates a non-positive solution interval length.
	ErrInterval = errors.New("calibrater: interval length must be >= 1")

	// ErrNilTerm is returned when no prototype term is supplied.
	ErrNilTerm = errors.New("calibrater: nil term")

	// ErrChannels indicates data channels that do not match the parameter
	// channels of a frequency-dependent term.
	ErrChannels = errors.New("calibrater: channel count mismatch")
)
