// SPDX-License-Identifier: MIT

package sdb

import "errors"

var (
	// ErrNilBuffer is returned when a nil visibility buffer is supplied.
	ErrNilBuffer = errors.New("sdb: nil buffer")

	// ErrFocusChan indicates a focus channel outside the buffer.
	ErrFocusChan = errors.New("sdb: focus channel out of range")

	// ErrEmptyList indicates an operation that needs at least one buffer.
	ErrEmptyList = errors.New("sdb: empty list")
)
