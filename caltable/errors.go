// SPDX-License-Identifier: MIT

package caltable

import "errors"

var (
	// ErrShape indicates a term or row that disagrees with the table layout.
	ErrShape = errors.New("caltable: shape mismatch")

	// ErrNotFound indicates a missing row.
	ErrNotFound = errors.New("caltable: row not found")

	// ErrBadID indicates a table identifier that is not a UUID.
	ErrBadID = errors.New("caltable: invalid table id")
)
