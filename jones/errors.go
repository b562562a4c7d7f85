// SPDX-License-Identifier: MIT

package jones

import "errors"

var (
	// ErrIncompatibleVis is returned when a VisVector's correlation count is
	// not supported by the Jones layout, or two vectors of different
	// correlation counts are combined.
	ErrIncompatibleVis = errors.New("jones: incompatible VisVector type")

	// ErrNotImplemented marks an intentionally unsupported cross-layout product.
	ErrNotImplemented = errors.New("jones: operation not implemented")

	// ErrUnknownType indicates an undefined Jones layout or VisVector type.
	ErrUnknownType = errors.New("jones: unknown type")

	// ErrBadLength indicates a value or flag slice of the wrong length.
	ErrBadLength = errors.New("jones: bad length")
)
