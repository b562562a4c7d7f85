// SPDX-License-Identifier: MIT

package viscal

import "errors"

var (
	// ErrUnknownType is returned for a Type with no standard Jones term.
	ErrUnknownType = errors.New("viscal: unknown term type")

	// ErrParShape indicates a parameter slice whose length does not match
	// the term's storage.
	ErrParShape = errors.New("viscal: parameter shape mismatch")

	// ErrAntenna indicates an antenna index outside [0, nAnt).
	ErrAntenna = errors.New("viscal: antenna out of range")

	// ErrChannel indicates a channel index or count the term cannot serve.
	ErrChannel = errors.New("viscal: channel mismatch")

	// ErrPolSolve indicates data that cannot be normalised for a
	// polarization solve.
	ErrPolSolve = errors.New("viscal: polarization setup needs at least two correlations")
)
