// SPDX-License-Identifier: MIT

package vis

import "errors"

var (
	// ErrBadShape is returned for non-positive buffer dimensions.
	ErrBadShape = errors.New("vis: invalid shape")

	// ErrBadLength indicates a metadata slice whose length differs from the row
	// or channel count.
	ErrBadLength = errors.New("vis: bad length")

	// ErrBadCorr indicates an unknown, duplicated or mixed set of correlation types.
	ErrBadCorr = errors.New("vis: bad correlation types")

	// ErrBadAntenna indicates a negative antenna index.
	ErrBadAntenna = errors.New("vis: bad antenna index")
)
