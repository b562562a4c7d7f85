// Package jones implements the per-antenna 2×2 complex transforms of radio
// interferometric calibration and the visibility vectors they act on.
//
// A VisVector holds one visibility sample of 1, 2 or 4 correlations with an
// optional parallel flag per element. A four-correlation vector is viewed as
// the 2×2 matrix
//
//	[ v0 v1 ]   = [ XX XY ]
//	[ v2 v3 ]     [ YX YY ]
//
// A Jones value is a closed tagged type over four storage layouts:
//
//	General   : j0 j1 j2 j3 (full 2×2)
//	GenLinear : j0 = XY, j1 = YX; diagonal implicitly 1 (first-order leakage)
//	Diagonal  : j0 = XX, j1 = YY
//	Scalar    : j0 applied to every correlation
//
// Every stored entry carries an ok flag. Entries that are not ok contribute
// identity (1 on the diagonal, 0 off it) and flag the visibility elements
// they touch.
//
// Baseline corruption of a model visibility by antennas i and j is
//
//	V' = Ji · V · Jj^H
//
// where ApplyRight performs Ji·V and ApplyLeft performs V·Jj^H.
//
// Errors:
//   - ErrIncompatibleVis: visibility correlation count unsupported by the layout.
//   - ErrNotImplemented: unsupported cross-layout multiplication.
//   - ErrUnknownType: factory asked for an undefined layout.
//   - ErrBadLength: stored-entry slices of the wrong length.
package jones
