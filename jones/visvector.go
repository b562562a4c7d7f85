// SPDX-License-Identifier: MIT

package jones

import "fmt"

// VisType is the number of correlations a VisVector carries.
type VisType int

const (
	// One is a single (parallel-hand or Stokes) correlation.
	One VisType = 1
	// Two holds the two parallel hands (XX, YY).
	Two VisType = 2
	// Four holds all four hands (XX, XY, YX, YY).
	Four VisType = 4
)

// VisTypeFor maps a correlation count to its VisType.
func VisTypeFor(nCorr int) (VisType, error) {
	switch nCorr {
	case 1:
		return One, nil
	case 2:
		return Two, nil
	case 4:
		return Four, nil
	}

	return 0, fmt.Errorf("VisTypeFor(%d): %w", nCorr, ErrUnknownType)
}

// String implements fmt.Stringer.
func (t VisType) String() string {
	switch t {
	case One:
		return "One"
	case Two:
		return "Two"
	case Four:
		return "Four"
	}

	return fmt.Sprintf("VisType(%d)", int(t))
}

// VisVector is one visibility sample with optional per-element flags.
// Its value and flag slices may alias a cube cell (see Sync), in which case
// every in-place operation writes straight through to the cube.
type VisVector struct {
	typ VisType
	v   []complex128
	f   []bool // nil when the vector carries no flags
}

// NewVisVector allocates a zeroed vector of type t.
func NewVisVector(t VisType, withFlags bool) (*VisVector, error) {
	if _, err := VisTypeFor(int(t)); err != nil {
		return nil, err
	}
	vv := &VisVector{typ: t, v: make([]complex128, t)}
	if withFlags {
		vv.f = make([]bool, t)
	}

	return vv, nil
}

// Sync points the vector at external storage. flags may be nil.
func (vv *VisVector) Sync(vals []complex128, flags []bool) error {
	if len(vals) != int(vv.typ) || (flags != nil && len(flags) != int(vv.typ)) {
		return fmt.Errorf("VisVector.Sync: %w", ErrBadLength)
	}
	vv.v = vals
	vv.f = flags

	return nil
}

// Type returns the correlation type.
func (vv *VisVector) Type() VisType { return vv.typ }

// Values returns the value slice (aliases storage).
func (vv *VisVector) Values() []complex128 { return vv.v }

// Flags returns the flag slice, or nil when flags are absent.
func (vv *VisVector) Flags() []bool { return vv.f }

// HasFlags reports whether the vector carries flags.
func (vv *VisVector) HasFlags() bool { return vv.f != nil }

// At returns element i.
func (vv *VisVector) At(i int) complex128 { return vv.v[i] }

// Set assigns element i.
func (vv *VisVector) Set(i int, c complex128) { vv.v[i] = c }

// Flagged reports whether element i is flagged (false without flags).
func (vv *VisVector) Flagged(i int) bool { return vv.f != nil && vv.f[i] }

// AnyFlagged reports whether any element is flagged.
func (vv *VisVector) AnyFlagged() bool {
	for _, f := range vv.f {
		if f {
			return true
		}
	}

	return false
}

// CopyFrom copies values, and flags when both vectors carry them.
func (vv *VisVector) CopyFrom(o *VisVector) error {
	if vv.typ != o.typ {
		return fmt.Errorf("VisVector.CopyFrom %v<-%v: %w", vv.typ, o.typ, ErrIncompatibleVis)
	}
	copy(vv.v, o.v)
	if vv.f != nil && o.f != nil {
		copy(vv.f, o.f)
	}

	return nil
}

// Zero clears the values; flags are left untouched.
func (vv *VisVector) Zero() {
	for i := range vv.v {
		vv.v[i] = 0
	}
}

// Add performs vv += o, merging flags.
func (vv *VisVector) Add(o *VisVector) error {
	if vv.typ != o.typ {
		return fmt.Errorf("VisVector.Add %v+%v: %w", vv.typ, o.typ, ErrIncompatibleVis)
	}
	for i := range vv.v {
		vv.v[i] += o.v[i]
	}
	vv.mergeFlags(o)

	return nil
}

// Sub performs vv -= o, merging flags.
func (vv *VisVector) Sub(o *VisVector) error {
	if vv.typ != o.typ {
		return fmt.Errorf("VisVector.Sub %v-%v: %w", vv.typ, o.typ, ErrIncompatibleVis)
	}
	for i := range vv.v {
		vv.v[i] -= o.v[i]
	}
	vv.mergeFlags(o)

	return nil
}

// Scale multiplies every element by c.
func (vv *VisVector) Scale(c complex128) {
	for i := range vv.v {
		vv.v[i] *= c
	}
}

func (vv *VisVector) mergeFlags(o *VisVector) {
	if vv.f == nil || o.f == nil {
		return
	}
	for i := range vv.f {
		vv.f[i] = vv.f[i] || o.f[i]
	}
}

// String implements fmt.Stringer.
func (vv *VisVector) String() string {
	if vv.f == nil {
		return fmt.Sprintf("%v%v", vv.typ, vv.v)
	}

	return fmt.Sprintf("%v%v flags=%v", vv.typ, vv.v, vv.f)
}
