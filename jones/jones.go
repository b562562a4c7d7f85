// SPDX-License-Identifier: MIT

package jones

import (
	"fmt"
	"math/cmplx"
)

// Type selects the Jones storage layout.
type Type int

const (
	// General is a full 2×2 matrix.
	General Type = iota
	// GenLinear stores the two off-diagonal terms of a matrix with unit diagonal.
	GenLinear
	// Diagonal stores the two diagonal terms.
	Diagonal
	// Scalar stores a single term applied uniformly.
	Scalar
)

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case General:
		return "General"
	case GenLinear:
		return "GenLinear"
	case Diagonal:
		return "Diagonal"
	case Scalar:
		return "Scalar"
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// NStored returns the number of physically stored entries for the layout.
func (t Type) NStored() int {
	switch t {
	case General:
		return 4
	case GenLinear, Diagonal:
		return 2
	case Scalar:
		return 1
	}

	return 0
}

// Jones is a 2×2 complex transform in one of the four layouts.
// Only the first NStored entries of j and ok are meaningful.
type Jones struct {
	typ Type
	j   [4]complex128
	ok  [4]bool
}

// New is the factory for every layout. The result is the identity with all
// entries ok.
func New(t Type) (*Jones, error) {
	J := &Jones{typ: t}
	switch t {
	case General:
		J.j = [4]complex128{1, 0, 0, 1}
	case GenLinear:
		// off-diagonals already zero
	case Diagonal:
		J.j[0], J.j[1] = 1, 1
	case Scalar:
		J.j[0] = 1
	default:
		return nil, fmt.Errorf("jones.New(%d): %w", int(t), ErrUnknownType)
	}
	for i := 0; i < t.NStored(); i++ {
		J.ok[i] = true
	}

	return J, nil
}

// MustNew is New for layouts known at compile time; it panics on error.
func MustNew(t Type) *Jones {
	J, err := New(t)
	if err != nil {
		panic(err)
	}

	return J
}

// Type returns the layout tag.
func (J *Jones) Type() Type { return J.typ }

// Set loads the stored entries. ok may be nil, meaning all entries are ok.
func (J *Jones) Set(vals []complex128, ok []bool) error {
	n := J.typ.NStored()
	if len(vals) != n || (ok != nil && len(ok) != n) {
		return fmt.Errorf("Jones.Set(%v): %w", J.typ, ErrBadLength)
	}
	for i := 0; i < n; i++ {
		J.j[i] = vals[i]
		J.ok[i] = ok == nil || ok[i]
	}

	return nil
}

// Values returns a copy of the stored entries.
func (J *Jones) Values() []complex128 {
	out := make([]complex128, J.typ.NStored())
	copy(out, J.j[:])

	return out
}

// OK returns a copy of the stored ok flags.
func (J *Jones) OK() []bool {
	out := make([]bool, J.typ.NStored())
	copy(out, J.ok[:])

	return out
}

// AllOK reports whether every stored entry is ok.
func (J *Jones) AllOK() bool {
	for i := 0; i < J.typ.NStored(); i++ {
		if !J.ok[i] {
			return false
		}
	}

	return true
}

// Clone returns a copy.
func (J *Jones) Clone() *Jones {
	c := *J
	return &c
}

// Matrix returns the effective 2×2 matrix [m00 m01 m10 m11] with not-ok
// entries replaced by their identity contribution.
func (J *Jones) Matrix() [4]complex128 {
	switch J.typ {
	case General:
		return [4]complex128{J.eff(0), J.eff(1), J.eff(2), J.eff(3)}
	case GenLinear:
		return [4]complex128{1, J.eff(0), J.eff(1), 1}
	case Diagonal:
		return [4]complex128{J.eff(0), 0, 0, J.eff(1)}
	}

	s := J.eff(0)
	return [4]complex128{s, 0, 0, s}
}

// eff returns stored entry i, or its identity contribution when not ok.
func (J *Jones) eff(i int) complex128 {
	if J.ok[i] {
		return J.j[i]
	}

	return J.identity(i)
}

// identity returns the identity value of stored slot i for the layout.
func (J *Jones) identity(i int) complex128 {
	switch J.typ {
	case General:
		if i == 0 || i == 3 {
			return 1
		}
		return 0
	case GenLinear:
		return 0
	}

	return 1
}

// Zero clears the stored entries (flags untouched).
func (J *Jones) Zero() {
	for i := 0; i < J.typ.NStored(); i++ {
		J.j[i] = 0
	}
}

// SetMatByOk replaces every not-ok entry by its identity contribution.
func (J *Jones) SetMatByOk() {
	for i := 0; i < J.typ.NStored(); i++ {
		if !J.ok[i] {
			J.j[i] = J.identity(i)
		}
	}
}

// Invert inverts the matrix in place. Singular or invalid input never fails:
// the affected entries are zeroed and marked not ok.
func (J *Jones) Invert() {
	switch J.typ {
	case General:
		J.invertGeneral()
	case GenLinear:
		// first-order inverse of a unit-diagonal perturbation
		for i := 0; i < 2; i++ {
			if J.ok[i] {
				J.j[i] = -J.j[i]
			} else {
				J.j[i] = 0
			}
		}
	case Diagonal, Scalar:
		for i := 0; i < J.typ.NStored(); i++ {
			if J.ok[i] && J.j[i] != 0 {
				J.j[i] = 1 / J.j[i]
			} else {
				J.j[i] = 0
				J.ok[i] = false
			}
		}
	}
}

func (J *Jones) invertGeneral() {
	if !J.ok[0] || !J.ok[3] {
		J.failGeneral()
		return
	}
	a, b, c, d := J.j[0], J.eff(1), J.eff(2), J.j[3]
	det := a*d - b*c
	if cmplx.Abs(det) == 0 {
		J.failGeneral()
		return
	}
	J.j[0] = d / det
	J.j[1] = -b / det
	J.j[2] = -c / det
	J.j[3] = a / det
}

func (J *Jones) failGeneral() {
	J.Zero()
	J.ok[0], J.ok[3] = false, false
}

// MulBy performs J = J·o in place. Defined combinations:
//
//	General   *= General, GenLinear, Diagonal, Scalar
//	Diagonal  *= Diagonal, Scalar
//	Scalar    *= Scalar
//
// Everything else returns ErrNotImplemented and leaves J unchanged.
func (J *Jones) MulBy(o *Jones) error {
	switch J.typ {
	case General:
		J.mulGeneral(o)
		return nil
	case Diagonal:
		switch o.typ {
		case Diagonal:
			for i := 0; i < 2; i++ {
				J.j[i] *= o.j[i]
				J.ok[i] = J.ok[i] && o.ok[i]
			}
			return nil
		case Scalar:
			for i := 0; i < 2; i++ {
				J.j[i] *= o.j[0]
				J.ok[i] = J.ok[i] && o.ok[0]
			}
			return nil
		}
	case Scalar:
		if o.typ == Scalar {
			J.j[0] *= o.j[0]
			J.ok[0] = J.ok[0] && o.ok[0]
			return nil
		}
	}

	return fmt.Errorf("Jones.MulBy(%v *= %v): %w", J.typ, o.typ, ErrNotImplemented)
}

func (J *Jones) mulGeneral(o *Jones) {
	a := [4]complex128{J.eff(0), J.eff(1), J.eff(2), J.eff(3)}
	aok := J.ok
	b := o.Matrix()
	bok := o.fullOK()

	J.j[0] = a[0]*b[0] + a[1]*b[2]
	J.j[1] = a[0]*b[1] + a[1]*b[3]
	J.j[2] = a[2]*b[0] + a[3]*b[2]
	J.j[3] = a[2]*b[1] + a[3]*b[3]
	J.ok[0] = aok[0] && aok[1] && bok[0] && bok[2]
	J.ok[1] = aok[0] && aok[1] && bok[1] && bok[3]
	J.ok[2] = aok[2] && aok[3] && bok[0] && bok[2]
	J.ok[3] = aok[2] && aok[3] && bok[1] && bok[3]
}

// fullOK expands the stored ok flags onto the four matrix positions.
// Implicit entries (unit diagonal, zero off-diagonal) are always ok.
func (J *Jones) fullOK() [4]bool {
	switch J.typ {
	case General:
		return J.ok
	case GenLinear:
		return [4]bool{true, J.ok[0], J.ok[1], true}
	case Diagonal:
		return [4]bool{J.ok[0], true, true, J.ok[1]}
	}

	return [4]bool{J.ok[0], true, true, J.ok[0]}
}

// String implements fmt.Stringer.
func (J *Jones) String() string {
	n := J.typ.NStored()
	return fmt.Sprintf("%v%v ok=%v", J.typ, J.j[:n], J.ok[:n])
}
