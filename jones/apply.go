// SPDX-License-Identifier: MIT

package jones

import (
	"fmt"
	"math/cmplx"
)

// ApplyRight transforms v in place as v = J·v.
func (J *Jones) ApplyRight(v *VisVector) error {
	return J.apply(v, false)
}

// ApplyLeft transforms v in place as v = v·J^H.
func (J *Jones) ApplyLeft(v *VisVector) error {
	return J.apply(v, true)
}

// ApplyRightFlag is ApplyRight that also ORs "J has a not-ok entry" into vflag.
func (J *Jones) ApplyRightFlag(v *VisVector, vflag *bool) error {
	*vflag = *vflag || !J.AllOK()
	return J.apply(v, false)
}

// ApplyLeftFlag is ApplyLeft that also ORs "J has a not-ok entry" into vflag.
func (J *Jones) ApplyLeftFlag(v *VisVector, vflag *bool) error {
	*vflag = *vflag || !J.AllOK()
	return J.apply(v, true)
}

// Apply corrupts v by a baseline: v = j1·v·j2^H.
func Apply(j1 *Jones, v *VisVector, j2 *Jones) error {
	if err := j1.ApplyRight(v); err != nil {
		return err
	}

	return j2.ApplyLeft(v)
}

// ApplyFlag is Apply with the matrix-validity flag accumulated into vflag.
func ApplyFlag(j1 *Jones, v *VisVector, j2 *Jones, vflag *bool) error {
	if err := j1.ApplyRightFlag(v, vflag); err != nil {
		return err
	}

	return j2.ApplyLeftFlag(v, vflag)
}

func (J *Jones) apply(v *VisVector, left bool) error {
	switch J.typ {
	case General, GenLinear:
		if v.typ != Four {
			return fmt.Errorf("Jones.apply(%v on %v): %w", J.typ, v.typ, ErrIncompatibleVis)
		}
		m := J.Matrix()
		mok := J.fullOK()
		if left {
			applyLeft4(m, mok, v)
		} else {
			applyRight4(m, mok, v)
		}
		return nil
	case Diagonal:
		return J.applyDiagonal(v, left)
	case Scalar:
		s := J.eff(0)
		if left {
			s = cmplx.Conj(s)
		}
		for i := range v.v {
			v.v[i] *= s
		}
		if v.f != nil && !J.ok[0] {
			for i := range v.f {
				v.f[i] = true
			}
		}
		return nil
	}

	return fmt.Errorf("Jones.apply(%v): %w", J.typ, ErrUnknownType)
}

// applyRight4 computes v = m·v on a four-correlation vector.
func applyRight4(m [4]complex128, mok [4]bool, v *VisVector) {
	v0, v1, v2, v3 := v.v[0], v.v[1], v.v[2], v.v[3]
	v.v[0] = m[0]*v0 + m[1]*v2
	v.v[1] = m[0]*v1 + m[1]*v3
	v.v[2] = m[2]*v0 + m[3]*v2
	v.v[3] = m[2]*v1 + m[3]*v3

	if v.f == nil {
		return
	}
	f0, f1, f2, f3 := v.f[0], v.f[1], v.f[2], v.f[3]
	top := !mok[0] || !mok[1]
	bot := !mok[2] || !mok[3]
	v.f[0] = f0 || f2 || top
	v.f[1] = f1 || f3 || top
	v.f[2] = f0 || f2 || bot
	v.f[3] = f1 || f3 || bot
}

// applyLeft4 computes v = v·m^H on a four-correlation vector.
func applyLeft4(m [4]complex128, mok [4]bool, v *VisVector) {
	c0, c1, c2, c3 := cmplx.Conj(m[0]), cmplx.Conj(m[1]), cmplx.Conj(m[2]), cmplx.Conj(m[3])
	v0, v1, v2, v3 := v.v[0], v.v[1], v.v[2], v.v[3]
	v.v[0] = v0*c0 + v1*c1
	v.v[1] = v0*c2 + v1*c3
	v.v[2] = v2*c0 + v3*c1
	v.v[3] = v2*c2 + v3*c3

	if v.f == nil {
		return
	}
	f0, f1, f2, f3 := v.f[0], v.f[1], v.f[2], v.f[3]
	first := !mok[0] || !mok[1]
	second := !mok[2] || !mok[3]
	v.f[0] = f0 || f1 || first
	v.f[1] = f0 || f1 || second
	v.f[2] = f2 || f3 || first
	v.f[3] = f2 || f3 || second
}

// per-element multiplier index into (x, y) for diagonal layouts
var (
	selOne       = []int{0}
	selTwo       = []int{0, 1}
	selFourRight = []int{0, 0, 1, 1}
	selFourLeft  = []int{0, 1, 0, 1}
)

func (J *Jones) applyDiagonal(v *VisVector, left bool) error {
	x, y := J.eff(0), J.eff(1)
	if left {
		x, y = cmplx.Conj(x), cmplx.Conj(y)
	}
	var sel []int
	switch v.typ {
	case One:
		sel = selOne
	case Two:
		sel = selTwo
	case Four:
		if left {
			sel = selFourLeft
		} else {
			sel = selFourRight
		}
	default:
		return fmt.Errorf("Jones.apply(Diagonal on %v): %w", v.typ, ErrIncompatibleVis)
	}
	xy := [2]complex128{x, y}
	for i, k := range sel {
		v.v[i] *= xy[k]
		if v.f != nil && !J.ok[k] {
			v.f[i] = true
		}
	}

	return nil
}
