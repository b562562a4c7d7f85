// SPDX-License-Identifier: MIT

package viscal

import (
	"math/cmplx"

	"github.com/katalvlaran/viscal/jones"
)

// mat2 is a row-major 2×2 complex matrix [m00 m01 m10 m11].
type mat2 [4]complex128

func (a mat2) mul(b mat2) mat2 {
	return mat2{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
	}
}

// herm returns the conjugate transpose.
func (a mat2) herm() mat2 {
	return mat2{cmplx.Conj(a[0]), cmplx.Conj(a[2]), cmplx.Conj(a[1]), cmplx.Conj(a[3])}
}

// expand lifts a 1-, 2- or 4-correlation vector onto a 2×2 matrix. Single
// and parallel-hand vectors occupy the diagonal, so matrix products reduce
// to the element-wise diagonal algebra of the Jones apply.
func expand(v []complex128) mat2 {
	switch len(v) {
	case 1:
		return mat2{v[0], 0, 0, 0}
	case 2:
		return mat2{v[0], 0, 0, v[1]}
	}

	return mat2{v[0], v[1], v[2], v[3]}
}

// contract is the inverse of expand.
func contract(m mat2, out []complex128) {
	switch len(out) {
	case 1:
		out[0] = m[0]
	case 2:
		out[0], out[1] = m[0], m[3]
	default:
		copy(out, m[:])
	}
}

// parDerivs returns ∂J/∂p for every stored parameter of the layout.
func parDerivs(t jones.Type) []mat2 {
	switch t {
	case jones.Scalar:
		return []mat2{{1, 0, 0, 1}}
	case jones.Diagonal:
		return []mat2{{1, 0, 0, 0}, {0, 0, 0, 1}}
	case jones.GenLinear:
		return []mat2{{0, 1, 0, 0}, {0, 0, 1, 0}}
	}

	return []mat2{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}, {0, 0, 0, 1}}
}
