// SPDX-License-Identifier: MIT

package vis

import "fmt"

// Corr is a correlation (polarization product) type.
type Corr int

const (
	XX Corr = iota
	XY
	YX
	YY
	RR
	RL
	LR
	LL
)

// String implements fmt.Stringer.
func (c Corr) String() string {
	switch c {
	case XX:
		return "XX"
	case XY:
		return "XY"
	case YX:
		return "YX"
	case YY:
		return "YY"
	case RR:
		return "RR"
	case RL:
		return "RL"
	case LR:
		return "LR"
	case LL:
		return "LL"
	}

	return fmt.Sprintf("Corr(%d)", int(c))
}

// rank is the position of c inside its canonical four-correlation vector.
func (c Corr) rank() int {
	if c >= RR {
		return int(c - RR)
	}

	return int(c)
}

func (c Corr) circular() bool { return c >= RR && c <= LL }

func (c Corr) valid() bool { return c >= XX && c <= LL }

// ParallelHand reports whether c is XX, YY, RR or LL.
func (c Corr) ParallelHand() bool {
	r := c.rank()
	return r == 0 || r == 3
}

// DefaultCorrs returns the canonical linear correlation set for nCorr.
func DefaultCorrs(nCorr int) ([]Corr, error) {
	switch nCorr {
	case 1:
		return []Corr{XX}, nil
	case 2:
		return []Corr{XX, YY}, nil
	case 4:
		return []Corr{XX, XY, YX, YY}, nil
	}

	return nil, fmt.Errorf("DefaultCorrs(%d): %w", nCorr, ErrBadCorr)
}

// validateCorrs requires known, distinct types of one basis (linear or circular).
func validateCorrs(cs []Corr) error {
	seen := make(map[Corr]bool, len(cs))
	for i, c := range cs {
		if !c.valid() || seen[c] || c.circular() != cs[0].circular() {
			return fmt.Errorf("correlation %d (%v): %w", i, c, ErrBadCorr)
		}
		seen[c] = true
	}

	return nil
}
