// SPDX-License-Identifier: MIT

package viscal

import (
	"fmt"
	"strings"
)

// Type orders calibration terms along the signal path. Terms of lower
// Type sit closer to the observed data: they are corrected first and
// corrupted last.
type Type int

const (
	Test Type = iota
	ANoise
	M
	KAntPos
	B
	G
	J
	D
	X
	C
	P
	E
	T
	F
	A
)

var typeNames = [...]string{"Test", "ANoise", "M", "KAntPos", "B", "G", "J", "D", "X", "C", "P", "E", "T", "F", "A"}

// String implements fmt.Stringer.
func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps a name ("G", "t", "ANoise"...) to its Type.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if strings.EqualFold(n, s) {
			return Type(i), nil
		}
	}

	return 0, fmt.Errorf("ParseType(%q): %w", s, ErrUnknownType)
}
