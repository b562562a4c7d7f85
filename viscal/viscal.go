// SPDX-License-Identifier: MIT

package viscal

import (
	"github.com/katalvlaran/viscal/cube"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/vis"
)

// VisCal is one term of the visibility equation.
type VisCal interface {
	Name() string
	Type() Type
	// SpwOK reports whether the term has solutions for the spectral window.
	SpwOK(spw int) bool
	// FreqDepMat reports whether the applied matrices vary with channel.
	FreqDepMat() bool
	// FreqDepPar reports whether the parameters vary with channel.
	FreqDepPar() bool
	// Correct applies the inverse term to the observed data in place.
	Correct(vb *vis.Buffer) error
	// Corrupt applies the term to the model data in place.
	Corrupt(vb *vis.Buffer) error
}

// SolvableVisCal is a VisCal whose parameters can be solved for.
type SolvableVisCal interface {
	VisCal

	NAnt() int
	// NPar is the parameter count per antenna.
	NPar() int
	// NTotalPar is the parameter count of one solve (NPar*NAnt).
	NTotalPar() int
	FocusChan() int
	// SolvePol > 0 requests the polarization normalisation in collapse.
	SolvePol() int

	// SolveCPar, SolveParOK and SolveParErr alias the in-focus parameter
	// block. Writes go straight into the term.
	SolveCPar() []complex128
	SolveParOK() []bool
	SolveParErr() []float64

	// VerifyConstraints marks antennas without enough baselines not ok and
	// reports whether any antenna remains solvable.
	VerifyConstraints(sdbs *sdb.List) bool
	// Differentiate fills the buffer's residual workspace with the trial
	// corrupted model and its parameter derivatives.
	Differentiate(sb *sdb.Buffer) error
	// DifferentiateBuffer is Differentiate over a visibility buffer into
	// caller-owned containers, which are resized as needed.
	DifferentiateBuffer(vb *vis.Buffer, r *cube.Complex, dr *cube.Deriv, flags *cube.Bool) error
	// Residualate is Differentiate without derivatives.
	Residualate(sb *sdb.Buffer) error
	// UpdatePar adds dpar to the in-focus parameters.
	UpdatePar(dpar []complex128) error
	// SetUpForPolSolve normalises data and model by the Stokes I model.
	SetUpForPolSolve(vb *vis.Buffer) error
}

// NoiseInjector is implemented by simulation terms that add noise at their
// position in the equation.
type NoiseInjector interface {
	InjectNoise(vb *vis.Buffer) error
}
