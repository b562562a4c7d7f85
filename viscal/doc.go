// Package viscal defines the calibration terms that make up a visibility
// equation and the standard antenna-based Jones terms that can be both
// applied and solved for.
//
// Contracts:
//   - VisCal: a term that corrects observed data (V' = J1⁻¹·V·J2⁻ᴴ) or
//     corrupts model data (M' = J1·M·J2ᴴ); terms are ordered by Type.
//   - SolvableVisCal: a VisCal whose parameters the solver drives. It owns
//     its parameter storage; SolveCPar/SolveParOK/SolveParErr expose the
//     in-focus channel block for the duration of one solve.
//
// Standard terms (Term):
//
//	G  Diagonal   2 par/ant   electronic gain per polarization
//	T  Scalar     1 par/ant   polarization-independent gain
//	B  Diagonal   2 par/ant   per-channel bandpass (frequency dependent)
//	D  GenLinear  2 par/ant   instrumental polarization leakage
//	J  General    4 par/ant   full 2×2 Jones
//
// Parameter storage is [nChanPar][nAnt][nPar], parameter ipar of antenna a
// in channel block ch living at (ch*nAnt+a)*nPar+ipar.
package viscal
