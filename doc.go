// Package viscal is the root of a radio-interferometric calibration engine:
// antenna-based Jones matrices, the visibility equation that applies them,
// and an iterative least-squares solver that fits them to data.
//
// Packages, bottom-up:
//
//	cube/          flat visibility, flag, weight and derivative containers
//	jones/         2×2 Jones matrices (General, GenLinear, Diagonal, Scalar) and visibility vectors
//	vis/           visibility buffer: one chunk of rows with data, model, flags, weights
//	sdb/           solve data buffers: the in-focus view the solver reads
//	viscal/        calibration term interfaces and the standard G, T, B, D, J terms
//	visequation/   term ordering, correct/corrupt, collapse, residual differentiation
//	solver/        damped gradient solver with line search and convergence tracking
//	calibrater/    solution intervals, run concurrently, into a cal table
//	caltable/      solved parameters per interval and antenna, YAML serialization
//	sim/           simulated observations of a point source with Gaussian noise
//	report/        convergence and gain plots
//	config/        YAML scenario for the calsolve command
//	cmd/calsolve   CLI: simulate, solve
//
// Conventions:
//
//   - Corruption is J1·M·J2ᴴ, correction J1⁻¹·V·J2⁻ᴴ.
//   - Parameters are stored [channel][antenna][parameter]; the solver sees
//     one channel (the focus channel) at a time.
//   - Errors are package sentinels wrapped with fmt.Errorf and matched with
//     errors.Is. Insufficient data is a false result, not an error.
//   - Logging is structured (logrus) and silent unless a logger is passed.
package viscal
