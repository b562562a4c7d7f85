// Package solver fits the parameters of one solvable calibration term to
// the data of a solution interval by damped iterative least squares.
//
// Overview:
//
//   - Each iteration has the visibility equation differentiate the trial
//     model for every buffer of the interval, forms the weighted chi-square
//     of the residuals and checks convergence.
//   - Accepted iterations (chi-square did not rise) accumulate the complex
//     gradient and the diagonal Hessian per antenna and parameter. Rejected
//     ones restore the last accepted parameters.
//   - The step -grad/hess/2 is optionally refined by a line search that
//     brackets the chi-square minimum along the step and fits a parabola.
//   - On convergence, parameter errors are 1/sqrt(hess/k2/2) with
//     k2 = chiSq/nDOF and nDOF = max(2*(nWt-nOK), 1).
//
// Ownership:
//
// The solver works directly on the storage returned by SolveCPar,
// SolveParOK and SolveParErr for the duration of one Solve call and drops
// the references before returning. A Solver must not run two solves at
// once; it keeps scratch buffers between calls.
//
// Failure semantics:
//
//   - Too few baselines: Solve returns (false, nil) and leaves the
//     parameter values untouched.
//   - Exactly zero chi-square: (false, ErrZeroChiSq).
//   - Storage shapes that disagree with NTotalPar: (false, ErrParShape).
//   - Iteration limit: not an error; the result reports whether any
//     parameter is still ok.
//
// Complexity per iteration: O(N*nPar) over N weighted visibility elements,
// plus O(N) per line-search sample.
package solver
