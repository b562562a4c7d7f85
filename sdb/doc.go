// Package sdb provides the solve data buffers read by the solver: one
// Buffer per collapsed integration, holding the observed and model cubes,
// the in-focus weight spectrum and the residual/derivative workspace that
// the solvable term fills on every differentiation. A List groups the
// buffers of one solution interval.
//
// The solver only reads buffers; the solvable term and the visibility
// equation write the residual workspace.
package sdb
