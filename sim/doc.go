// Package sim produces visibility buffers for a configured array: a
// point-source model observed through known antenna gains (and optional
// bandpass), plus seeded Gaussian thermal noise.
//
// The data are built by visequation.CollapseForSim with the noise term as
// pivot, so the true terms pass through exactly the corruption path a solve
// later inverts.
package sim
