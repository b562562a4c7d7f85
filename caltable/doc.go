// Package caltable stores solved calibration parameters: one row per
// solution interval, parameter channel and antenna, with amplitude and
// phase (degrees), error, SNR and flags. Tables round-trip through YAML and
// expose gonum matrices of amplitude and phase for summaries and plots.
package caltable
