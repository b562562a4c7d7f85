// Package report renders solve diagnostics as plots: the chi-square
// convergence of every solver run and the solved gain amplitudes per
// antenna across solution intervals. Plots are gonum/plot values and can be
// written in any format plot.WriterTo supports (svg, png, pdf, ...).
package report
