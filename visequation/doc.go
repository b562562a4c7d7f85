// Package visequation orders calibration terms along the signal path and
// drives them over visibility buffers.
//
// Terms are kept stably sorted by viscal.Type. Relative to a solvable term
// S, every applied term with Type < S.Type() sits on the data side and is
// removed from the observed data by correction (lowest Type first); every
// term with Type >= S.Type() sits on the model side and is applied to the
// model by corruption (highest Type first). Collapse performs both steps,
// optionally frequency-averaging in between, so that the solver compares
// corrected data against a model corrupted by everything but S.
package visequation
