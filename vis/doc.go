// Package vis holds the visibility buffer consumed by the calibration
// apply and solve paths: one chunk of rows (baselines × integrations) with
// observed, model and corrected cubes, flags, weights and sigmas.
//
// Cube layout follows package cube ([nCorr][nChan][nRow]); weights and
// sigmas are [nRow][nCorr] matrices. Correlation order is whatever the
// producer wrote; SortCorr permutes every correlation-indexed container
// into the canonical order expected by the Jones algebra
// ([XX XY YX YY] or [RR RL LR LL]) and UnSortCorr restores it.
package vis
