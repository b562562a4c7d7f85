// Package calibrater drives the solve of one calibration term over a
// sequence of visibility buffers.
//
// Overview:
//
//   - Intervals groups consecutive buffers into solution intervals.
//   - Every interval is solved on its own clone of the prototype term, its
//     own visibility equation and its own copies of the buffers, so
//     intervals run concurrently under an errgroup.
//   - Each interval is collapsed, turned into solve data buffers (one list
//     per parameter channel for frequency-dependent terms), solved,
//     re-referenced and thresholded on SNR.
//   - Results are stored in a caltable.Table in interval order. Intervals
//     without enough data, or whose model already fits exactly, are stored
//     as flagged rows.
//
// The apply terms are shared read-only between goroutines.
package calibrater
