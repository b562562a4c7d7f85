// SPDX-License-Identifier: MIT

package report

import "errors"

var (
	// ErrNoData is returned when there is nothing to draw.
	ErrNoData = errors.New("report: nothing to plot")

	// ErrFormat indicates an unsupported output format.
	ErrFormat = errors.New("report: unsupported format")
)
