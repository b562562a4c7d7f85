// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/katalvlaran/viscal/calibrater"
	"github.com/katalvlaran/viscal/caltable"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Default output size.
const (
	DefaultWidth  = 16 * vg.Centimeter
	DefaultHeight = 10 * vg.Centimeter
)

// Convergence plots chi-square against iteration on a log axis, one line
// per solver run. Runs without history (skipped solves) are left out.
func Convergence(intervals []calibrater.IntervalResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Solver convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "chi-square"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	n := 0
	for _, ir := range intervals {
		for _, cs := range ir.Solves {
			if len(cs.History) == 0 {
				continue
			}
			xys := make(plotter.XYs, len(cs.History))
			for i, st := range cs.History {
				xys[i] = plotter.XY{X: float64(st.Iter), Y: st.ChiSq}
			}
			l, err := plotter.NewLine(xys)
			if err != nil {
				return nil, fmt.Errorf("report.Convergence: interval %d: %w", ir.Index, err)
			}
			l.Color = plotutil.Color(n)
			l.Dashes = plotutil.Dashes(n / len(plotutil.DefaultColors))
			p.Add(l)
			name := fmt.Sprintf("interval %d", ir.Index)
			if len(ir.Solves) > 1 {
				name += fmt.Sprintf(" ch %d", cs.Channel)
			}
			p.Legend.Add(name, l)
			n++
		}
	}
	if n == 0 {
		return nil, fmt.Errorf("report.Convergence: %w", ErrNoData)
	}
	p.Legend.Top = true

	return p, nil
}

// Gains plots the amplitude of parameter par in channel ch against the
// solution interval, one line with points per antenna. Flagged solutions
// are gaps.
func Gains(tab *caltable.Table, ch, par int) (*plot.Plot, error) {
	amp, err := tab.AmplitudeMatrix(ch, par)
	if err != nil {
		return nil, fmt.Errorf("report.Gains: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s amplitudes (channel %d, parameter %d)", tab.Type, ch, par)
	p.X.Label.Text = "interval"
	p.Y.Label.Text = "amplitude"

	nInt, nAnt := amp.Dims()
	drawn := 0
	for a := 0; a < nAnt; a++ {
		xys := make(plotter.XYs, 0, nInt)
		for i := 0; i < nInt; i++ {
			if v := amp.At(i, a); !math.IsNaN(v) {
				xys = append(xys, plotter.XY{X: float64(i), Y: v})
			}
		}
		if len(xys) == 0 {
			continue
		}
		l, s, err := plotter.NewLinePoints(xys)
		if err != nil {
			return nil, fmt.Errorf("report.Gains: antenna %d: %w", a, err)
		}
		l.Color = plotutil.Color(a)
		s.Color = plotutil.Color(a)
		s.Shape = plotutil.Shape(a)
		p.Add(l, s)
		p.Legend.Add(fmt.Sprintf("ant %d", a), l, s)
		drawn++
	}
	if drawn == 0 {
		return nil, fmt.Errorf("report.Gains: every solution flagged: %w", ErrNoData)
	}

	return p, nil
}

// Write renders p in format (svg, png, pdf, ...) at the default size.
func Write(w io.Writer, p *plot.Plot, format string) error {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, strings.ToLower(format))
	if err != nil {
		return fmt.Errorf("report.Write(%q): %w: %w", format, ErrFormat, err)
	}
	_, err = wt.WriteTo(w)

	return err
}

// Save writes p to path; the extension selects the format.
func Save(path string, p *plot.Plot) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return fmt.Errorf("report.Save(%q): no extension: %w", path, ErrFormat)
	}

	return p.Save(DefaultWidth, DefaultHeight, path)
}
