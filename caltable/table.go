// SPDX-License-Identifier: MIT

package caltable

import (
	"fmt"
	"math/cmplx"
	"sort"

	"github.com/google/uuid"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/soniakeys/unit"
)

// Row is one antenna's solution in one interval and parameter channel.
// Flag[p] is true when parameter p is not ok.
type Row struct {
	Interval int       `yaml:"interval"`
	Time     float64   `yaml:"time"`
	Antenna  int       `yaml:"antenna"`
	Channel  int       `yaml:"channel"`
	Amp      []float64 `yaml:"amp"`
	PhaseDeg []float64 `yaml:"phase_deg"`
	Err      []float64 `yaml:"err"`
	SNR      []float64 `yaml:"snr"`
	Flag     []bool    `yaml:"flag"`
}

// Params rebuilds the complex parameters.
func (r Row) Params() []complex128 {
	out := make([]complex128, len(r.Amp))
	for i := range out {
		out[i] = cmplx.Rect(r.Amp[i], unit.AngleFromDeg(r.PhaseDeg[i]).Rad())
	}

	return out
}

// Good reports whether every parameter of the row is ok.
func (r Row) Good() bool {
	for _, f := range r.Flag {
		if f {
			return false
		}
	}

	return true
}

// Table is a calibration table for one term type.
type Table struct {
	ID     string `yaml:"id"`
	Type   string `yaml:"type"`
	NAnt   int    `yaml:"nant"`
	NPar   int    `yaml:"npar"`
	NChan  int    `yaml:"nchan"`
	RefAnt int    `yaml:"refant"`
	Rows   []Row  `yaml:"rows"`
}

// New returns an empty table with a fresh identifier.
func New(typ viscal.Type, nAnt, nPar, nChan, refAnt int) *Table {
	return &Table{
		ID: uuid.NewString(), Type: typ.String(),
		NAnt: nAnt, NPar: nPar, NChan: nChan, RefAnt: refAnt,
	}
}

// AddSolution appends one row per parameter channel and antenna of term
// for the given interval. The term's focus channel is restored afterwards.
// Complexity: O(nChan*nAnt*nPar).
func (t *Table) AddSolution(interval int, time float64, term *viscal.Term) error {
	if term.NAnt() != t.NAnt || term.NPar() != t.NPar || term.NChanPar() != t.NChan {
		return fmt.Errorf("Table.AddSolution: term %d/%d/%d, table %d/%d/%d: %w",
			term.NAnt(), term.NPar(), term.NChanPar(), t.NAnt, t.NPar, t.NChan, ErrShape)
	}
	focus := term.FocusChan()
	defer func() { _ = term.SetFocusChan(focus) }()

	for ch := 0; ch < t.NChan; ch++ {
		if err := term.SetFocusChan(ch); err != nil {
			return fmt.Errorf("Table.AddSolution: %w", err)
		}
		par, ok, perr := term.SolveCPar(), term.SolveParOK(), term.SolveParErr()
		snr := term.FormSNR()
		for a := 0; a < t.NAnt; a++ {
			lo := a * t.NPar
			row := Row{
				Interval: interval, Time: time, Antenna: a, Channel: ch,
				Amp: make([]float64, t.NPar), PhaseDeg: make([]float64, t.NPar),
				Err:  append([]float64(nil), perr[lo:lo+t.NPar]...),
				SNR:  append([]float64(nil), snr[lo:lo+t.NPar]...),
				Flag: make([]bool, t.NPar),
			}
			for p := 0; p < t.NPar; p++ {
				row.Amp[p] = cmplx.Abs(par[lo+p])
				row.PhaseDeg[p] = unit.Angle(cmplx.Phase(par[lo+p])).Deg()
				row.Flag[p] = !ok[lo+p]
			}
			t.Rows = append(t.Rows, row)
		}
	}

	return nil
}

// Sort orders rows by interval, channel and antenna.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if a.Interval != b.Interval {
			return a.Interval < b.Interval
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}

		return a.Antenna < b.Antenna
	})
}

// NInterval returns one past the largest interval index.
func (t *Table) NInterval() int {
	n := 0
	for _, r := range t.Rows {
		n = max(n, r.Interval+1)
	}

	return n
}

// Lookup returns the row of (interval, ch, ant).
func (t *Table) Lookup(interval, ch, ant int) (Row, error) {
	for _, r := range t.Rows {
		if r.Interval == interval && r.Channel == ch && r.Antenna == ant {
			return r, nil
		}
	}

	return Row{}, fmt.Errorf("Table.Lookup(%d,%d,%d): %w", interval, ch, ant, ErrNotFound)
}

// Validate checks the identifier and every row against the layout.
func (t *Table) Validate() error {
	if _, err := uuid.Parse(t.ID); err != nil {
		return fmt.Errorf("Table.Validate: %q: %w", t.ID, ErrBadID)
	}
	if _, err := viscal.ParseType(t.Type); err != nil {
		return fmt.Errorf("Table.Validate: %w", err)
	}
	for i, r := range t.Rows {
		if r.Antenna < 0 || r.Antenna >= t.NAnt || r.Channel < 0 || r.Channel >= t.NChan || r.Interval < 0 {
			return fmt.Errorf("Table.Validate: row %d index: %w", i, ErrShape)
		}
		if len(r.Amp) != t.NPar || len(r.PhaseDeg) != t.NPar || len(r.Err) != t.NPar ||
			len(r.SNR) != t.NPar || len(r.Flag) != t.NPar {
			return fmt.Errorf("Table.Validate: row %d lengths: %w", i, ErrShape)
		}
	}

	return nil
}
