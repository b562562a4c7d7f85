// SPDX-License-Identifier: MIT

package caltable

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// AmplitudeMatrix returns the [nInterval][nAnt] amplitudes of parameter
// par in channel ch. Flagged or missing entries are NaN.
func (t *Table) AmplitudeMatrix(ch, par int) (*mat.Dense, error) {
	return t.matrix(ch, par, func(r Row) float64 { return r.Amp[par] })
}

// PhaseMatrix is AmplitudeMatrix for phases in degrees.
func (t *Table) PhaseMatrix(ch, par int) (*mat.Dense, error) {
	return t.matrix(ch, par, func(r Row) float64 { return r.PhaseDeg[par] })
}

func (t *Table) matrix(ch, par int, get func(Row) float64) (*mat.Dense, error) {
	nInt := t.NInterval()
	if ch < 0 || ch >= t.NChan || par < 0 || par >= t.NPar || nInt == 0 {
		return nil, fmt.Errorf("Table.matrix(ch=%d, par=%d): %w", ch, par, ErrShape)
	}
	data := make([]float64, nInt*t.NAnt)
	for i := range data {
		data[i] = math.NaN()
	}
	m := mat.NewDense(nInt, t.NAnt, data)
	for _, r := range t.Rows {
		if r.Channel == ch && !r.Flag[par] {
			m.Set(r.Interval, r.Antenna, get(r))
		}
	}

	return m, nil
}

// AntennaSummary aggregates one antenna's unflagged solutions of one
// parameter over intervals.
type AntennaSummary struct {
	Antenna   int
	NGood     int
	MeanAmp   float64
	StdAmp    float64
	MeanPhase float64 // degrees
	StdPhase  float64
}

// Summarize reduces AmplitudeMatrix and PhaseMatrix column by column.
func (t *Table) Summarize(ch, par int) ([]AntennaSummary, error) {
	amp, err := t.AmplitudeMatrix(ch, par)
	if err != nil {
		return nil, err
	}
	ph, err := t.PhaseMatrix(ch, par)
	if err != nil {
		return nil, err
	}

	out := make([]AntennaSummary, t.NAnt)
	for a := range out {
		av, pv := goodValues(mat.Col(nil, a, amp)), goodValues(mat.Col(nil, a, ph))
		s := AntennaSummary{Antenna: a, NGood: len(av)}
		if len(av) > 0 {
			s.MeanAmp, s.StdAmp = stat.MeanStdDev(av, nil)
			s.MeanPhase, s.StdPhase = stat.MeanStdDev(pv, nil)
		}
		if len(av) < 2 {
			s.StdAmp, s.StdPhase = 0, 0
		}
		out[a] = s
	}

	return out, nil
}

func goodValues(col []float64) []float64 {
	out := col[:0]
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}

	return out
}
