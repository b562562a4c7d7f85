// SPDX-License-Identifier: MIT

package calibrater

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/viscal/caltable"
	"github.com/katalvlaran/viscal/sdb"
	"github.com/katalvlaran/viscal/solver"
	"github.com/katalvlaran/viscal/vis"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/katalvlaran/viscal/visequation"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ChannelSolve records one solver run of an interval.
type ChannelSolve struct {
	Channel   int
	OK        bool
	ZeroChiSq bool
	ChiSq     float64
	NDOF      int
	LowSNR    int // parameters flagged by the SNR threshold
	History   []solver.Step
}

// IntervalResult collects the solves of one solution interval.
type IntervalResult struct {
	Index  int
	Time   float64 // mean row time
	Solves []ChannelSolve
}

// Flagged reports whether no channel of the interval was solved.
func (r IntervalResult) Flagged() bool {
	for _, s := range r.Solves {
		if s.OK {
			return false
		}
	}

	return true
}

// Result is the outcome of Calibrater.Solve.
type Result struct {
	Table     *caltable.Table
	Intervals []IntervalResult
}

// Calibrater solves a term over solution intervals.
type Calibrater struct {
	opts Options
}

// New returns a calibrater.
func New(opts ...Option) *Calibrater {
	return &Calibrater{opts: gatherOptions(opts...)}
}

// Intervals groups consecutive buffers n at a time; the last group may be
// shorter.
func Intervals(vbs []*vis.Buffer, n int) ([][]*vis.Buffer, error) {
	if n < 1 {
		return nil, fmt.Errorf("Intervals(n=%d): %w", n, ErrInterval)
	}
	if len(vbs) == 0 {
		return nil, ErrNoData
	}

	out := make([][]*vis.Buffer, 0, (len(vbs)+n-1)/n)
	for lo := 0; lo < len(vbs); lo += n {
		out = append(out, vbs[lo:min(lo+n, len(vbs))])
	}

	return out, nil
}

// Solve fits proto to every interval of intervalLen buffers with the
// apply terms in front of it. proto and vbs are not modified.
// Stage 1 (Split): group the buffers into intervals.
// Stage 2 (Solve): one goroutine per interval, bounded by WithParallel.
// Stage 3 (Collect): rows go into the table in interval order.
func (c *Calibrater) Solve(ctx context.Context, proto *viscal.Term, apply []viscal.VisCal, vbs []*vis.Buffer, intervalLen int) (*Result, error) {
	if proto == nil {
		return nil, ErrNilTerm
	}
	groups, err := Intervals(vbs, intervalLen)
	if err != nil {
		return nil, fmt.Errorf("Calibrater.Solve: %w", err)
	}

	terms := make([]*viscal.Term, len(groups))
	results := make([]IntervalResult, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	if c.opts.parallel > 0 {
		g.SetLimit(c.opts.parallel)
	}
	for i, grp := range groups {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			term, res, err := c.solveInterval(i, proto, apply, grp)
			if err != nil {
				return fmt.Errorf("Calibrater.Solve: interval %d: %w", i, err)
			}
			terms[i], results[i] = term, res

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	tab := caltable.New(proto.Type(), proto.NAnt(), proto.NPar(), proto.NChanPar(), proto.RefAnt())
	nFlagged := 0
	for i, term := range terms {
		if err = tab.AddSolution(i, results[i].Time, term); err != nil {
			return nil, fmt.Errorf("Calibrater.Solve: %w", err)
		}
		if results[i].Flagged() {
			nFlagged++
		}
	}
	c.opts.log.WithFields(logrus.Fields{
		"term": proto.Name(), "intervals": len(groups), "flagged": nFlagged, "table": tab.ID,
	}).Info("calibration solved")

	return &Result{Table: tab, Intervals: results}, nil
}

// solveInterval works on private copies of the term and the buffers.
func (c *Calibrater) solveInterval(idx int, proto *viscal.Term, apply []viscal.VisCal, grp []*vis.Buffer) (*viscal.Term, IntervalResult, error) {
	res := IntervalResult{Index: idx, Time: meanTime(grp)}
	log := c.opts.log.WithFields(logrus.Fields{"interval": idx, "term": proto.Name()})

	term := proto.Clone()
	ve := visequation.New(visequation.WithLogger(c.opts.log))
	ve.SetApply(apply)
	ve.SetSolve(term)

	work := make([]*vis.Buffer, len(grp))
	for k, vb := range grp {
		work[k] = vb.Clone()
		if err := ve.Collapse(work[k]); err != nil {
			return nil, res, err
		}
	}

	chans := []int{sdb.AllChannels}
	if term.FreqDepPar() {
		chans = make([]int, term.NChanPar())
		for ch := range chans {
			chans[ch] = ch
		}
		for _, vb := range work {
			if vb.NChannel() != term.NChanPar() {
				return nil, res, fmt.Errorf("%d data channels for %d parameter channels: %w",
					vb.NChannel(), term.NChanPar(), ErrChannels)
			}
		}
	}

	for _, ch := range chans {
		focus := max(ch, 0)
		if err := term.SetFocusChan(focus); err != nil {
			return nil, res, err
		}
		list, err := sdb.FromVisBuffers(work, ch)
		if err != nil {
			return nil, res, err
		}

		sopts := append([]solver.Option{solver.WithLogger(log.WithField("channel", focus))}, c.opts.solverOpts...)
		s := solver.New(sopts...)
		ok, err := s.Solve(ve, term, list)
		cs := ChannelSolve{Channel: focus, OK: ok}
		switch {
		case errors.Is(err, solver.ErrZeroChiSq):
			cs.ZeroChiSq = true
		case err != nil:
			return nil, res, err
		}
		cs.ChiSq, cs.NDOF, cs.History = s.ChiSq(), s.NDOF(), s.History()
		if !ok {
			clear(term.SolveParOK())
			log.WithField("channel", focus).Warn("solution flagged")
		}
		res.Solves = append(res.Solves, cs)
	}

	if ref := term.RefAnt(); ref >= 0 {
		if err := term.ReReference(ref); err != nil {
			return nil, res, err
		}
	}
	for i, cs := range res.Solves {
		if !cs.OK {
			continue
		}
		if err := term.SetFocusChan(cs.Channel); err != nil {
			return nil, res, err
		}
		res.Solves[i].LowSNR = term.ApplySNRThreshold()
	}

	if err := term.SetFocusChan(0); err != nil {
		return nil, res, err
	}

	return term, res, nil
}

// meanTime averages the row times of every buffer.
func meanTime(vbs []*vis.Buffer) float64 {
	var times []float64
	for _, vb := range vbs {
		times = append(times, vb.Time()...)
	}
	if len(times) == 0 {
		return 0
	}

	return stat.Mean(times, nil)
}
