// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"

	"github.com/katalvlaran/viscal/calibrater"
	"github.com/katalvlaran/viscal/caltable"
	"github.com/katalvlaran/viscal/config"
	"github.com/katalvlaran/viscal/report"
	"github.com/katalvlaran/viscal/sim"
	"github.com/katalvlaran/viscal/solver"
	"github.com/katalvlaran/viscal/viscal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newSolveCmd(a *app) *cobra.Command {
	var out, plotPath, gainPath string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Simulate the scenario, solve every interval and write the cal table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := a.scenario()
			if err != nil {
				return err
			}
			s, err := sim.New(sc, sim.WithLogger(a.log))
			if err != nil {
				return err
			}
			vbs, err := s.Run()
			if err != nil {
				return err
			}
			proto, err := protoTerm(sc, a.log)
			if err != nil {
				return err
			}
			apply, err := applyTerms(s, proto.Type())
			if err != nil {
				return err
			}

			cal := calibrater.New(
				calibrater.WithLogger(a.log),
				calibrater.WithParallel(sc.Solve.Parallel),
				calibrater.WithSolverOptions(solver.WithMaxIter(sc.Solve.MaxIter), solver.WithOptStep(sc.Solve.OptStep)),
			)
			res, err := cal.Solve(cmd.Context(), proto, apply, vbs, sc.Solve.Interval)
			if err != nil {
				return err
			}

			if out == "-" {
				if err = res.Table.Encode(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				if err = res.Table.Save(out); err != nil {
					return err
				}
				if err = writeGains(cmd.OutOrStdout(), res.Table); err != nil {
					return err
				}
			}

			return writePlots(res, plotPath, gainPath)
		},
	}
	cmd.Flags().StringVar(&out, "out", "-", "cal table path, - for stdout")
	cmd.Flags().StringVar(&plotPath, "plot", "", "chi-square convergence plot (.png, .svg, .pdf)")
	cmd.Flags().StringVar(&gainPath, "gain-plot", "", "gain amplitude plot (.png, .svg, .pdf)")

	return cmd
}

// protoTerm builds the unsolved term; frequency-dependent types get one
// parameter channel per data channel.
func protoTerm(sc *config.Scenario, log logrus.FieldLogger) (*viscal.Term, error) {
	typ, err := sc.SolveType()
	if err != nil {
		return nil, err
	}
	opts := []viscal.Option{
		viscal.WithMinBlPerAnt(sc.Solve.MinBlPerAnt),
		viscal.WithRefAnt(sc.Solve.RefAnt),
		viscal.WithMinSNR(sc.Solve.MinSNR),
		viscal.WithLogger(log),
	}
	term, err := viscal.New(typ, sc.NAnt(), 1, opts...)
	if err != nil {
		return nil, err
	}
	if term.FreqDepPar() {
		return viscal.New(typ, sc.NAnt(), sc.Observation.Channels, opts...)
	}

	return term, nil
}

// applyTerms returns the true terms other than the solved type; they are
// treated as already known.
func applyTerms(s *sim.Simulator, solve viscal.Type) ([]viscal.VisCal, error) {
	all, err := s.TrueTerms()
	if err != nil {
		return nil, err
	}
	var out []viscal.VisCal
	for _, vc := range all {
		if vc.Type() != solve {
			out = append(out, vc)
		}
	}

	return out, nil
}

// writeGains prints the per-antenna summary of the first parameter.
func writeGains(w io.Writer, tab *caltable.Table) error {
	sum, err := tab.Summarize(0, 0)
	if err != nil {
		return err
	}
	if _, err = fmt.Fprintf(w, "table %s (%s), %d intervals\n", tab.ID, tab.Type, tab.NInterval()); err != nil {
		return err
	}
	for _, s := range sum {
		if _, err = fmt.Fprintf(w, "ant %2d  good %3d  amp %.6f ± %.2g  phase %9.4f ± %.2g deg\n",
			s.Antenna, s.NGood, s.MeanAmp, s.StdAmp, s.MeanPhase, s.StdPhase); err != nil {
			return err
		}
	}

	return nil
}

func writePlots(res *calibrater.Result, plotPath, gainPath string) error {
	if plotPath != "" {
		p, err := report.Convergence(res.Intervals)
		if err != nil {
			return err
		}
		if err = report.Save(plotPath, p); err != nil {
			return err
		}
	}
	if gainPath != "" {
		p, err := report.Gains(res.Table, 0, 0)
		if err != nil {
			return err
		}
		if err = report.Save(gainPath, p); err != nil {
			return err
		}
	}

	return nil
}
