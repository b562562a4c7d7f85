// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"math/cmplx"

	"github.com/katalvlaran/viscal/config"
	"github.com/katalvlaran/viscal/sim"
	"github.com/katalvlaran/viscal/vis"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

func newSimulateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Simulate the scenario and print one line per integration",
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

			return writeSummary(cmd.OutOrStdout(), sc, vbs)
		},
	}
}

// writeSummary prints the layout and the mean visibility amplitude of the
// unflagged cross-correlations per integration.
func writeSummary(w io.Writer, sc *config.Scenario, vbs []*vis.Buffer) error {
	o := sc.Observation
	if _, err := fmt.Fprintf(w, "scenario %s: %d antennas, %d corrs, %d channels, noise %g\n",
		sc.Name, sc.NAnt(), o.Corrs, o.Channels, o.Noise); err != nil {
		return err
	}
	for k, vb := range vbs {
		var amps []float64
		for row := 0; row < vb.NRow(); row++ {
			if vb.FlagRow()[row] || vb.Antenna1()[row] == vb.Antenna2()[row] {
				continue
			}
			for ch := 0; ch < vb.NChannel(); ch++ {
				for _, v := range vb.VisCube().Cell(ch, row) {
					amps = append(amps, cmplx.Abs(v))
				}
			}
		}
		mean := 0.0
		if len(amps) > 0 {
			mean = stat.Mean(amps, nil)
		}
		if _, err := fmt.Fprintf(w, "integration %3d  time %8.1f  rows %3d  mean|V| %.6f\n",
			k, vb.Time()[0], vb.NRow(), mean); err != nil {
			return err
		}
	}

	return nil
}
