// SPDX-License-Identifier: MIT

// Command calsolve simulates calibrator observations from a YAML scenario
// and solves them for antenna-based gains.
//
//	calsolve simulate --config scenario.yaml
//	calsolve solve --config scenario.yaml --out cal.yaml --plot chi2.png
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
