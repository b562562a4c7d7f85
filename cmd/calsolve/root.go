// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/katalvlaran/viscal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by the subcommands.
type app struct {
	v   *viper.Viper
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	root := &cobra.Command{
		Use:          "calsolve",
		Short:        "Simulate and solve antenna-based visibility calibration",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log, err := setupLogger(a.v.GetString("log.level"), a.v.GetString("log.format"), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.log = log

			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "scenario.yaml", "scenario file (YAML)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Int("interval", 0, "integrations per solution interval (overrides config)")
	pf.Int("refant", 0, "reference antenna, -1 disables (overrides config)")
	pf.Int("parallel", 0, "intervals solved at once, 0 = all (overrides config)")
	binds := map[string]string{
		"config":         "config",
		"log.level":      "log-level",
		"log.format":     "log-format",
		"solve.interval": "interval",
		"solve.refant":   "refant",
		"solve.parallel": "parallel",
	}
	for key, name := range binds {
		// every name is registered above
		if err := a.v.BindPFlag(key, pf.Lookup(name)); err != nil {
			panic(fmt.Sprintf("calsolve: bind %q: %v", key, err))
		}
	}

	root.AddCommand(newSimulateCmd(a), newSolveCmd(a))

	return root
}

// scenario reads the config file into the shared viper instance so that
// bound flags keep their precedence.
func (a *app) scenario() (*config.Scenario, error) {
	a.v.SetConfigFile(a.v.GetString("config"))
	a.v.SetConfigType("yaml")
	if err := a.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := config.FromViper(a.v)
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{
		"file": a.v.ConfigFileUsed(), "scenario": sc.Name, "antennas": sc.NAnt(),
	}).Debug("scenario loaded")

	return sc, nil
}

// setupLogger builds the process logger from the level and format flags.
func setupLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	switch strings.ToLower(format) {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (text|json)", format)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	log.SetLevel(lvl)

	return log, nil
}
