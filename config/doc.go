// Package config loads the YAML scenario used by the calsolve command: the
// simulated array and its true gains, the observation layout and the solve
// settings. Files are read with viper; phases are given in degrees.
package config
