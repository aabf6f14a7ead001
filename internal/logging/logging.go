// SPDX-License-Identifier: MPL-2.0

// Package logging builds the charmbracelet/log logger used across pyrelease
// from the 0-5 verbosity scale of the CLI.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Prefix is shown in front of every log line.
const Prefix = "release"

// LevelFor maps a verbosity to a log level:
// 0 fatal, 1 error, 2 warn, 3 info, 4 and above debug.
func LevelFor(verbosity int) log.Level {
	switch {
	case verbosity <= 0:
		return log.FatalLevel
	case verbosity == 1:
		return log.ErrorLevel
	case verbosity == 2:
		return log.WarnLevel
	case verbosity == 3:
		return log.InfoLevel
	default:
		return log.DebugLevel
	}
}

// New returns a logger writing to w at the level for verbosity. Verbosity 5
// also reports timestamps and the calling location.
func New(w io.Writer, verbosity int) *log.Logger {
	trace := verbosity >= 5
	return log.NewWithOptions(w, log.Options{
		Prefix:          Prefix,
		Level:           LevelFor(verbosity),
		ReportTimestamp: trace,
		ReportCaller:    trace,
	})
}
