// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

const keyCtrlC = "ctrl+c"

// ErrCancelled is returned when the user cancels a prompt with Esc or Ctrl+C.
var ErrCancelled = errors.New("user cancelled")

// Config holds common configuration for TUI components.
type Config struct {
	// Accessible selects the line-based prompt instead of the Bubble Tea model.
	Accessible bool
	// Input is where answers are read from (default os.Stdin).
	Input io.Reader
	// Output is where the prompt is written (default os.Stderr).
	Output io.Writer
}

// DefaultConfig returns the configuration for the current process. Accessible
// mode is enabled when stdin is not a terminal or ACCESSIBLE is set.
//
// Prompts go to stderr so they are never mixed into report output on stdout.
func DefaultConfig() Config {
	return Config{
		Accessible: !isInputTerminal() || os.Getenv("ACCESSIBLE") != "",
		Input:      os.Stdin,
		Output:     os.Stderr,
	}
}

// isInputTerminal returns true if stdin is connected to a terminal.
func isInputTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (c Config) input() io.Reader {
	if c.Input == nil {
		return os.Stdin
	}
	return c.Input
}

func (c Config) output() io.Writer {
	if c.Output == nil {
		return os.Stderr
	}
	return c.Output
}
