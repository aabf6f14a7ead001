// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRunner executes programs through the mvdan/sh interpreter. Each
// Command becomes a one-line script with every argument quoted, except glob
// patterns when ExpandGlobs is set.
type VirtualRunner struct {
	logger *log.Logger
}

// NewVirtualRunner creates a virtual runner.
func NewVirtualRunner(logger *log.Logger) *VirtualRunner {
	return &VirtualRunner{logger: logger}
}

// Name returns the runner name.
func (r *VirtualRunner) Name() string {
	return string(ModeVirtual)
}

// Run interprets the command line and waits for it to finish.
func (r *VirtualRunner) Run(ctx context.Context, c Command) *Result {
	if c.Path == "" {
		return errorResult(errors.New("no program to execute"))
	}

	script, err := r.script(c)
	if err != nil {
		return errorResult(err)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(script), c.Path)
	if err != nil {
		return errorResult(fmt.Errorf("failed to parse command: %w", err))
	}

	dir := c.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return errorResult(fmt.Errorf("resolving working directory: %w", err))
		}
	}

	opts := []interp.RunnerOption{
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), c.Env...)...)),
		interp.StdIO(c.Stdin, orDiscard(c.Stdout), orDiscard(c.Stderr)),
		interp.ExecHandlers(r.logExec),
	}

	sh, err := interp.New(opts...)
	if err != nil {
		return errorResult(fmt.Errorf("failed to create interpreter: %w", err))
	}

	if err := sh.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &Result{ExitCode: ExitCode(exitStatus)}
		}
		return errorResult(fmt.Errorf("command execution failed: %w", err))
	}

	return &Result{}
}

// script renders c as a single shell command line.
func (r *VirtualRunner) script(c Command) (string, error) {
	words := make([]string, 0, 1+len(c.Args))

	quoted, err := syntax.Quote(c.Path, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("quoting %q: %w", c.Path, err)
	}
	words = append(words, quoted)

	for _, arg := range c.Args {
		if c.ExpandGlobs && isGlobPattern(arg) {
			words = append(words, arg)
			continue
		}
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quoting %q: %w", arg, err)
		}
		words = append(words, q)
	}

	return strings.Join(words, " "), nil
}

// logExec is an exec middleware recording every program the interpreter starts.
func (r *VirtualRunner) logExec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if r.logger != nil {
			hc := interp.HandlerCtx(ctx)
			r.logger.Debug("exec", "runner", r.Name(), "cmd", strings.Join(args, " "), "dir", hc.Dir)
		}
		return next(ctx, args)
	}
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
