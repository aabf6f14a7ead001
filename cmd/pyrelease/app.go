// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/pyrelease/pyrelease/internal/config"
	"github.com/pyrelease/pyrelease/internal/hosting"
	"github.com/pyrelease/pyrelease/internal/release"
	"github.com/pyrelease/pyrelease/internal/runner"
	"github.com/pyrelease/pyrelease/internal/tui"
)

// errConfigLoad marks failures to load the configuration.
var errConfigLoad = errors.New("configuration could not be loaded")

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		LoadWithPath(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// RemoteFactory builds the release lookup client for a configuration.
	RemoteFactory func(cfg *config.Config, token string) release.Remote

	// RunnerFactory builds the step runner for a runtime mode.
	RunnerFactory func(mode runner.Mode, logger *log.Logger) (runner.Runner, error)

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App reference.
	App struct {
		Config    ConfigProvider
		NewRemote RemoteFactory
		NewRunner RunnerFactory
		Fs        afero.Fs
		Prompter  release.Prompter
		Getenv    func(string) string
		Getwd     func() (string, error)

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		globals globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    ConfigProvider
		NewRemote RemoteFactory
		NewRunner RunnerFactory
		Fs        afero.Fs
		Prompter  release.Prompter
		Getenv    func(string) string
		Getwd     func() (string, error)
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// globalFlags holds the persistent root flags.
	globalFlags struct {
		configPath string
		verbosity  int
	}

	// tuiPrompter answers release confirmations with the terminal prompt.
	tuiPrompter struct {
		cfg tui.Config
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		NewRemote: deps.NewRemote,
		NewRunner: deps.NewRunner,
		Fs:        deps.Fs,
		Prompter:  deps.Prompter,
		Getenv:    deps.Getenv,
		Getwd:     deps.Getwd,
		stdin:     deps.Stdin,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
	}

	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.NewRemote == nil {
		app.NewRemote = newGitHubRemote
	}
	if app.NewRunner == nil {
		app.NewRunner = runner.New
	}
	if app.Fs == nil {
		app.Fs = afero.NewOsFs()
	}
	if app.Getenv == nil {
		app.Getenv = os.Getenv
	}
	if app.Getwd == nil {
		app.Getwd = os.Getwd
	}
	if app.stdin == nil {
		app.stdin = os.Stdin
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.Prompter == nil {
		cfg := tui.DefaultConfig()
		cfg.Input = app.stdin
		cfg.Output = app.stderr
		app.Prompter = &tuiPrompter{cfg: cfg}
	}

	return app
}

// Confirm implements release.Prompter.
func (p *tuiPrompter) Confirm(title string) (bool, error) {
	ok, err := tui.Confirm(tui.ConfirmOptions{
		Title:       title,
		Affirmative: "Continue",
		Negative:    "Abort",
		Default:     true,
		Config:      p.cfg,
	})
	if errors.Is(err, tui.ErrCancelled) {
		return false, nil
	}
	return ok, err
}

// loadConfig loads the configuration for the current working directory and
// the --config flag.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	wd, err := a.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errConfigLoad, err)
	}
	cfg, path, err := a.Config.LoadWithPath(ctx, config.LoadOptions{
		ConfigFilePath: a.globals.configPath,
		WorkDir:        wd,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errConfigLoad, err)
	}
	return cfg, path, nil
}

// newGitHubRemote builds the GitHub client from config and the token.
func newGitHubRemote(cfg *config.Config, token string) release.Remote {
	return hosting.NewClient(
		hosting.WithBaseURL(cfg.APIBaseURL),
		hosting.WithTimeout(cfg.Timeout),
		hosting.WithToken(token),
		hosting.WithUserAgent("pyrelease/"+Version),
	)
}
