// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/pyrelease/pyrelease/internal/issue"
	"github.com/pyrelease/pyrelease/internal/release"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pyrelease",
		Short: "Release Python packages to GitHub and PyPI",
		Long: TitleStyle.Render("pyrelease") + SubtitleStyle.Render(" - Release Python packages to GitHub and PyPI") + `

pyrelease reads __version__ from your package, compares it with the latest
GitHub release and, when it is newer, builds the wheel and sdist, installs
the wheel, commits, tags and pushes, then uploads with twine.

` + SubtitleStyle.Render("Examples:") + `
  pyrelease release erdogant             Release the package in the current directory
  pyrelease release erdogant -p pca -y   Release pca without prompts
  pyrelease check erdogant               Show what a release would decide
  pyrelease zip build/docs               Create build/docs.zip
  pyrelease config show                  Show current configuration`,
		SilenceUsage: true,
	}

	rootCmd.SetIn(app.stdin)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	rootCmd.PersistentFlags().StringVar(&app.globals.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/pyrelease/config.cue)")
	rootCmd.PersistentFlags().IntVarP(&app.globals.verbosity, "verbosity", "v", release.DefaultVerbosity, "output level: 0 fatal, 1 error, 2 warn, 3 info with prompts, 4 debug, 5 trace")

	rootCmd.AddCommand(newReleaseCommand(app))
	rootCmd.AddCommand(newCheckCommand(app))
	rootCmd.AddCommand(newZipCommand(app))
	rootCmd.AddCommand(newUnzipCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the resulting code.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithErrorHandler(handleError),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode returns the process exit code for an error returned by the root command.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitUserError
}

// handleError prints errors that command handlers have not reported yet.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
