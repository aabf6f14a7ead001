// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/cobra"

	"github.com/pyrelease/pyrelease/internal/config"
	"github.com/pyrelease/pyrelease/internal/hosting"
	"github.com/pyrelease/pyrelease/internal/issue"
	"github.com/pyrelease/pyrelease/internal/logging"
	"github.com/pyrelease/pyrelease/internal/release"
	"github.com/pyrelease/pyrelease/internal/runner"
	"github.com/pyrelease/pyrelease/internal/version"
)

const uploaderEnv = "PYRELEASE_UPLOADER_PATH"

type (
	// releaseFlags holds the flags of the release and check commands.
	releaseFlags struct {
		pkg          string
		clean        int
		uploaderPath string
		yes          bool
		dryRun       bool
		noPull       bool
		runtime      string
	}

	// releaseParams is the resolved input of one release run.
	releaseParams struct {
		options   release.Options
		cfg       *config.Config
		runtime   runner.Mode
		verbosity int
	}
)

func newReleaseCommand(app *App) *cobra.Command {
	flags := &releaseFlags{}

	cmd := &cobra.Command{
		Use:   "release [account]",
		Short: "Build, tag and publish the package when its version is new",
		Long: `Release the Python package in the current directory.

The version declared in <package>/__init__.py is compared with the latest
release on github.com/<account>/<package>. When it is strictly greater, or no
release exists yet, pyrelease runs in order:

  python setup.py bdist_wheel
  python setup.py sdist
  pip install -U dist/<package>-<version>-py3-none-any.whl
  git add . && git commit -m v<version>
  git tag -a v<version> -m v<version> && git push origin --tags
  twine upload dist/*

and stops at the first failing step. The account defaults to the config key
'account'. Set GITHUB_TOKEN for private repositories.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := app.releaseParams(cmd, args, flags)
			if err != nil {
				return err
			}
			return app.runRelease(cmd.Context(), params)
		},
	}

	cmd.Flags().StringVarP(&flags.pkg, "package", "p", "", "package name (default: first non-excluded subdirectory)")
	cmd.Flags().IntVarP(&flags.clean, "clean", "c", 1, "remove dist, build and <package>.egg-info before building (0 or 1)")
	cmd.Flags().StringVar(&flags.uploaderPath, "uploader-path", "", "twine executable (env "+uploaderEnv+")")
	cmd.Flags().BoolVarP(&flags.yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "print the plan without running any step")
	cmd.Flags().BoolVar(&flags.noPull, "no-pull", false, "skip git pull before the version lookup")
	cmd.Flags().StringVar(&flags.runtime, "runtime", "", "step runner: native or virtual (default from config)")

	return cmd
}

// releaseParams resolves flags, environment and config into a releaseParams.
// Precedence is flags, then environment, then config file, then defaults.
func (a *App) releaseParams(cmd *cobra.Command, args []string, flags *releaseFlags) (releaseParams, error) {
	cfg, cfgPath, err := a.loadConfig(cmd.Context())
	if err != nil {
		return releaseParams{}, a.reportFailure(err, a.globals.verbosity)
	}

	verbosity := int(cfg.Verbosity)
	if cmd.Flags().Changed("verbosity") {
		verbosity = a.globals.verbosity
	}
	if verbosity < release.MinVerbosity || verbosity > release.MaxVerbosity {
		return releaseParams{}, fmt.Errorf("%w: %d (must be %d-%d)", release.ErrInvalidVerbosity, verbosity, release.MinVerbosity, release.MaxVerbosity)
	}

	account := cfg.Account
	if len(args) > 0 {
		account = args[0]
	}

	clean := cfg.Clean
	if cmd.Flags().Changed("clean") {
		switch flags.clean {
		case 0:
			clean = false
		case 1:
			clean = true
		default:
			return releaseParams{}, fmt.Errorf("invalid --clean value %d (must be 0 or 1)", flags.clean)
		}
	}

	mode := runner.Mode(cfg.Runtime)
	if flags.runtime != "" {
		mode = runner.Mode(flags.runtime)
		if valid, errs := config.RuntimeMode(flags.runtime).IsValid(); !valid {
			return releaseParams{}, errs[0]
		}
	}

	uploader := cfg.UploaderPath
	if flags.uploaderPath != "" {
		uploader = flags.uploaderPath
	}

	wd, err := a.Getwd()
	if err != nil {
		return releaseParams{}, err
	}

	if cfgPath != "" {
		logging.New(a.stderr, verbosity).Debug("loaded config", "path", cfgPath)
	}

	return releaseParams{
		options: release.Options{
			Account:      strings.TrimSpace(account),
			Package:      flags.pkg,
			WorkDir:      wd,
			MetadataFile: cfg.MetadataFile,
			Python:       cfg.Python,
			Pip:          cfg.Pip,
			UploaderPath: uploader,
			Clean:        clean,
			Pull:         cfg.Pull && !flags.noPull,
			DryRun:       flags.dryRun,
			AssumeYes:    flags.yes,
			Verbosity:    verbosity,
			ExcludeDirs:  cfg.ExcludeDirs,
		},
		cfg:       cfg,
		runtime:   mode,
		verbosity: verbosity,
	}, nil
}

// newOrchestrator builds an orchestrator for params.
func (a *App) newOrchestrator(p releaseParams) (*release.Orchestrator, error) {
	logger := logging.New(a.stderr, p.verbosity)

	r, err := a.NewRunner(p.runtime, logger)
	if err != nil {
		return nil, err
	}

	remote := a.NewRemote(p.cfg, a.Getenv("GITHUB_TOKEN"))

	return release.New(r, remote,
		release.WithFs(a.Fs),
		release.WithLogger(logger),
		release.WithInput(a.stdin),
		release.WithOutput(a.stdout, a.stderr),
		release.WithPrompter(a.Prompter),
	), nil
}

// runRelease executes a release and reports the outcome.
func (a *App) runRelease(ctx context.Context, p releaseParams) error {
	orch, err := a.newOrchestrator(p)
	if err != nil {
		return a.reportFailure(err, p.verbosity)
	}

	report, err := orch.Run(ctx, p.options)
	if errors.Is(err, release.ErrAborted) {
		fmt.Fprintln(a.stderr, WarningStyle.Render("Aborted by user."))
		return nil
	}
	if err != nil {
		if report != nil && len(report.Completed) > 0 {
			fmt.Fprintf(a.stderr, "%s %s\n", SubtitleStyle.Render("Completed before the failure:"), strings.Join(report.Completed, ", "))
		}
		return a.reportFailure(err, p.verbosity)
	}

	printReleaseSummary(a.stdout, report)
	a.explainLookup(report, p.verbosity)
	return nil
}

// explainLookup renders the catalog entry for a release lookup that could not
// reach the repository.
func (a *App) explainLookup(report *release.Report, verbosity int) {
	if report.Remote.State == hosting.StateUnreachable && verbosity >= release.DefaultVerbosity {
		a.renderIssue(issue.RemoteUnreachableId)
	}
}

// renderIssue writes the catalog entry for id to stderr.
func (a *App) renderIssue(id issue.Id) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	if rendered, err := entry.Render(styles.AutoStyle); err == nil {
		fmt.Fprint(a.stderr, rendered)
	}
}

// printReleaseSummary writes the plan of a dry run or the steps a release completed.
func printReleaseSummary(w io.Writer, report *release.Report) {
	switch {
	case report.DryRun && len(report.Planned) > 0:
		fmt.Fprintln(w, TitleStyle.Render("Release plan"))
		for i, line := range report.Planned {
			fmt.Fprintf(w, "  %2d. %s\n", i+1, CmdStyle.Render(line))
		}
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("skipped:"), s)
		}
	case report.Proceed && len(report.Completed) > 0:
		fmt.Fprintf(w, "%s Released %s %s\n", SuccessStyle.Render("✓"), report.Package, report.Local.Tag())
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("skipped:"), s)
		}
	case !report.Proceed:
		fmt.Fprintf(w, "Nothing to release: %s\n", report.Reason)
	}
}

// classifyReleaseError maps a release failure to its catalog entry and exit code.
func classifyReleaseError(err error) (issue.Id, int) {
	var stepErr *release.StepError
	switch {
	case errors.Is(err, errConfigLoad):
		return issue.ConfigLoadFailedId, exitUserError
	case errors.Is(err, version.ErrMetadataMissing):
		return issue.MetadataMissingId, exitUserError
	case errors.Is(err, version.ErrVersionNotFound), errors.Is(err, version.ErrInvalidVersion):
		return issue.VersionNotFoundId, exitUserError
	case errors.Is(err, release.ErrPackageNotFound):
		return issue.PackageNotFoundId, exitUserError
	case errors.Is(err, release.ErrAccountRequired), errors.Is(err, release.ErrInvalidVerbosity),
		errors.Is(err, runner.ErrUnknownMode):
		return 0, exitUserError
	case errors.As(err, &stepErr):
		return issue.StepFailedId, exitStepFailed
	}
	return 0, exitStepFailed
}

// toActionable wraps err with the operation and suggestions for its catalog entry.
func toActionable(err error, id issue.Id) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ctx := issue.NewErrorContext().WithIssue(id).Wrap(err)
	var stepErr *release.StepError
	switch {
	case id == issue.ConfigLoadFailedId:
		ctx.WithOperation("load configuration").
			WithSuggestion("Run 'pyrelease config dump' to check the effective configuration")
	case id == issue.MetadataMissingId:
		ctx.WithOperation("read version").
			WithSuggestion("Run pyrelease from the project root or pass --package")
	case id == issue.VersionNotFoundId:
		ctx.WithOperation("read version").
			WithSuggestion("Declare the version as __version__ = '1.2.3'")
	case id == issue.PackageNotFoundId:
		ctx.WithOperation("infer package").
			WithSuggestion("Pass the package name with --package")
	case errors.As(err, &stepErr):
		ctx.WithOperation("release").
			WithResource(stepErr.Step).
			WithSuggestion("Re-run with --verbosity 4 to see every command")
	case errors.Is(err, release.ErrAccountRequired):
		ctx.WithOperation("release").
			WithSuggestion("Pass the GitHub account as the first argument or set 'account' in the config")
	default:
		ctx.WithOperation("release")
	}
	return ctx.BuildError()
}

// reportFailure prints err with its catalog entry and returns the ExitError
// carrying its exit code.
func (a *App) reportFailure(err error, verbosity int) error {
	id, code := classifyReleaseError(err)
	err = toActionable(err, id)

	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbosity >= 4))
	if verbosity >= release.DefaultVerbosity {
		a.renderIssue(id)
	}

	return &ExitError{Code: code}
}
