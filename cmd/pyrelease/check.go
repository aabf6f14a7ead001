// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pyrelease/pyrelease/internal/hosting"
	"github.com/pyrelease/pyrelease/internal/release"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newCheckCommand(app *App) *cobra.Command {
	flags := &releaseFlags{}
	var format string

	cmd := &cobra.Command{
		Use:   "check [account]",
		Short: "Compare the local version with the latest GitHub release",
		Long: `Read the declared version, look up the latest release and report whether
'pyrelease release' would proceed. Nothing is pulled, built or pushed.

Exits 0 whatever the decision; exits 1 when the local version cannot be read.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			params, err := app.releaseParams(cmd, args, flags)
			if err != nil {
				return err
			}
			orch, err := app.newOrchestrator(params)
			if err != nil {
				return app.reportFailure(err, params.verbosity)
			}
			report, err := orch.Check(cmd.Context(), params.options)
			if err != nil {
				return app.reportFailure(err, params.verbosity)
			}
			if err := writeReport(app.stdout, format, report, printCheckText); err != nil {
				return err
			}
			app.explainLookup(report, params.verbosity)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.pkg, "package", "p", "", "package name (default: first non-excluded subdirectory)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text, json or yaml")

	return cmd
}

// printCheckText renders a check report for humans.
func printCheckText(w io.Writer, report *release.Report) {
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render("package:"), report.Package)
	fmt.Fprintf(w, "%s %s (%s)\n", CmdStyle.Render("local:"), report.Local, report.MetadataFile)

	remote := report.Remote.State.String()
	if report.Remote.State == hosting.StateReleased {
		remote = report.Remote.Version
	}
	if report.Remote.Error != "" {
		remote += ": " + report.Remote.Error
	}
	fmt.Fprintf(w, "%s %s\n", CmdStyle.Render("remote:"), remote)

	if report.Proceed {
		fmt.Fprintf(w, "%s %s\n", SuccessStyle.Render("release:"), report.Reason)
	} else {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("no release:"), report.Reason)
	}
}

// validateFormat rejects output formats outside allowed.
func validateFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid --format %q (valid: %v)", format, allowed)
}

// writeReport writes v as JSON or YAML, or through text for the text format.
func writeReport[T any](w io.Writer, format string, v T, text func(io.Writer, T)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		text(w, v)
		return nil
	}
}
