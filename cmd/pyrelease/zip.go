// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pyrelease/pyrelease/internal/archive"
	"github.com/pyrelease/pyrelease/internal/issue"
)

func newZipCommand(app *App) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "zip <path>",
		Short: "Zip a file or directory",
		Long: `Create a zip archive of a file or a directory (recursively).

Entries are stored relative to the parent of <path>, so extracting the archive
recreates <path> by name. The archive defaults to <path without extension>.zip.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			res, err := archive.Zip(app.Fs, args[0], output)
			if err != nil {
				return app.reportArchiveFailure("create archive", args[0], err)
			}
			return writeReport(app.stdout, format, res, func(w io.Writer, r archive.ZipResult) {
				fmt.Fprintf(w, "%s Created %s (%d files)\n", SuccessStyle.Render("✓"), r.Path, len(r.Files))
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default: <path without extension>.zip)")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")

	return cmd
}

func newUnzipCommand(app *App) *cobra.Command {
	var target, format string

	cmd := &cobra.Command{
		Use:   "unzip <archive>",
		Short: "Extract a zip archive",
		Long: `Extract a zip archive.

--target selects the destination:
  input   a "tmp" directory next to the archive (default)
  temp    a "tmp" directory in the system temp directory
  <dir>   any other value is used as the directory itself

Entries that would be written outside the destination are rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			res, err := archive.Extract(app.Fs, args[0], archive.Target(target))
			if err != nil {
				return app.reportArchiveFailure("extract archive", args[0], err)
			}
			return writeReport(app.stdout, format, res, func(w io.Writer, r archive.ExtractResult) {
				fmt.Fprintf(w, "%s Extracted %s into %s (%d files)\n", SuccessStyle.Render("✓"), r.File, r.Dir, len(r.ExtractedFiles))
			})
		},
	}

	cmd.Flags().StringVar(&target, "target", string(archive.TargetBesideInput), "destination: input, temp or a directory")
	cmd.Flags().StringVar(&format, "format", formatText, "output format: text or json")

	return cmd
}

// reportArchiveFailure prints an archive error and returns exit code 1.
func (a *App) reportArchiveFailure(op, path string, err error) error {
	err = issue.NewErrorContext().
		WithOperation(op).
		WithResource(path).
		WithIssue(issue.InvalidArchiveId).
		WithSuggestion("Check that the path exists and, for unzip, that it is a zip file").
		Wrap(err).
		BuildError()
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, false))
	return &ExitError{Code: exitUserError}
}
