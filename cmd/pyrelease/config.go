// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"github.com/pyrelease/pyrelease/internal/config"
)

// newConfigCommand creates the `pyrelease config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pyrelease configuration",
		Long: `Manage pyrelease configuration.

Configuration is stored in:
  - Linux: ~/.config/pyrelease/config.cue
  - macOS: ~/Library/Application Support/pyrelease/config.cue
  - Windows: %APPDATA%\pyrelease\config.cue

A config.cue in the working directory is used when the user file is absent.
Every key can be overridden with a PYRELEASE_<KEY> environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showConfig(cmd.Context())
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Fprintf(app.stdout, "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			cfgPath, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", cfgPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.reportFailure(err, app.globals.verbosity)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(ctx context.Context) error {
	cfg, path, err := a.loadConfig(ctx)
	if err != nil {
		return a.reportFailure(err, a.globals.verbosity)
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := a.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	if path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	values := map[string]string{
		"account":       cfg.Account,
		"python":        cfg.Python,
		"pip":           cfg.Pip,
		"uploader_path": cfg.UploaderPath,
		"metadata_file": cfg.MetadataFile,
		"clean":         fmt.Sprintf("%v", cfg.Clean),
		"pull":          fmt.Sprintf("%v", cfg.Pull),
		"verbosity":     fmt.Sprintf("%d", cfg.Verbosity),
		"runtime":       cfg.Runtime.String(),
		"timeout":       cfg.Timeout.String(),
		"api_base_url":  cfg.APIBaseURL,
		"exclude_dirs":  strings.Join(cfg.ExcludeDirs, ", "),
	}

	keys := maps.Keys(values)
	slices.Sort(keys)
	for _, key := range keys {
		value := values[key]
		if value == "" {
			value = SubtitleStyle.Render("(not set)")
		} else {
			value = valueStyle.Render(value)
		}
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render(key), value)
	}

	return nil
}
