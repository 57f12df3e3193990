// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/skillkit/skillkit/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `skillkit config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage skillkit configuration",
		Long: `Manage skillkit configuration.

Settings are read from, in order of precedence:
  - the file given with --config
  - .skillkit.cue in the package directory
  - config.cue in the user config directory
    (Linux: ~/.config/skillkit, macOS: ~/Library/Application Support/skillkit,
    Windows: %AppData%\skillkit)
  - built-in defaults

Environment variables prefixed with SKILLKIT_ override file values,
e.g. SKILLKIT_STRICT=true.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show [dir]",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := packageDir(args)
			cfg, _, err := app.loadConfig(cmd.Context(), rootFlags, dir)
			if err != nil {
				return app.fail(err, "load configuration", rootFlags.verbose)
			}

			source := "(using defaults)"
			if cfg.Source != "" {
				source = cfg.Source
			}
			fmt.Fprintf(app.stderr, "%s %s\n", SubtitleStyle.Render("# source:"), source)
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init [dir]",
		Short: "Write a commented default .skillkit.cue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(packageDir(args))
			if err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					fmt.Fprintf(app.stderr, "%s %v\n", WarningStyle.Render("!"), err)
					return &ExitError{Code: ExitFailed, Err: err}
				}
				return app.fail(err, "write configuration", rootFlags.verbose)
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(path))
			return nil
		},
	})

	return cfgCmd
}
