// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/skillkit/skillkit/internal/config"
	"github.com/skillkit/skillkit/pkg/skillpack"

	"github.com/spf13/cobra"
)

type packFlagValues struct {
	entries []string
	strict  bool
	force   bool
}

func newPackCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &packFlagValues{}

	packCmd := &cobra.Command{
		Use:   "pack <dir> [out-dir]",
		Short: "Validate a package and write it as a .skill archive",
		Long: `Validate a skill package and, when it passes, write <name>.skill.

The archive is a zip of every scanned file with paths relative to the
package root. Without out-dir the archive goes next to the package when
its parent looks like a project (.git, go.mod, package.json, ...), and
into the current directory otherwise.

Packaging is refused when validation fails unless --force is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var outDir string
			if len(args) > 1 {
				outDir = args[1]
			}
			return runPack(cmd, app, rootFlags, flags, packageDir(args), outDir)
		},
	}

	packCmd.Flags().StringSliceVar(&flags.entries, "entry", nil, "entry document relative to the package root (repeatable)")
	packCmd.Flags().BoolVar(&flags.strict, "strict", false, "refuse to package on any issue, not only critical ones")
	packCmd.Flags().BoolVar(&flags.force, "force", false, "package even when validation fails")

	return packCmd
}

func runPack(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *packFlagValues, dir, outDir string) error {
	ctx := cmd.Context()

	cfg, logger, err := app.loadConfig(ctx, rootFlags, dir)
	if err != nil {
		return app.fail(err, "load configuration", rootFlags.verbose)
	}
	opts, err := cfg.EngineOptions(dir)
	if err != nil {
		return app.fail(err, "load configuration", rootFlags.verbose)
	}
	opts.Logger = logger
	if cmd.Flags().Changed("entry") {
		opts.Entries = flags.entries
	}
	if cmd.Flags().Changed("strict") {
		opts.Strict = flags.strict
	}

	res, err := skillpack.Pack(ctx, skillpack.Options{
		Engine:    opts,
		OutputDir: outDir,
		Force:     flags.force,
	})
	if err != nil {
		if errors.Is(err, skillpack.ErrPackagingBlocked) && res != nil {
			// Show what blocked packaging before the error itself.
			if writeErr := writeReport(app, res.Report, config.FormatText, "", rootFlags.verbose, nil); writeErr != nil {
				logger.Warn("failed to print report", "err", writeErr)
			}
		}
		return app.fail(err, "package skill", rootFlags.verbose)
	}

	if res.Forced {
		fmt.Fprintf(app.stderr, "%s packaged despite %d issue(s)\n", WarningStyle.Render("!"), len(res.Report.Issues))
	}
	fmt.Fprintf(app.stdout, "%s Packaged %d files into %s\n", SuccessStyle.Render("✓"), res.Files, CmdStyle.Render(res.Path))
	return nil
}
