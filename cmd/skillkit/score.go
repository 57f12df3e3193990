// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillkit/skillkit/internal/config"
	"github.com/skillkit/skillkit/internal/render"
	"github.com/skillkit/skillkit/pkg/engine"
	"github.com/skillkit/skillkit/pkg/quality"

	"github.com/spf13/cobra"
)

func newScoreCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var format string

	scoreCmd := &cobra.Command{
		Use:   "score [dir]",
		Short: "Grade a package's structure and efficiency",
		Long: fmt.Sprintf(`Grade a skill package out of 100%%.

The package is validated first. Points are awarded for:
  structure    frontmatter with name and description, a tidy %[1]s/ directory
  efficiency   entry under %[2]d lines and %[3]d tokens, no padded sections
  integrity    no broken references, orphans or budget overruns

Exit status is 0 at %[4].0f%% or above and 1 below it.`,
			quality.ReferencesDir, quality.IdealEntryLines, quality.MaxEntryTokens, quality.PassPercent),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, app, rootFlags, format, packageDir(args))
		},
	}

	scoreCmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "output format: text, json or markdown")

	return scoreCmd
}

func runScore(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, format, dir string) error {
	ctx := cmd.Context()

	if _, err := config.ParseFormat(format); err != nil {
		return app.fail(err, "score package", rootFlags.verbose)
	}

	cfg, logger, err := app.loadConfig(ctx, rootFlags, dir)
	if err != nil {
		return app.fail(err, "load configuration", rootFlags.verbose)
	}
	opts, err := cfg.EngineOptions(dir)
	if err != nil {
		return app.fail(err, "load configuration", rootFlags.verbose)
	}
	opts.Logger = logger

	r, err := engine.Run(ctx, opts)
	if err != nil {
		return app.fail(err, "score package", rootFlags.verbose)
	}

	// The engine has already confirmed the entry exists.
	entryText, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(r.Entries[0])))
	if err != nil {
		return app.fail(fmt.Errorf("read entry document: %w", err), "score package", rootFlags.verbose)
	}

	score := quality.Evaluate(r, string(entryText))
	if err := render.WriteScore(app.stdout, score, format, render.Options{Terminal: isTerminal(app.stdout)}); err != nil {
		return app.fail(err, "write score", rootFlags.verbose)
	}
	if !score.Pass {
		return &ExitError{Code: ExitFailed}
	}
	return nil
}
