// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/skillkit/skillkit/internal/render"
	"github.com/skillkit/skillkit/pkg/engine"
	"github.com/skillkit/skillkit/pkg/finding"

	"github.com/spf13/cobra"
)

func newTokensCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var format string

	tokensCmd := &cobra.Command{
		Use:   "tokens [dir]",
		Short: "Estimate the token footprint of a package",
		Long: `Estimate how many model tokens each text file of a package costs.

The estimate matches the per-file token counts in the validation report:
about four tokens per three words plus one per punctuation mark. Binary
files are left out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, app, rootFlags, format, packageDir(args))
		},
	}

	tokensCmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "output format: text or json")

	return tokensCmd
}

func runTokens(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, format, dir string) error {
	ctx := cmd.Context()

	if format != render.FormatText && format != render.FormatJSON {
		err := finding.Configf(finding.ReasonBadOption, "format", "unknown tokens format %q (valid: text, json)", format)
		return app.fail(err, "estimate tokens", rootFlags.verbose)
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
		return app.fail(err, "estimate tokens", rootFlags.verbose)
	}
	if err := render.WriteTokens(app.stdout, render.Tokens(r), format); err != nil {
		return app.fail(err, "write token estimate", rootFlags.verbose)
	}
	return nil
}
