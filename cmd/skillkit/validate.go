// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillkit/skillkit/internal/config"
	"github.com/skillkit/skillkit/internal/render"
	"github.com/skillkit/skillkit/pkg/engine"
	"github.com/skillkit/skillkit/pkg/report"
	"github.com/skillkit/skillkit/pkg/scan"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// deprecatedFlags maps old flag names to their replacements. The old
// names still parse, are hidden from help and print a notice when used.
var deprecatedFlags = map[string]string{
	"manifest":    "entry",
	"strict-mode": "strict",
}

// validateFlagValues holds the flags of `skillkit validate`.
type validateFlagValues struct {
	entries []string
	strict  bool
	allow   []string
	format  string
	output  string
	watch   bool
	workers int
}

func newValidateCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &validateFlagValues{}

	validateCmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check references, orphans and line budgets",
		Long: `Validate a skill package.

Every file under dir (default: current directory) is scanned. References
are followed from the entry documents; the report lists broken references,
files no entry reaches, and documents over their tier's line budget.

Exit status is 0 when the package passes, 1 when it fails and 2 when the
run could not start (bad directory, missing entry, invalid configuration).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, app, rootFlags, flags, packageDir(args))
		},
	}

	fs := validateCmd.Flags()
	fs.StringSliceVar(&flags.entries, "entry", nil, "entry document relative to the package root (repeatable)")
	fs.BoolVar(&flags.strict, "strict", false, "fail on any issue, not only critical ones")
	fs.StringSliceVar(&flags.allow, "allow", nil, "glob exempt from orphan findings (repeatable)")
	fs.StringVarP(&flags.format, "format", "f", "", "output format: text, json or markdown (default from config)")
	fs.StringVarP(&flags.output, "output", "o", "", "write the report to FILE instead of stdout")
	fs.BoolVarP(&flags.watch, "watch", "w", false, "re-validate whenever the package changes")
	fs.IntVar(&flags.workers, "workers", 0, "concurrent file loaders (default one per CPU)")

	fs.StringSliceVar(&flags.entries, "manifest", nil, "")
	fs.BoolVar(&flags.strict, "strict-mode", false, "")
	for old, repl := range deprecatedFlags {
		_ = fs.MarkDeprecated(old, fmt.Sprintf("use --%s instead", repl))
	}

	return validateCmd
}

func runValidate(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *validateFlagValues, dir string) error {
	ctx := cmd.Context()

	opts, format, err := validateOptions(ctx, cmd, app, rootFlags, flags, dir)
	if err != nil {
		return app.fail(err, "load configuration", rootFlags.verbose)
	}
	if flags.watch {
		return runWatch(cmd, app, rootFlags, flags, dir)
	}

	r, err := validateOnce(ctx, app, opts, format, flags.output, rootFlags.verbose)
	if err != nil {
		return err
	}
	if !r.Pass {
		return &ExitError{Code: ExitFailed}
	}
	return nil
}

// validateOptions loads configuration for dir and applies the flags the
// user set explicitly on top of it.
func validateOptions(ctx context.Context, cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *validateFlagValues, dir string) (engine.Options, config.OutputFormat, error) {
	cfg, logger, err := app.loadConfig(ctx, rootFlags, dir)
	if err != nil {
		return engine.Options{}, "", err
	}
	opts, err := cfg.EngineOptions(dir)
	if err != nil {
		return engine.Options{}, "", err
	}
	opts.Logger = logger

	fs := cmd.Flags()
	if fs.Changed("entry") || fs.Changed("manifest") {
		opts.Entries = flags.entries
	}
	if fs.Changed("strict") || fs.Changed("strict-mode") {
		opts.Strict = flags.strict
	}
	if fs.Changed("allow") {
		opts.OrphanAllow = append(opts.OrphanAllow, flags.allow...)
	}
	if fs.Changed("workers") {
		opts.Workers = flags.workers
	}
	if pattern, ok := outputPattern(dir, flags.output); ok {
		opts.Ignore = append(opts.Ignore, pattern)
	}

	name := cfg.Output.Format.String()
	if flags.format != "" {
		name = flags.format
	}
	format, err := config.ParseFormat(name)
	if err != nil {
		return engine.Options{}, "", err
	}
	return opts, format, nil
}

// outputPattern returns an anchored ignore pattern for output when the
// report file lies inside the package dir.
func outputPattern(dir, output string) (string, bool) {
	if output == "" {
		return "", false
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return "", false
	}
	rel, err := scan.RelPath(root, out)
	if err != nil || rel == "." {
		return "", false
	}
	return scan.LiteralPattern(rel), true
}

// validateOnce runs the engine and writes the report. The returned error
// is already reported; a failing report is not an error.
func validateOnce(ctx context.Context, app *App, opts engine.Options, format config.OutputFormat, output string, verbose bool) (*report.Report, error) {
	r, err := engine.Run(ctx, opts)
	if err != nil {
		return nil, app.fail(err, "validate package", verbose)
	}
	if err := writeReport(app, r, format, output, verbose, opts.Logger); err != nil {
		return nil, app.fail(err, "write report", verbose)
	}
	return r, nil
}

func writeReport(app *App, r *report.Report, format config.OutputFormat, output string, verbose bool, logger *log.Logger) (err error) {
	if output == "" {
		return render.Write(app.stdout, r, format.String(), render.Options{
			Terminal: isTerminal(app.stdout),
			Verbose:  verbose,
		})
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close report file: %w", closeErr)
		}
	}()
	if err = render.Write(f, r, format.String(), render.Options{Verbose: verbose}); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("report written", "file", output, "pass", r.Pass)
	}
	return nil
}
