// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/skillkit/skillkit/internal/watch"

	"github.com/spf13/cobra"
)

// runWatch validates once, then again after every debounced change under
// dir until the command context is canceled. Configuration is reloaded on
// each run so edits to .skillkit.cue apply immediately.
func runWatch(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *validateFlagValues, dir string) error {
	revalidate := func(ctx context.Context) {
		opts, format, err := validateOptions(ctx, cmd, app, rootFlags, flags, dir)
		if err != nil {
			_ = app.fail(err, "load configuration", rootFlags.verbose)
			return
		}
		r, err := validateOnce(ctx, app, opts, format, flags.output, rootFlags.verbose)
		if err != nil {
			return
		}
		status := SuccessStyle.Render("pass")
		if !r.Pass {
			status = ErrorStyle.Render("fail")
		}
		fmt.Fprintf(app.stderr, "%s %s\n", VerboseHighlightStyle.Render("→"), status)
	}

	ctx := cmd.Context()
	revalidate(ctx)

	// The ignore set comes from the configuration at startup; a changed
	// ignore list takes effect for validation but not for the watch set.
	cfg, logger, err := app.loadConfig(ctx, rootFlags, dir)
	if err != nil {
		return app.fail(err, "load configuration", rootFlags.verbose)
	}

	ignore := slices.Clone(cfg.Ignore)
	if pattern, ok := outputPattern(dir, flags.output); ok {
		ignore = append(ignore, pattern)
	}

	w, err := watch.New(watch.Config{
		Root:        dir,
		Ignore:      ignore,
		ClearScreen: isTerminal(app.stdout) && flags.output == "",
		Stdout:      app.stdout,
		Logger:      logger.WithPrefix("watch"),
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stderr, "%s %d change(s), re-validating\n", VerboseHighlightStyle.Render("→"), len(changed))
			revalidate(ctx)
			return nil
		},
	})
	if err != nil {
		return app.fail(err, "start watcher", rootFlags.verbose)
	}

	fmt.Fprintf(app.stderr, "\n%s Watching %s for changes (Ctrl+C to stop)...\n", VerboseHighlightStyle.Render("→"), CmdStyle.Render(dir))
	if err := w.Run(ctx); err != nil {
		return app.fail(err, "watch package", rootFlags.verbose)
	}
	return nil
}
