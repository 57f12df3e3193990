// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/skillkit/skillkit/internal/config"
	"github.com/skillkit/skillkit/internal/issue"
	"github.com/skillkit/skillkit/pkg/finding"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp creates an App with production defaults for nil dependencies.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads the configuration that applies to the package at dir
// and returns a logger at the configured level. --verbose always wins.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues, dir string) (*config.Config, *log.Logger, error) {
	logger := newLogger(a.stderr, flags.verbose, "")
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: flags.configPath,
		RootDir:        dir,
		Logger:         logger,
	})
	if err != nil {
		return nil, logger, err
	}
	if cfg.Source != "" {
		logger.Debug("loaded configuration", "file", cfg.Source)
	}
	return cfg, newLogger(a.stderr, flags.verbose, cfg.LogLevel), nil
}

// fail prints err with its suggestions and returns the ExitError carrying
// the matching exit code. With verbose set the troubleshooting guide for
// the error is rendered below it.
func (a *App) fail(err error, operation string, verbose bool) error {
	ae := issue.FromError(err, operation)
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("✗"), ae.Format(verbose))

	if guide := issue.ForError(ae); guide != nil {
		if verbose {
			if rendered, renderErr := guide.Render(""); renderErr == nil {
				fmt.Fprint(a.stderr, rendered)
			}
		} else {
			fmt.Fprintf(a.stderr, "%s\n", SubtitleStyle.Render("Run with --verbose for a troubleshooting guide."))
		}
	}

	code := ExitFailed
	if _, ok := finding.IsConfiguration(err); ok {
		code = ExitConfig
	}
	return &ExitError{Code: code, Err: ae}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newLogger(w io.Writer, verbose bool, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: config.AppName})
	lvl := log.WarnLevel
	if level != "" {
		if parsed, err := log.ParseLevel(level); err == nil {
			lvl = parsed
		}
	}
	if verbose {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// packageDir returns the package directory named by args, or ".".
func packageDir(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return filepath.Clean(args[0])
	}
	return "."
}
