// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "skillkit",
		Short: "Validate and package agent skill directories",
		Long: TitleStyle.Render("skillkit") + SubtitleStyle.Render(" - reference and budget validator for skill packages") + `

skillkit walks a skill directory, follows every reference from the entry
document (SKILL.md by default), and reports broken links, unreachable
files and documents that outgrow their line budget.

` + SubtitleStyle.Render("Examples:") + `
  skillkit validate                 Validate the package in the current directory
  skillkit validate ./my-skill -f json
  skillkit validate --watch         Re-validate on every save
  skillkit pack ./my-skill dist     Validate, then write dist/my-skill.skill
  skillkit tokens ./my-skill        Estimate the package's token footprint
  skillkit config init              Write a commented .skillkit.cue`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging and full error chains")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is <dir>/.skillkit.cue, then the user config)")

	rootCmd.AddCommand(newValidateCommand(app, flags))
	rootCmd.AddCommand(newPackCommand(app, flags))
	rootCmd.AddCommand(newTokensCommand(app, flags))
	rootCmd.AddCommand(newScoreCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the resulting code. It is called by
// main.main.
func Execute() {
	os.Exit(int(Main(context.Background(), NewApp(Dependencies{}), nil)))
}

// Main runs the command tree with args (os.Args[1:] when nil) and returns
// the exit code instead of exiting.
func Main(ctx context.Context, app *App, args []string) ExitCode {
	rootCmd := NewRootCommand(app)
	if args != nil {
		rootCmd.SetArgs(args)
	}
	// Cobra prints flag deprecation notices to the out writer when one is
	// set, so only stderr is redirected.
	rootCmd.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	)
	return exitCode(err)
}

// handleError prints errors fang receives. ExitErrors were already shown
// by the command that returned them.
func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

func exitCode(err error) ExitCode {
	if err == nil {
		return ExitPass
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// Flag and argument parsing errors are invalid options.
	return ExitConfig
}
