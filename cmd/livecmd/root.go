// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the livecmd CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/invowk/livecmd/internal/config"
	"github.com/invowk/livecmd/internal/engine"
	"github.com/invowk/livecmd/internal/issue"

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

type (
	// App carries the CLI dependencies and the global flag values. Every
	// command handler receives it instead of reading package state.
	App struct {
		Config config.Provider
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer

		configPath string
		workspace  string
		logLevel   string
		verbose    bool

		logger *slog.Logger
	}
)

// NewApp creates an App wired to the process streams.
func NewApp() *App {
	return &App{
		Config: config.NewProvider(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "livecmd",
		Short: "Live-reloading shell commands defined in CUE",
		Long: TitleStyle.Render("livecmd") + SubtitleStyle.Render(" - live-reloading shell commands defined in CUE") + `

livecmd compiles the *.cue command files of a scripts folder together with the
*.sh libraries of a libraries folder into a module, and runs its commands on a
single execution loop. In watch mode every saved file triggers a recompile and
the new command set replaces the old one without restarting.

` + SubtitleStyle.Render("Quick Start:") + `
  1. livecmd init            Create livecmd.cue, scripts/ and lib/
  2. Edit scripts/*.cue      Declare commands
  3. livecmd run NAME [ARG]  Run a command

` + SubtitleStyle.Render("Examples:") + `
  livecmd list --long        Show every command with its description
  livecmd watch              Recompile on change, read "NAME ARG" lines from stdin
  livecmd build              Compile once and print diagnostics
  livecmd config show        Show the effective configuration`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default: ./livecmd.cue, then the user config dir)")
	flags.StringVarP(&app.workspace, "workspace", "w", "", "workspace directory (default: current directory)")
	flags.StringVar(&app.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides log.level)")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newBuildCommand(app),
		newListCommand(app),
		newRunCommand(app),
		newWatchCommand(app),
		newInitCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	app := NewApp()
	err := fang.Execute(
		ctx,
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.renderError),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// renderError prints err with suggestions and, in verbose mode, the
// matching catalog entry.
func (app *App) renderError(w io.Writer, _ fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, app.verbose))

	if !app.verbose {
		return
	}
	if entry := issue.Lookup(err); entry != nil {
		if rendered, rerr := entry.Render("auto"); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// loadConfig loads the configuration selected by the global flags.
func (app *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfg, path, err := app.Config.Load(ctx, config.LoadOptions{
		ConfigFilePath: app.configPath,
		WorkspaceDir:   app.workspace,
	})
	if err != nil {
		return nil, "", err
	}
	if app.logLevel != "" {
		cfg.Log.Level = config.LogLevel(app.logLevel)
		if err := cfg.Log.Level.Validate(); err != nil {
			return nil, "", err
		}
	}
	if app.verbose {
		cfg.Log.Level = config.LogLevelDebug
	}
	app.logger = newLogger(app.Stderr, cfg.Log.Level)
	return cfg, path, nil
}

// newEngine loads the configuration and builds an engine for it.
func (app *App) newEngine(ctx context.Context, opts ...engine.Option) (*engine.Engine, *config.Config, error) {
	cfg, _, err := app.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	base := []engine.Option{
		engine.WithLogger(app.logger),
		engine.WithOutput(app.Stdout, app.Stderr),
	}
	e, err := engine.New(cfg, append(base, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}
