// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/livecmd/internal/bridge"
	"github.com/invowk/livecmd/internal/engine"
	"github.com/invowk/livecmd/internal/pipeline"
)

func newWatchCommand(app *App) *cobra.Command {
	var (
		execName string
		execArg  string
		noStdin  bool
	)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile on change and run commands as they are requested",
		Long: `Watch the scripts and libraries folders, recompile after every change and
publish the new command set without restarting.

Each line read from stdin is a request "NAME [ARG]". A new request replaces a
pending one that has not started yet. With --exec, the named command runs
after every successful recompile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			var e *engine.Engine
			onRecompile := func(snap pipeline.Snapshot) {
				renderDiagnostics(app.Stderr, snap.Diagnostics)
				renderSummary(app.Stdout, snap)
				if execName == "" || !snap.LoadSuccess {
					return
				}
				if _, err := e.Submit(execName, execArg); err != nil {
					fmt.Fprintln(app.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, app.verbose))
				}
			}

			e, _, err := app.newEngine(ctx,
				engine.WithWatch(true),
				engine.WithRecompileHandler(onRecompile),
				engine.WithOutcomeHandler(func(out bridge.Outcome) { app.reportOutcome(out) }),
			)
			if err != nil {
				return err
			}
			defer e.Close()

			if !noStdin {
				go app.readRequests(ctx, e, app.Stdin)
			}

			fmt.Fprintln(app.Stdout, SubtitleStyle.Render("Watching for changes. Press Ctrl+C to stop."))
			return e.Run(ctx)
		},
	}

	watchCmd.Flags().StringVar(&execName, "exec", "", "command to run after every successful recompile")
	watchCmd.Flags().StringVar(&execArg, "arg", "", "argument passed to the --exec command")
	watchCmd.Flags().BoolVar(&noStdin, "no-stdin", false, "do not read requests from stdin")
	return watchCmd
}

// readRequests submits one request per non-empty input line until r ends
// or ctx is done.
func (app *App) readRequests(ctx context.Context, e *engine.Engine, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		name, arg, ok := parseRequest(scanner.Text())
		if !ok {
			continue
		}
		if _, err := e.Submit(name, arg); err != nil {
			fmt.Fprintln(app.Stderr, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, app.verbose))
		}
	}
	if err := scanner.Err(); err != nil {
		app.logger.Warn("stopped reading requests", "error", err)
	}
}

// parseRequest splits "NAME [ARG]". The argument is the rest of the line
// with surrounding space removed.
func parseRequest(line string) (name, arg string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(line, " ")
	return name, strings.TrimSpace(arg), true
}

func (app *App) reportOutcome(out bridge.Outcome) {
	name := out.Request.Command.Name()
	if out.Err != nil {
		fmt.Fprintln(app.Stderr, ErrorStyle.Render("✗ ")+CmdStyle.Render(name)+" "+out.Err.Error())
		return
	}
	fmt.Fprintf(app.Stdout, "%s %s %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(name),
		SubtitleStyle.Render(out.Duration.Round(1e6).String()))
}
