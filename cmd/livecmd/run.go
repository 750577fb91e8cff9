// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"io/fs"
	"os/exec"
	"slices"

	"github.com/spf13/cobra"

	"github.com/invowk/livecmd/internal/bridge"
	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/issue"
	"github.com/invowk/livecmd/internal/pipeline"
	"github.com/invowk/livecmd/internal/runtime"
)

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run NAME [ARG]",
		Short: "Compile the workspace and run one command",
		Long: `Compile the workspace and run one command on the execution loop.

The optional ARG is passed to the script as $1. A non-zero script exit status
becomes the exit status of livecmd.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, arg := args[0], ""
			if len(args) == 2 {
				arg = args[1]
			}

			e, _, err := app.newEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			snap, err := e.Recompile(cmd.Context())
			if err != nil {
				return err
			}
			renderDiagnostics(app.Stderr, snap.Diagnostics)
			if !snap.LoadSuccess {
				return loadError(snap.Diagnostics)
			}

			out, err := e.Execute(cmd.Context(), name, arg)
			if err != nil {
				return err
			}
			return outcomeError(name, out.Err)
		},
	}
}

// loadError explains why a generation has no commands. A failed artifact
// load points at the artifact, anything else at the command files.
func loadError(diags []discovery.Diagnostic) error {
	ctx := issue.NewErrorContext().WithOperation("compile commands")
	loadFailed := slices.ContainsFunc(diags, func(d discovery.Diagnostic) bool {
		return d.Code == pipeline.CodeLoadFailed
	})
	if loadFailed {
		return ctx.WithSuggestion("Delete the module artifact and run 'livecmd build'").
			WithIssue(issue.ArtifactCorruptId).
			BuildError()
	}
	return ctx.WithSuggestion("Fix the errors listed above").
		WithIssue(issue.CommandFileParseErrorId).
		BuildError()
}

// outcomeError maps an execution error to the CLI error it should surface as.
func outcomeError(name string, err error) error {
	if err == nil {
		return nil
	}

	var exitErr *runtime.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: int(exitErr.Code)}
	}

	ctx := issue.NewErrorContext().WithOperation("run command").WithResource(name)
	switch {
	case errors.Is(err, bridge.ErrCannotExecute):
		ctx.WithSuggestion("Check the argument against the command's accepts pattern").
			WithIssue(issue.CommandCannotExecuteId)
	case errors.Is(err, exec.ErrNotFound):
		ctx.WithSuggestion("Set runtime.shell or switch the command to the virtual runtime").
			WithIssue(issue.ShellNotFoundId)
	case errors.Is(err, runtime.ErrRuntimeNotAvailable):
		ctx.WithSuggestion("Switch the command to the virtual runtime").
			WithIssue(issue.RuntimeNotAvailableId)
	case errors.Is(err, fs.ErrPermission):
		ctx.WithSuggestion("Check the permissions of the files the script touches").
			WithIssue(issue.PermissionDeniedId)
	default:
		ctx.WithIssue(issue.ScriptExecutionFailedId)
	}
	return ctx.Wrap(err).BuildError()
}
