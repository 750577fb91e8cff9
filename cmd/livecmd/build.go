// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

func newBuildCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Compile the workspace once and print diagnostics",
		Long: `Compile the command files and libraries once, write the module artifact,
and print every diagnostic. The exit status is 1 when no commands could be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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
			renderSummary(app.Stdout, snap)
			if !snap.LoadSuccess {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}
}
