// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/invowk/livecmd/internal/issue"
)

func newListCommand(app *App) *cobra.Command {
	var long bool

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the commands of the workspace",
		Args:    cobra.NoArgs,
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

			descs := e.Current().Registry.Descriptors()
			if len(descs) == 0 {
				return issue.NewErrorContext().
					WithOperation("list commands").
					WithSuggestion("Add a *.cue command file to the scripts folder").
					WithSuggestion("Run 'livecmd build' to see compile diagnostics").
					WithIssue(issue.NoCommandsId).
					BuildError()
			}

			if !long {
				fmt.Fprintln(app.Stdout, TitleStyle.Render("Available commands:"))
				renderCommandList(app.Stdout, descs)
				return nil
			}

			rendered, err := renderMarkdown(commandsMarkdown(descs), 100)
			if err != nil {
				return err
			}
			fmt.Fprint(app.Stdout, rendered)
			return nil
		},
	}

	listCmd.Flags().BoolVarP(&long, "long", "l", false, "render full descriptions")
	return listCmd
}
