// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/invowk/livecmd/internal/config"
	"github.com/invowk/livecmd/internal/discovery"
	"github.com/invowk/livecmd/internal/issue"
)

const (
	exampleCommandFile = "hello.cue"
	exampleLibraryFile = "greet.sh"

	exampleCommands = `// Commands declared here are compiled together with every library in the
// libraries folder. Functions defined in libraries can be called directly.
commands: {
	hello: {
		description: "Greet someone (defaults to the current user)"
		script:      "greet \"${1:-$USER}\""
		accepts:     "^[A-Za-z][A-Za-z -]*$"
	}
	date: {
		description: "Print the current date"
		script:      "date"
		runtime:     "native"
		timeout:     "5s"
	}
}
`

	exampleLibrary = `# Shell functions shared by every command.

greet() {
	echo "Hello, $1!"
}
`
)

func newInitCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a livecmd workspace in the current directory",
		Long: `Create livecmd.cue, the scripts and libraries folders, and an example
command file with a matching library. Existing files are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			workspace := app.workspace
			if workspace == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get working directory: %w", err)
				}
				workspace = wd
			}

			written, err := config.WriteWorkspaceConfig(workspace)
			if err != nil {
				return err
			}
			cfgPath := config.WorkspaceFilePath(workspace)
			if written {
				fmt.Fprintf(app.Stdout, "%s Created %s\n", SuccessStyle.Render("✓"), cfgPath)
			}

			app.workspace = workspace
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if err := discovery.EnsureLayout(cfg.ScriptsDir, cfg.LibrariesDir); err != nil {
				return layoutError(err, workspace)
			}

			for _, f := range []struct{ path, content string }{
				{filepath.Join(cfg.ScriptsDir, exampleCommandFile), exampleCommands},
				{filepath.Join(cfg.LibrariesDir, exampleLibraryFile), exampleLibrary},
			} {
				created, err := writeIfAbsent(f.path, f.content)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(app.Stdout, "%s Created %s\n", SuccessStyle.Render("✓"), f.path)
				}
			}

			fmt.Fprintln(app.Stdout)
			fmt.Fprintln(app.Stdout, SubtitleStyle.Render("Next steps:"))
			fmt.Fprintln(app.Stdout, "  1. Run 'livecmd list' to see the example commands")
			fmt.Fprintln(app.Stdout, "  2. Run 'livecmd run hello world'")
			fmt.Fprintln(app.Stdout, "  3. Run 'livecmd watch' and edit "+exampleCommandFile)
			return nil
		},
	}
}

// layoutError attaches the permission catalog entry when the workspace is
// not writable.
func layoutError(err error, workspace string) error {
	if !errors.Is(err, fs.ErrPermission) {
		return err
	}
	return issue.NewErrorContext().
		WithOperation("create workspace folders").
		WithResource(workspace).
		WithSuggestion("Run 'livecmd init' in a directory you can write to").
		WithIssue(issue.PermissionDeniedId).
		Wrap(err).
		BuildError()
}

func writeIfAbsent(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}
