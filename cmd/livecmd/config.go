// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/invowk/livecmd/internal/config"
)

func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect livecmd configuration",
		Long: `Inspect livecmd configuration.

The first file found is used:
  1. the --config flag
  2. livecmd.cue in the workspace directory
  3. config.cue in the user config directory
     (Linux: ~/.config/livecmd, macOS: ~/Library/Application Support/livecmd,
      Windows: %APPDATA%\livecmd)

Every key can be overridden with a LIVECMD_ environment variable, for
example LIVECMD_WATCH_DEBOUNCE=1s.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			switch format {
			case "cue":
				fmt.Fprint(app.Stdout, config.GenerateCUE(cfg))
			case "toml":
				out, err := toml.Marshal(configMap(cfg))
				if err != nil {
					return fmt.Errorf("failed to encode configuration: %w", err)
				}
				fmt.Fprint(app.Stdout, string(out))
			default:
				return fmt.Errorf("unknown format %q (valid: cue, toml)", format)
			}
			return nil
		},
	}
	showCmd.Flags().StringVarP(&format, "format", "f", "cue", "output format: cue or toml")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(app.Stdout, SubtitleStyle.Render("(no config file, using defaults)"))
				return nil
			}
			fmt.Fprintln(app.Stdout, path)
			return nil
		},
	}

	cfgCmd.AddCommand(showCmd, pathCmd)
	return cfgCmd
}

// configMap mirrors the CUE layout so both formats use the same keys.
func configMap(cfg *config.Config) map[string]any {
	return map[string]any{
		"scripts_dir":     cfg.ScriptsDir,
		"libraries_dir":   cfg.LibrariesDir,
		"output_path":     cfg.OutputPath,
		"host_references": cfg.HostReferences,
		"artifact": map[string]any{
			"retain_on_failure": cfg.Artifact.RetainOnFailure,
		},
		"watch": map[string]any{
			"debounce": cfg.Watch.Debounce.String(),
			"ignore":   cfg.Watch.Ignore,
		},
		"pipeline": map[string]any{
			"max_cycles_per_second": cfg.Pipeline.MaxCyclesPerSecond,
			"cache_size":            cfg.Pipeline.CacheSize,
		},
		"runtime": map[string]any{
			"default": string(cfg.Runtime.Default),
			"shell":   cfg.Runtime.Shell,
		},
		"log": map[string]any{
			"level": string(cfg.Log.Level),
		},
	}
}
