// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/invowk/livecmd/internal/cueutil"
	"github.com/invowk/livecmd/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "livecmd"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// WorkspaceFileName is the name of the per-workspace config file (without extension).
	WorkspaceFileName = "livecmd"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides (LIVECMD_LOG_LEVEL).
	EnvPrefix = "LIVECMD"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the livecmd configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// WorkspaceFilePath returns the path of the per-workspace config file.
func WorkspaceFilePath(workspace string) string {
	return filepath.Join(workspace, WorkspaceFileName+"."+ConfigFileExt)
}

// loadWithOptions performs option-driven config loading. It returns the
// configuration resolved against the workspace and the path of the file it
// came from ("" when only defaults and environment applied).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	workspace, err := opts.workspace()
	if err != nil {
		return nil, "", err
	}

	v := newViper(opts.Environ)

	resolvedPath, err := locate(opts, workspace)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'livecmd config show' to see the effective configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so validate the merged result.
	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithSuggestion("Keep scripts_dir and libraries_dir in separate folders").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}

	return cfg.Resolve(workspace), resolvedPath, nil
}

// newViper returns a Viper instance carrying every default and bound to
// LIVECMD_ environment overrides. Every key needs a default for Unmarshal to
// consult the environment.
func newViper(environ func(string) (string, bool)) *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("scripts_dir", defaults.ScriptsDir)
	v.SetDefault("libraries_dir", defaults.LibrariesDir)
	v.SetDefault("output_path", defaults.OutputPath)
	v.SetDefault("host_references", defaults.HostReferences)
	v.SetDefault("artifact.retain_on_failure", defaults.Artifact.RetainOnFailure)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.ignore", defaults.Watch.Ignore)
	v.SetDefault("pipeline.max_cycles_per_second", defaults.Pipeline.MaxCyclesPerSecond)
	v.SetDefault("pipeline.cache_size", defaults.Pipeline.CacheSize)
	v.SetDefault("runtime.default", string(defaults.Runtime.Default))
	v.SetDefault("runtime.shell", defaults.Runtime.Shell)
	v.SetDefault("log.level", string(defaults.Log.Level))

	if environ == nil {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		return v
	}

	// Injected environments are applied explicitly so tests stay hermetic.
	for _, key := range v.AllKeys() {
		name := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if value, ok := environ(name); ok {
			v.Set(key, value)
		}
	}
	return v
}

// locate applies the lookup order: explicit file, workspace file, user file.
func locate(opts LoadOptions, workspace string) (string, error) {
	// An explicit --config path is used exclusively and must exist.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Run 'livecmd init' to create a workspace configuration").
				WithIssue(issue.FileNotFoundId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	if path := WorkspaceFilePath(workspace); fileExists(path) {
		return path, nil
	}

	// Without a usable home directory only the defaults apply.
	cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
	if err != nil {
		return "", nil //nolint:nilerr // missing home directory is not a load failure
	}
	if path := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(path) {
		return path, nil
	}

	return "", nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// This does not use cueutil.ParseAndDecode: the file decodes to a map for
// Viper, with Concrete(false) because every field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteWorkspaceConfig writes a default livecmd.cue into workspace unless one
// already exists. It reports whether a file was written.
func WriteWorkspaceConfig(workspace string) (bool, error) {
	path := WorkspaceFilePath(workspace)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return false, fmt.Errorf("failed to create workspace directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config file: %w", err)
	}

	return true, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// livecmd configuration\n")
	sb.WriteString("// Relative paths are resolved against the workspace directory.\n\n")

	fmt.Fprintf(&sb, "scripts_dir:   %q\n", cfg.ScriptsDir)
	fmt.Fprintf(&sb, "libraries_dir: %q\n", cfg.LibrariesDir)
	fmt.Fprintf(&sb, "output_path:   %q\n", cfg.OutputPath)

	if len(cfg.HostReferences) > 0 {
		sb.WriteString("\nhost_references: [\n")
		for _, ref := range cfg.HostReferences {
			fmt.Fprintf(&sb, "\t%q,\n", ref)
		}
		sb.WriteString("]\n")
	}

	sb.WriteString("\nartifact: {\n")
	fmt.Fprintf(&sb, "\tretain_on_failure: %v\n", cfg.Artifact.RetainOnFailure)
	sb.WriteString("}\n")

	sb.WriteString("\nwatch: {\n")
	fmt.Fprintf(&sb, "\tdebounce: %q\n", cfg.Watch.Debounce.String())
	if len(cfg.Watch.Ignore) > 0 {
		sb.WriteString("\tignore: [\n")
		for _, pattern := range cfg.Watch.Ignore {
			fmt.Fprintf(&sb, "\t\t%q,\n", pattern)
		}
		sb.WriteString("\t]\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\npipeline: {\n")
	fmt.Fprintf(&sb, "\tmax_cycles_per_second: %v\n", cfg.Pipeline.MaxCyclesPerSecond)
	fmt.Fprintf(&sb, "\tcache_size: %d\n", cfg.Pipeline.CacheSize)
	sb.WriteString("}\n")

	sb.WriteString("\nruntime: {\n")
	fmt.Fprintf(&sb, "\tdefault: %q\n", cfg.Runtime.Default)
	if cfg.Runtime.Shell != "" {
		fmt.Fprintf(&sb, "\tshell: %q\n", cfg.Runtime.Shell)
	}
	sb.WriteString("}\n")

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel: %q\n", cfg.Log.Level)
	sb.WriteString("}\n")

	return sb.String()
}
