// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// RuntimeVirtual runs commands in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"
	// RuntimeNative runs commands in the host system shell.
	RuntimeNative RuntimeMode = "native"

	// LogLevelDebug enables debug logging.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default log level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects the runtime used by commands that do not declare one.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeMode string

	// InvalidConfigRuntimeModeError is returned when a RuntimeMode value is not recognized.
	// It wraps ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
	InvalidConfigRuntimeModeError struct {
		Value RuntimeMode
	}

	// LogLevel is the minimum level emitted by the CLI logger.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// ScriptsDir holds the *.cue command files.
		ScriptsDir string `json:"scripts_dir" mapstructure:"scripts_dir"`
		// LibrariesDir holds the *.sh libraries shared by every command.
		LibrariesDir string `json:"libraries_dir" mapstructure:"libraries_dir"`
		// OutputPath is where the module artifact is written.
		OutputPath string `json:"output_path" mapstructure:"output_path"`
		// HostReferences are baseline libraries that are always referenced.
		HostReferences []string `json:"host_references" mapstructure:"host_references"`
		// Artifact configures artifact retention
		Artifact ArtifactConfig `json:"artifact" mapstructure:"artifact"`
		// Watch configures the directory watcher
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// Pipeline configures the recompile pipeline
		Pipeline PipelineConfig `json:"pipeline" mapstructure:"pipeline"`
		// Runtime configures command execution
		Runtime RuntimeConfig `json:"runtime" mapstructure:"runtime"`
		// Log configures logging
		Log LogConfig `json:"log" mapstructure:"log"`
	}

	// ArtifactConfig controls what happens to the artifact when a cycle fails.
	ArtifactConfig struct {
		// RetainOnFailure keeps the previous artifact on disk (default: true).
		RetainOnFailure bool `json:"retain_on_failure" mapstructure:"retain_on_failure"`
	}

	// WatchConfig configures the directory watcher.
	WatchConfig struct {
		// Debounce is the quiet period before a recompile is triggered.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		// Ignore holds extra doublestar patterns, relative to each watched root.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
	}

	// PipelineConfig configures the recompile pipeline.
	PipelineConfig struct {
		// MaxCyclesPerSecond paces recompile cycles; zero disables pacing.
		MaxCyclesPerSecond float64 `json:"max_cycles_per_second" mapstructure:"max_cycles_per_second"`
		// CacheSize bounds the compiler's per-file cache; zero disables it.
		CacheSize int `json:"cache_size" mapstructure:"cache_size"`
	}

	// RuntimeConfig configures command execution.
	RuntimeConfig struct {
		// Default is the runtime for commands that do not declare one.
		Default RuntimeMode `json:"default" mapstructure:"default"`
		// Shell overrides the shell used by the native runtime.
		Shell string `json:"shell" mapstructure:"shell"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		// Level is one of debug, info, warn, error.
		Level LogLevel `json:"level" mapstructure:"level"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ScriptsDir:     "scripts",
		LibrariesDir:   "lib",
		OutputPath:     filepath.Join(".livecmd", "module.json"),
		HostReferences: []string{},
		Artifact: ArtifactConfig{
			RetainOnFailure: true,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
			Ignore:   []string{},
		},
		Pipeline: PipelineConfig{
			MaxCyclesPerSecond: 4,
			CacheSize:          256,
		},
		Runtime: RuntimeConfig{
			Default: RuntimeVirtual,
		},
		Log: LogConfig{
			Level: LogLevelInfo,
		},
	}
}

// Validate returns an error if the RuntimeMode is not recognized.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeVirtual, RuntimeNative:
		return nil
	default:
		return &InvalidConfigRuntimeModeError{Value: m}
	}
}

// Error implements the error interface.
func (e *InvalidConfigRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: virtual, native)", e.Value)
}

// Unwrap returns ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
func (e *InvalidConfigRuntimeModeError) Unwrap() error { return ErrInvalidConfigRuntimeMode }

// Validate returns an error if the LogLevel is not recognized.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks the constraints the CUE schema cannot see, such as values
// coming from environment overrides.
func (c *Config) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"scripts_dir", c.ScriptsDir},
		{"libraries_dir", c.LibrariesDir},
		{"output_path", c.OutputPath},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", f.name))
		}
	}
	if c.ScriptsDir != "" && filepath.Clean(c.ScriptsDir) == filepath.Clean(c.LibrariesDir) {
		errs = append(errs, fmt.Errorf("scripts_dir and libraries_dir must differ (both %q)", c.ScriptsDir))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if c.Pipeline.MaxCyclesPerSecond < 0 {
		errs = append(errs, fmt.Errorf("pipeline.max_cycles_per_second must not be negative, got %v", c.Pipeline.MaxCyclesPerSecond))
	}
	if c.Pipeline.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("pipeline.cache_size must not be negative, got %d", c.Pipeline.CacheSize))
	}
	if err := c.Runtime.Default.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Log.Level.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig and every field error, so errors.Is matches
// both the config sentinel and the field sentinels.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Resolve returns a copy of the configuration with every relative path made
// absolute against workspace.
func (c *Config) Resolve(workspace string) *Config {
	out := *c
	out.ScriptsDir = absUnder(workspace, c.ScriptsDir)
	out.LibrariesDir = absUnder(workspace, c.LibrariesDir)
	out.OutputPath = absUnder(workspace, c.OutputPath)
	out.HostReferences = make([]string, len(c.HostReferences))
	for i, ref := range c.HostReferences {
		out.HostReferences[i] = absUnder(workspace, ref)
	}
	out.Watch.Ignore = append([]string(nil), c.Watch.Ignore...)
	return &out
}

func absUnder(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
