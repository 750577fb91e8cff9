// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestConfigRuntimeMode_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value   RuntimeMode
		wantErr bool
	}{
		{RuntimeVirtual, false},
		{RuntimeNative, false},
		{"container", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()
			err := tt.value.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidConfigRuntimeMode) {
				t.Errorf("error should wrap ErrInvalidConfigRuntimeMode, got %v", err)
			}
		})
	}
}

func TestLogLevel_Validate(t *testing.T) {
	t.Parallel()

	for _, level := range []LogLevel{LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError} {
		if err := level.Validate(); err != nil {
			t.Errorf("%q.Validate() = %v", level, err)
		}
	}

	err := LogLevel("trace").Validate()
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("trace should be rejected with ErrInvalidLogLevel, got %v", err)
	}
	var levelErr *InvalidLogLevelError
	if !errors.As(err, &levelErr) || levelErr.Value != "trace" {
		t.Errorf("error should be *InvalidLogLevelError carrying the value, got %v", err)
	}
}

func TestConfig_Validate_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ScriptsDir = " "
	cfg.Pipeline.CacheSize = -1
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error should wrap ErrInvalidConfig, got %v", err)
	}
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Errorf("error should expose the log level field error, got %v", err)
	}

	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error should be *InvalidConfigError, got %T", err)
	}
	if len(cfgErr.FieldErrors) != 3 {
		t.Errorf("expected 3 field errors, got %d: %v", len(cfgErr.FieldErrors), cfgErr.FieldErrors)
	}
}

func TestConfig_Validate_SameFolders(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.LibrariesDir = "scripts/"
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("identical scripts and libraries folders should be rejected, got %v", err)
	}
}

func TestConfig_Resolve(t *testing.T) {
	t.Parallel()

	workspace := t.TempDir()
	abs := filepath.Join(t.TempDir(), "out.json")

	cfg := DefaultConfig()
	cfg.OutputPath = abs
	cfg.HostReferences = []string{"vendor/base.sh"}

	got := cfg.Resolve(workspace)

	if got.ScriptsDir != filepath.Join(workspace, "scripts") {
		t.Errorf("ScriptsDir = %q", got.ScriptsDir)
	}
	if got.OutputPath != abs {
		t.Errorf("absolute OutputPath changed to %q", got.OutputPath)
	}
	if got.HostReferences[0] != filepath.Join(workspace, "vendor", "base.sh") {
		t.Errorf("HostReferences[0] = %q", got.HostReferences[0])
	}
	// The receiver is left untouched.
	if cfg.ScriptsDir != "scripts" || cfg.HostReferences[0] != "vendor/base.sh" {
		t.Error("Resolve mutated the original config")
	}
}
