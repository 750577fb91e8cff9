// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"fmt"
	"os"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the user config directory lookup when set.
	ConfigDirPath string
	// WorkspaceDir anchors relative paths and the livecmd.cue lookup.
	// Defaults to the working directory.
	WorkspaceDir string
	// Environ replaces os.LookupEnv for LIVECMD_ overrides when set.
	Environ func(string) (string, bool)
}

func (o LoadOptions) workspace() (string, error) {
	if o.WorkspaceDir != "" {
		return o.WorkspaceDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// Provider loads configuration from explicit options.
type Provider interface {
	// Load returns the resolved configuration and the file it was read from
	// ("" when only defaults and environment overrides applied).
	Load(ctx context.Context, opts LoadOptions) (*Config, string, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	return loadWithOptions(ctx, opts)
}
