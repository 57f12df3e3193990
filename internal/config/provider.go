// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"

	"github.com/charmbracelet/log"
)

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// RootDir is the package being validated; its .skillkit.cue is used
	// when no explicit file is given.
	RootDir string
	// ConfigDirPath overrides the user config directory lookup when set.
	ConfigDirPath string
	// Logger receives deprecation notices. Nil discards them.
	Logger *log.Logger
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	return loadWithOptions(ctx, opts)
}
