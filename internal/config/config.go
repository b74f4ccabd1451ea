// Package config loads per-session workspace settings from an HCL file.
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config holds the tunables of one workspace session.
type Config struct {
	// MaxDepth is the directory nesting cap below the root.
	MaxDepth int
	// MaxCheckpoints caps the checkpoint history (FIFO eviction).
	MaxCheckpoints int
	// ContextThreshold is the equal-line run length that closes a diff
	// hunk.
	ContextThreshold int
	// FormatOnWrite runs gofumpt over generated Go files before storing.
	FormatOnWrite bool
	// ValidateOnWrite records tree-sitter diagnostics for written files.
	ValidateOnWrite bool
}

// Default returns the stock session configuration.
func Default() Config {
	return Config{
		MaxDepth:         10,
		MaxCheckpoints:   50,
		ContextThreshold: 4,
		FormatOnWrite:    true,
		ValidateOnWrite:  true,
	}
}

// fileConfig mirrors Config with optional fields so an HCL file only
// overrides what it sets.
type fileConfig struct {
	MaxDepth         *int  `hcl:"max_depth,optional"`
	MaxCheckpoints   *int  `hcl:"max_checkpoints,optional"`
	ContextThreshold *int  `hcl:"context_threshold,optional"`
	FormatOnWrite    *bool `hcl:"format_on_write,optional"`
	ValidateOnWrite  *bool `hcl:"validate_on_write,optional"`
}

// Load reads an HCL config file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var fc fileConfig
	if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if fc.MaxDepth != nil {
		cfg.MaxDepth = *fc.MaxDepth
	}
	if fc.MaxCheckpoints != nil {
		cfg.MaxCheckpoints = *fc.MaxCheckpoints
	}
	if fc.ContextThreshold != nil {
		cfg.ContextThreshold = *fc.ContextThreshold
	}
	if fc.FormatOnWrite != nil {
		cfg.FormatOnWrite = *fc.FormatOnWrite
	}
	if fc.ValidateOnWrite != nil {
		cfg.ValidateOnWrite = *fc.ValidateOnWrite
	}
	return cfg, nil
}
