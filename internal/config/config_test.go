package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 50, cfg.MaxCheckpoints)
	assert.Equal(t, 4, cfg.ContextThreshold)
	assert.True(t, cfg.FormatOnWrite)
	assert.True(t, cfg.ValidateOnWrite)
}

func TestLoad_PartialOverride(t *testing.T) {
	path := writeConfig(t, "context_threshold = 8\nformat_on_write = false\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.ContextThreshold)
	assert.False(t, cfg.FormatOnWrite)

	// Everything unset keeps its default.
	assert.Equal(t, 10, cfg.MaxDepth)
	assert.Equal(t, 50, cfg.MaxCheckpoints)
	assert.True(t, cfg.ValidateOnWrite)
}

func TestLoad_AllFields(t *testing.T) {
	path := writeConfig(t, `
max_depth         = 6
max_checkpoints   = 20
context_threshold = 2
format_on_write   = false
validate_on_write = false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		MaxDepth:         6,
		MaxCheckpoints:   20,
		ContextThreshold: 2,
		FormatOnWrite:    false,
		ValidateOnWrite:  false,
	}, cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	assert.Error(t, err)
}

func TestLoad_BadSyntax(t *testing.T) {
	path := writeConfig(t, "max_depth = = 3")
	_, err := Load(path)
	assert.Error(t, err)
}
