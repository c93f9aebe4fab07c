package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:4983", cfg.Server)
	assert.Equal(t, "ndjson", cfg.Format)
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, 5, cfg.Defaults.ReconnectAttempts)
	assert.Equal(t, "10s", cfg.Defaults.HeartbeatInterval)
	assert.Equal(t, "30s", cfg.Defaults.HeartbeatTimeout)
	assert.Equal(t, ":4983", cfg.Defaults.RelayAddr)
}

func TestLoad(t *testing.T) {
	t.Run("returns defaults when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir, _ := os.Getwd()
		os.Chdir(tmpDir)
		defer os.Chdir(origDir)

		cfg, err := Load()
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "ndjson", cfg.Format)
		assert.Equal(t, 5, cfg.Defaults.ReconnectAttempts)
	})

	t.Run("loads config from file", func(t *testing.T) {
		tmpDir := t.TempDir()

		configContent := `
server: "https://pulse.example.com"
format: text
quiet: true
defaults:
  project_id: "proj-42"
  reconnect_attempts: 8
`
		configPath := filepath.Join(tmpDir, "pulse.yaml")
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "https://pulse.example.com", cfg.Server)
		assert.Equal(t, "text", cfg.Format)
		assert.True(t, cfg.Quiet)
		assert.Equal(t, "proj-42", cfg.Defaults.ProjectID)
		assert.Equal(t, 8, cfg.Defaults.ReconnectAttempts)
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("returns error for non-existent file", func(t *testing.T) {
		cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")
		err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("keeps defaults for unset keys", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "partial.yaml")
		err := os.WriteFile(configPath, []byte("format: text\n"), 0644)
		require.NoError(t, err)

		cfg, err := LoadFromFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.Format)
		assert.Equal(t, "http://localhost:4983", cfg.Server)
		assert.Equal(t, ":4983", cfg.Defaults.RelayAddr)
	})
}
