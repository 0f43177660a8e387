package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("reads a config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: https://scrum.example.com\ncache: true\n"), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://scrum.example.com", cfg.Server)
		assert.True(t, cfg.Cache)
	})

	t.Run("fills in the default server", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cacheDir: /tmp/cache\n"), 0600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, defaultServer, cfg.Server)
		assert.Equal(t, "/tmp/cache", cfg.CacheDir)
	})

	t.Run("an explicitly given path must exist", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [unclosed\n"), 0600))

		_, err := Load(path)
		require.Error(t, err)
	})
}
