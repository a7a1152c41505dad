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
	path := filepath.Join(t.TempDir(), "composer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, "network-diagram-state-v1", cfg.Store.Key)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, "3.8", cfg.Compose.Version)
	assert.False(t, cfg.Compose.Terraform)
	assert.Equal(t, 24.0, cfg.Canvas.NodeRadius)
	assert.Equal(t, 10.0, cfg.Canvas.LinkTolerance)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
  redis_addr: cache:6379
  redis_db: 2
compose:
  version: "3.9"
  terraform: true
canvas:
  node_radius: 30
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.Equal(t, "3.9", cfg.Compose.Version)
	assert.True(t, cfg.Compose.Terraform)
	assert.Equal(t, 30.0, cfg.Canvas.NodeRadius)
	assert.Equal(t, 10.0, cfg.Canvas.LinkTolerance)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: warn\n")
	t.Setenv("COMPOSER_LOG_LEVEL", "debug")
	t.Setenv("COMPOSER_STORE_BACKEND", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "none", cfg.Store.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Store.Backend)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unparseable yaml", "store: [backend\n"},
		{"unknown backend", "store:\n  backend: etcd\n"},
		{"empty key", "store:\n  key: \"\"\n"},
		{"zero radius", "canvas:\n  node_radius: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
