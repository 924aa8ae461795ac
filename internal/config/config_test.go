package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://api.example.com
session_url: wss://api.example.com
token: secret
project_id: p1
cache_path: /tmp/cache.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.BackendURL)
	assert.Equal(t, "wss://api.example.com", cfg.SessionURL)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, "p1", cfg.ProjectID)
	assert.Equal(t, "/tmp/cache.db", cfg.CachePath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://file.example.com
project_id: p1
`)
	t.Setenv("CANARY_BACKEND_URL", "https://env.example.com")
	t.Setenv("CANARY_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.BackendURL)
	assert.Equal(t, "env-token", cfg.Token)
}

func TestMissingBackendURLFailsFast(t *testing.T) {
	path := writeConfig(t, "project_id: p1\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMissingProjectIDFailsFast(t *testing.T) {
	path := writeConfig(t, "backend_url: https://api.example.com\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestCachePathDefault(t *testing.T) {
	path := writeConfig(t, `
backend_url: https://api.example.com
project_id: p1
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "canary-cache.db", cfg.CachePath)
}
