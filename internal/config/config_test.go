package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasSaneDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "appgen-heal", cfg.Temporal.TaskQueue)
	assert.False(t, cfg.Temporal.Enabled)
}

func TestApplyEnvOverridesDefaults(t *testing.T) {
	t.Setenv("APPGEN_HTTP_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://example/db")
	t.Setenv("APPGEN_PROVIDER_MODEL", "llama-3")
	t.Setenv("APPGEN_TEMPORAL_HOST", "temporal.internal:7233")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "postgres://example/db", cfg.Database.URL)
	assert.Equal(t, "llama-3", cfg.Provider.Model)
	assert.Equal(t, "temporal.internal:7233", cfg.Temporal.Host)
	assert.True(t, cfg.Temporal.Enabled)
}

func TestLoadFromFileMergesYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	yaml := "server:\n  http_port: 7777\nprovider:\n  model: custom-model\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("APPGEN_PROVIDER_MODEL", "")
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, "custom-model", cfg.Provider.Model)
}

func TestLoadFromFileMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default().Server.HTTPPort, cfg.Server.HTTPPort)
}

func TestResolveAPIKeyPrefersConfiguredValue(t *testing.T) {
	cfg := Default()
	cfg.Provider.APIKey = "sk-configured"
	key, err := ResolveAPIKey(cfg)
	require.NoError(t, err)
	assert.Equal(t, "sk-configured", key)
}
