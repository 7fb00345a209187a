package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "property.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 30, cfg.Reconcile.TimeoutSecs)
	assert.Equal(t, []string{"zenlist", "homescout", "county", "grounded"}, cfg.Reconcile.Sources)
	assert.Equal(t, 0.5, cfg.Layout.WallThickness)
	assert.Equal(t, 9.0, cfg.Layout.CeilingHeight)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/property
reconcile:
  timeout_secs: 10
  sources: [county]
log:
  level: debug
  format: console
`), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/property", cfg.Store.DatabaseURL)
	assert.Equal(t, 10, cfg.Reconcile.TimeoutSecs)
	assert.Equal(t, []string{"county"}, cfg.Reconcile.Sources)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset sections keep their defaults.
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PROPERTY_STORE_DRIVER", "postgres")
	t.Setenv("PROPERTY_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [broken"), 0o644))
	t.Chdir(dir)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read file")
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
}
