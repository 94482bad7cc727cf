package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, "stderr", cfg.Logger.Output)
	assert.True(t, cfg.JIT.Enabled)
	assert.True(t, cfg.JIT.Hoist)
	assert.GreaterOrEqual(t, cfg.Parallel.NumWorkers, 1)
	assert.Equal(t, 64, cfg.Parallel.MinChunkSize)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symfn.yaml")
	data := `
logger:
  level: debug
  format: json
jit:
  hoist: false
parallel:
  enabled: true
  num_workers: 3
  min_chunk_size: 8
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "stderr", cfg.Logger.Output)
	assert.True(t, cfg.JIT.Enabled)
	assert.False(t, cfg.JIT.Hoist)
	assert.Equal(t, &Parallel{Enabled: true, NumWorkers: 3, MinChunkSize: 8}, cfg.Parallel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SYMFN_LOGGER_LEVEL", "trace")
	t.Setenv("SYMFN_JIT_ENABLED", "false")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.Logger.Level)
	assert.False(t, cfg.JIT.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  format: xml\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger.format")

	path = filepath.Join(t.TempDir(), "workers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parallel:\n  num_workers: 0\n"), 0o600))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "num_workers")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Viper)
	assert.NoError(t, cfg.validate())
}
