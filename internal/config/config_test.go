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
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDecimals, "4")
	t.Setenv(EnvTarget, "12.5")
	t.Setenv(EnvModel, "claude-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Decimals)
	assert.Equal(t, 12.5, cfg.Target)
	assert.True(t, cfg.HasTarget)
	assert.Equal(t, "claude-test", cfg.Model)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearEnv(t)

	path := filepath.Join(dir, "pert.env")
	require.NoError(t, os.WriteFile(path, []byte("PERTLOOM_TARGET=30\nPERTLOOM_DECIMALS=1\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Target)
	assert.Equal(t, 1, cfg.Decimals)

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	t.Setenv(EnvDecimals, "-2")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv(EnvDecimals, "")
	t.Setenv(EnvTarget, "soon")
	_, err = Load("")
	assert.Error(t, err)
}

// clearEnv unsets every variable Load reads; godotenv never overrides a
// variable that is already present, even if empty.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvLogLevel, EnvDecimals, EnvTarget, EnvModel} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}
