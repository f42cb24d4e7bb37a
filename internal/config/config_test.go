package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates a test from the caller's VENTSIM_* settings and .env.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvDatabase, EnvLogLevel, EnvProfile, EnvWorkers} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Empty(t, cfg.ProfilePath)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, "runs.db", filepath.Base(cfg.DatabasePath))
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDatabase, "/tmp/x.db")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvProfile, "adult.yaml")
	t.Setenv(EnvWorkers, "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DatabasePath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "adult.yaml", cfg.ProfilePath)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvWorkers)
	os.Unsetenv(EnvProfile)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ".env"),
		[]byte("VENTSIM_WORKERS=2\nVENTSIM_PROFILE=child.cue\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv(EnvWorkers)
		os.Unsetenv(EnvProfile)
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "child.cue", cfg.ProfilePath)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvWorkers, "many"},
		{EnvWorkers, "0"},
		{EnvLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvString(t *testing.T) {
	t.Setenv("VENTSIM_TEST_STRING", "value")

	assert.Equal(t, "value", getEnvString("VENTSIM_TEST_STRING", "default"))
	assert.Equal(t, "default", getEnvString("VENTSIM_TEST_MISSING", "default"))
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	require.NotEmpty(t, paths)

	cwd, _ := os.Getwd()
	assert.Contains(t, paths, filepath.Join(cwd, ".env"))
}
