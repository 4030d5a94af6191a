package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir())) // no config file present
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{".", "./data", "/mnt/data"}, cfg.Data.Roots)
	assert.Equal(t, "outputs", cfg.Data.OutputDir)
	assert.Equal(t, 3, cfg.Enrich.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Enrich.InitialBackoff())
	assert.Equal(t, 1, cfg.Pipeline.MaxConcurrentSources)
	assert.True(t, cfg.RunLog.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("BENEFITS_LOG_LEVEL", "debug")
	t.Setenv("BENEFITS_PIPELINE_MAX_CONCURRENT_SOURCES", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Pipeline.MaxConcurrentSources)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "console"}))
}
