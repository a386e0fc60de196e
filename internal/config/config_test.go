package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load([]string{"--data-dir", dir})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "treadmill.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "treadmill-timer.log"), cfg.Log.File)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, 5*time.Second, cfg.HistoryTimeout)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 15*time.Second, cfg.Treadmill.ScanTimeout)
	assert.Empty(t, cfg.Treadmill.Address)
	assert.Zero(t, cfg.Treadmill.MockPort)
	assert.False(t, cfg.Headless)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TREADMILL_TREADMILL_ADDRESS", "C0:FF:EE:00:00:01")
	t.Setenv("TREADMILL_LOG_MAX_BACKUPS", "9")

	cfg, err := Load([]string{"--data-dir", dir})
	require.NoError(t, err)
	assert.Equal(t, "C0:FF:EE:00:00:01", cfg.Treadmill.Address)
	assert.Equal(t, 9, cfg.Log.MaxBackups)
}

func TestLoad_ConfigFileAndFlagPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "treadmill.yaml")
	content := "data_dir: " + dir + "\n" +
		"tick_interval: 500ms\n" +
		"program: program_3\n" +
		"log:\n  max_backups: 7\n  compress: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load([]string{"--config", path, "--program", "program_1", "--treadmill", "mock", "--mock-port", "8099"})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 7, cfg.Log.MaxBackups)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, "program_1", cfg.ProgramID, "flags win over the config file")
	assert.Equal(t, "mock", cfg.Treadmill.Address)
	assert.Equal(t, 8099, cfg.Treadmill.MockPort)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load([]string{"--data-dir", dir, "--headless"})
	assert.Error(t, err)

	_, err = Load([]string{"--data-dir", dir, "--tick-interval", "0s"})
	assert.Error(t, err)

	_, err = Load([]string{"--data-dir", dir, "--mock-port", "70000"})
	assert.Error(t, err)

	_, err = Load([]string{"--no-such-flag"})
	assert.Error(t, err)

	_, err = Load([]string{"--config", filepath.Join(dir, "missing.yaml")})
	assert.Error(t, err)
}
