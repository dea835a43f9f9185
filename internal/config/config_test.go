package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFiles()
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Mode)
	assert.Equal(t, "adaptive", cfg.Threshold)
	assert.Equal(t, "legacy", cfg.StackSuffix)
	assert.Equal(t, ":8081", cfg.ListenAddr)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, int64(512<<20), cfg.UploadMaxBytes())
	assert.Equal(t, 2, cfg.WatchWorkers)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("# local\nHANDSCAN_MODE=Positional\nLOG_LEVEL=debug\n"), 0o644))
	t.Setenv("LOG_LEVEL", "warn")
	// godotenv sets variables directly; register them for cleanup
	t.Setenv("HANDSCAN_MODE", "")
	require.NoError(t, os.Unsetenv("HANDSCAN_MODE"))

	cfg, err := LoadFiles(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "positional", cfg.Mode)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("WATCH_WORKERS", "many")
	_, err := LoadFiles()
	assert.Error(t, err)
}
