package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestDefaults(t *testing.T) {
	resetViper(t)

	cfg := GetDefaultConfig()
	require.Equal(t, "info", cfg.Logging.Level)
	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, "memory", cfg.Storage.Backend)
	require.Equal(t, 1000, cfg.Broadcast.RetryIntervalMs)
	require.Equal(t, 1000, cfg.Counter.GossipIntervalMs)
}

func TestLoadConfigFromFile(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("logging:\n  level: debug\nstorage:\n  backend: badger\n  data_dir: /tmp/maelnode\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "badger", cfg.Storage.Backend)
	require.Equal(t, "/tmp/maelnode", cfg.Storage.DataDir)
	// Unset sections keep their defaults.
	require.Equal(t, 1000, cfg.Broadcast.RetryIntervalMs)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: redis\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "storage.backend")
}
