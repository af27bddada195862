package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Beeta/pynotex/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"db_path": "/tmp/pynotex.db",
		"port": 8080,
		"file_store": {"type": "local", "dir": "/tmp/uploads"},
		"providers": [{"name": "openai", "model": "gpt-4o-mini", "args": {"api_key": "sk-test"}}]
	}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 1000, cfg.Chunk.Size)
	require.Equal(t, 200, cfg.Chunk.Overlap)
	require.Equal(t, 5, cfg.Retrieve.TopK)
	require.Equal(t, 300, cfg.Transform.TimeoutSec)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 72, cfg.JobSweep.RetainHours)
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := config.Load(writeConfig(t, `{"port": 8080}`))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, `{
		"db_path": "/tmp/x.db", "port": 8080,
		"file_store": {"type": "local", "dir": "/tmp/u"},
		"providers": []
	}`))
	require.Error(t, err)

	_, err = config.Load(writeConfig(t, `{
		"db_path": "/tmp/x.db", "port": 8080,
		"file_store": {"type": "ftp"},
		"providers": [{"name": "openai", "model": "gpt-4o-mini"}]
	}`))
	require.Error(t, err)
}

func TestLoadProviderKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := writeConfig(t, `{
		"db_path": "/tmp/pynotex.db",
		"port": 8080,
		"file_store": {"type": "local", "dir": "/tmp/uploads"},
		"providers": [{"name": "openai", "model": "gpt-4o-mini"}]
	}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	args, ok := cfg.Providers[0].Args.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "sk-from-env", args["api_key"])
}

func TestLoadExplicitKeyWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	path := writeConfig(t, `{
		"db_path": "/tmp/pynotex.db",
		"port": 8080,
		"file_store": {"type": "local", "dir": "/tmp/uploads"},
		"providers": [{"name": "openai", "model": "gpt-4o-mini", "args": {"api_key": "sk-explicit"}}]
	}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	args := cfg.Providers[0].Args.(map[string]interface{})
	require.Equal(t, "sk-explicit", args["api_key"])
}
