package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Pallavikumarimdb/VexonAI/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"port": 8080,
		"database": {"host": "127.0.0.1", "port": 5432, "user": "u", "password": "p", "db_name": "d"},
		"ai": {"provider": "gemini", "data": {"api_key": "k"}}
	}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	require.Equal(t, "text-embedding-004", cfg.AI.EmbedModel)
	require.Equal(t, 768, cfg.AI.EmbedDims)
	require.Equal(t, 10, cfg.AI.MaxCalls)
	require.Equal(t, 60, cfg.AI.WindowSec)
	require.Equal(t, 1000, cfg.AI.CooldownMS)
	require.Equal(t, int64(100*1024), cfg.Ingest.MaxFileSize)
	require.Equal(t, 75000, cfg.Ingest.MaxChunkChars)
	require.Equal(t, 3, cfg.Ingest.MaxRetries)
	require.Equal(t, "0 * * * *", cfg.CommitSync.Spec)
	require.Equal(t, "info", cfg.LogConfig.Level)
}

func TestLoadRejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing port", content: `{"database": {"host": "h"}, "ai": {"provider": "gemini"}}`},
		{name: "missing database", content: `{"port": 8080, "ai": {"provider": "gemini"}}`},
		{name: "missing provider", content: `{"port": 8080, "database": {"host": "h"}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tc.content))
			require.Error(t, err)
		})
	}
}
