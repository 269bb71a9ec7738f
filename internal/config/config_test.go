package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BREAKWATCH_CONFIG_PATH", "BREAKWATCH_SERVER_HOST", "BREAKWATCH_SERVER_PORT",
		"BREAKWATCH_TRANSPORT", "BREAKWATCH_DB_PATH", "BREAKWATCH_LOG_LEVEL", "BREAKWATCH_LOG_PATH",
		"BREAKWATCH_TREND_DAYS", "BREAKWATCH_TIMEZONE", "BREAKWATCH_SYNC_RETRY_MAX", "BREAKWATCH_SYNC_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, 7, cfg.Analysis.TrendDays)
	require.Equal(t, 30*time.Second, cfg.Sync.Timeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "breakwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
transport:
  mode: stdio
analysis:
  trend_days: 14
  timezone: America/Sao_Paulo
sync:
  timeout: 5s
`), 0o644))
	t.Setenv("BREAKWATCH_SERVER_PORT", "9191")
	t.Setenv("BREAKWATCH_LOG_PATH", "/tmp/breakwatch.log")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Server.Port)
	require.Equal(t, "stdio", cfg.Transport.Mode)
	require.Equal(t, 14, cfg.Analysis.TrendDays)
	require.Equal(t, 5*time.Second, cfg.Sync.Timeout)
	require.Equal(t, 3, cfg.Sync.RetryMax)
	require.Equal(t, "/tmp/breakwatch.log", cfg.Log.Path)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "America/Sao_Paulo", loc.String())
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db:\n  path: /data/scans.db\n"), 0o644))
	t.Setenv("BREAKWATCH_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/data/scans.db", cfg.DB.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad port", env: map[string]string{"BREAKWATCH_SERVER_PORT": "http"}},
		{name: "port out of range", env: map[string]string{"BREAKWATCH_SERVER_PORT": "70000"}},
		{name: "unknown transport", env: map[string]string{"BREAKWATCH_TRANSPORT": "grpc"}},
		{name: "bad trend days", env: map[string]string{"BREAKWATCH_TREND_DAYS": "week"}},
		{name: "zero trend days", env: map[string]string{"BREAKWATCH_TREND_DAYS": "0"}},
		{name: "trend days above cap", env: map[string]string{"BREAKWATCH_TREND_DAYS": "367"}},
		{name: "bad timezone", env: map[string]string{"BREAKWATCH_TIMEZONE": "Mars/Olympus"}},
		{name: "bad timeout", env: map[string]string{"BREAKWATCH_SYNC_TIMEOUT": "soon"}},
		{name: "negative retries", env: map[string]string{"BREAKWATCH_SYNC_RETRY_MAX": "-1"}},
		{name: "bad yaml", file: "server: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), "c.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o644))
			}
			_, err := LoadFrom(path)
			require.Error(t, err)
		})
	}
}

func TestLoad_TrendDaysAtCap(t *testing.T) {
	clearEnv(t)
	t.Setenv("BREAKWATCH_TREND_DAYS", "366")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 366, cfg.Analysis.TrendDays)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")
}
