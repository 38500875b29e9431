package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var keys = []string{
	"DATABASE_URL", "HTTP_PORT", "ADMIN_API_KEY", "STATEMENTS_DIR", "IMPORT_INTERVAL", "PARSE_WORKERS",
	"XLSX_EXPORT_PATH", "GOOGLE_SHEETS_ID", "GOOGLE_CREDENTIALS_JSON", "LOG_LEVEL", "MAX_UPLOAD_BYTES",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// Keep a .env in the package directory from leaking into the test.
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	require.Empty(t, cfg.DatabaseURL)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, "./statements", cfg.StatementsDir)
	require.Equal(t, time.Hour, cfg.ImportInterval)
	require.Equal(t, 4, cfg.ParseWorkers)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.EqualValues(t, 20<<20, cfg.MaxUploadBytes)
}

func TestLoadEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("IMPORT_INTERVAL", "15m")
	t.Setenv("PARSE_WORKERS", "8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := Load()

	require.Equal(t, "postgres://localhost/testdb", cfg.DatabaseURL)
	require.Equal(t, "9090", cfg.HTTPPort)
	require.Equal(t, 15*time.Minute, cfg.ImportInterval)
	require.Equal(t, 8, cfg.ParseWorkers)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.EqualValues(t, 1024, cfg.MaxUploadBytes)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("IMPORT_INTERVAL", "soon")
	t.Setenv("PARSE_WORKERS", "-2")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()

	require.Equal(t, time.Hour, cfg.ImportInterval)
	require.Equal(t, 4, cfg.ParseWorkers)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STATEMENTS_DIR=/data/inbox\nHTTP_PORT=7070\n"), 0o600))
	t.Setenv("HTTP_PORT", "9191")

	cfg := Load()

	require.Equal(t, "/data/inbox", cfg.StatementsDir)
	require.Equal(t, "9191", cfg.HTTPPort, "environment must win over .env")
}
