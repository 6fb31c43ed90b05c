package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "LOG_LEVEL", "REDACT_ERRORS", "METRICS_PORT",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_MAX_CONNS", "DB_CONNECT_TIMEOUT", "POOL_STATS_INTERVAL", "DB_TIMEZONE",
	"SHUTDOWN_TIMEOUT",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func missingDotenv(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(missingDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, 6120, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.RedactErrors)
	assert.False(t, cfg.MetricsEnabled())
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "root", cfg.Database.User)
	assert.Empty(t, cfg.Database.Password)
	assert.Equal(t, "osteo", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, time.Duration(0), cfg.Database.StatsInterval)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.ShutdownTimeout)
	assert.Equal(t, ":6120", cfg.GetHTTPAddr())

	loc, err := cfg.Database.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "reporter")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "certs")
	t.Setenv("DB_TIMEZONE", "UTC")
	t.Setenv("REDACT_ERRORS", "true")
	t.Setenv("METRICS_PORT", "9102")

	cfg, err := Load(missingDotenv(t))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "reporter", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "certs", cfg.Database.Name)
	assert.True(t, cfg.RedactErrors)
	assert.True(t, cfg.MetricsEnabled())

	loc, err := cfg.Database.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_HOST=from-file\nDB_NAME=dotenv_db\nPORT=7000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, "dotenv_db", cfg.Database.Name)
	assert.Equal(t, 7000, cfg.Port)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{name: "port out of range", key: "PORT", val: "70000", want: "invalid HTTP port"},
		{name: "port not a number", key: "PORT", val: "abc", want: "failed to parse config"},
		{name: "bad log level", key: "LOG_LEVEL", val: "verbose", want: "invalid log level"},
		{name: "zero pool", key: "DB_MAX_CONNS", val: "0", want: "pool size"},
		{name: "bad timezone", key: "DB_TIMEZONE", val: "Mars/Olympus", want: "invalid database timezone"},
		{name: "metrics on api port", key: "METRICS_PORT", val: "6120", want: "metrics port must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load(missingDotenv(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
