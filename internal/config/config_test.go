package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "daily_tracker.db", cfg.DatabaseURL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "08:00", cfg.ReportTime)
	assert.Equal(t, "UTC", cfg.Location.String())
	assert.Equal(t, 10, cfg.LockTTLSeconds)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DEFAULT_TIMEZONE", "Europe/Moscow")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("TELEGRAM_TOKEN", "  token  ")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "token", cfg.TelegramToken)
}

func TestLoadFromDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REPORT_TIME=07:30\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "07:30", cfg.ReportTime)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]map[string]string{
		"driver":   {"DATABASE_DRIVER": "oracle"},
		"timezone": {"DEFAULT_TIMEZONE": "Mars/Olympus"},
		"clock":    {"REPORT_TIME": "25:00"},
		"surface":  {"HTTP_ADDR": " ", "TELEGRAM_TOKEN": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("09:05")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"9", "24:00", "10:60", "aa:bb"} {
		_, _, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
