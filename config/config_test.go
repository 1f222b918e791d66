package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "DB_DRIVER", "DB_PATH", "SERVER_PORT", "JWT_SECRET", "ADMIN_PASSWORD",
		"STORAGE_BACKEND", "STORAGE_DIR", "MQ_BACKEND", "MQ_LINE_STOP_CHANNEL",
		"REPORT_TIMEZONE", "LOG_LEVEL", "LEGACY_DB_PATH", "RABBITMQ_QUEUE_DURABLE",
	} {
		unsetEnv(t, key)
	}

	cfg := LoadConfig()
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, cfg.Database.IsSQLite())
	assert.Equal(t, "lidercheck.db", cfg.Database.Path)
	assert.Equal(t, 3000, cfg.ServerPort)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, "admin", cfg.AdminPassword)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "storage", cfg.Storage.LocalDir)
	assert.Empty(t, cfg.MQ.Backend)
	assert.Equal(t, "line-stops", cfg.MQ.Channel)
	assert.True(t, cfg.MQ.RabbitMQ.QueueDurable)
	assert.Equal(t, "America/Manaus", cfg.ReportTimezone)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "legacy.db", cfg.LegacyDBPath)
}

func TestLoadConfig_Overrides(t *testing.T) {
	unsetEnv(t, "ENV")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "MINIO")
	t.Setenv("MINIO_USE_SSL", "not-a-bool")
	t.Setenv("MQ_BACKEND", "rabbitmq")
	t.Setenv("RABBITMQ_PREFETCH", "10")
	t.Setenv("REPORT_TIMEZONE", "UTC")

	cfg := LoadConfig()
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.False(t, cfg.Database.IsSQLite())
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.False(t, cfg.Storage.Minio.UseSSL)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
	assert.Equal(t, 10, cfg.MQ.RabbitMQ.PrefetchCount)
	assert.Equal(t, "UTC", cfg.ReportTimezone)
}
