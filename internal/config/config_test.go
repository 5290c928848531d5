// internal/config/config_test.go
package config

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears keys for the duration of the test.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	unset(t, "PORT", "DATABASE_URL", "HISTORIAN_BATCH_SIZE", "HISTORIAN_QUEUE_NAME", "HISTORIAN_FLUSH_INTERVAL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "stardeal_actions", cfg.QueueName)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlush)
	assert.Equal(t, 20, cfg.HistorianBatchSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ROOM_INACTIVITY_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.RoomInactivity)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsEmptyBatch(t *testing.T) {
	t.Setenv("HISTORIAN_BATCH_SIZE", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresURL(t *testing.T) {
	cfg := Config{PGUser: "u", PGPassword: "p", PGHost: "db", PGPort: "5432", PGDatabase: "stardeal"}
	assert.Equal(t, "postgres://u:p@db:5432/stardeal", cfg.PostgresURL())

	cfg.DatabaseURL = "postgres://elsewhere/x"
	assert.Equal(t, "postgres://elsewhere/x", cfg.PostgresURL())

	assert.Equal(t, logrus.InfoLevel, Config{LogLevel: "loud"}.Level())
}
