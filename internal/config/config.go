// internal/config/config.go

// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config is shared by the server and historian binaries. Values come from the
// environment, with a .env file autoloaded by the binaries.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	QueueName   string        `env:"HISTORIAN_QUEUE_NAME" envDefault:"stardeal_actions"`
	SnapshotTTL time.Duration `env:"PENDING_SNAPSHOT_TTL" envDefault:"1h"`

	PGUser      string `env:"POSTGRES_USER" envDefault:"postgres"`
	PGPassword  string `env:"POSTGRES_PASSWORD"`
	PGHost      string `env:"PG_HOST" envDefault:"localhost"`
	PGPort      string `env:"PG_PORT" envDefault:"5432"`
	PGDatabase  string `env:"PG_DATABASE" envDefault:"stardeal"`
	DatabaseURL string `env:"DATABASE_URL"`

	// TokenExpire of zero means issued tokens never expire.
	TokenExpire    time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
	PrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	PublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH"`

	HouseRulesFile string `env:"HOUSE_RULES_FILE"`

	HistorianBatchSize int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	HistorianFlush     time.Duration `env:"HISTORIAN_FLUSH_INTERVAL" envDefault:"500ms"`
	RoomInactivity     time.Duration `env:"ROOM_INACTIVITY_TIMEOUT" envDefault:"10m"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.HistorianBatchSize <= 0 {
		return Config{}, fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.HistorianBatchSize)
	}
	return cfg, nil
}

// PostgresURL is DATABASE_URL when set, else a URL built from the PG_* parts.
func (c Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
