package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName  string `envconfig:"APP_NAME" default:"walletd"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL" required:"true"`

	MigrationsDir  string `envconfig:"MIGRATIONS_DIR" default:"migrations"`
	MigrateOnStart bool   `envconfig:"MIGRATE_ON_START" default:"true"`

	DBMaxConns int32 `envconfig:"DB_MAX_CONNS" default:"25"`

	QueueKey          string `envconfig:"QUEUE_KEY" default:"operation_queue"`
	WorkerCount       int    `envconfig:"WORKER_COUNT" default:"4"`
	DeadLetterEnabled bool   `envconfig:"DEAD_LETTER_ENABLED" default:"true"`

	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"60s"`
	IdempotencyTTL  time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads configuration values from the environment and populates a
// Config instance.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
