package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
)

// Store names a repository backend
type Store string

const (
	StoreMemory Store = "memory"
	StoreRedis  Store = "redis"
	StoreSQLite Store = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	Store   Store `env:"EFFECTS_STORE" envDefault:"memory"`
	Redis   RedisConfig
	SQLite  SQLiteConfig
	Effects EffectsConfig
}

// RedisConfig holds Redis-specific configuration. URL wins over the
// individual fields when set.
type RedisConfig struct {
	URL       string `env:"REDIS_URL"`
	Addr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB" envDefault:"0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"effect"`
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH" envDefault:"effects.db"`
}

// EffectsConfig tunes the effect service
type EffectsConfig struct {
	CatalogPath    string  `env:"EFFECTS_CATALOG_PATH"`
	MigrateWorkers int     `env:"EFFECTS_MIGRATE_WORKERS" envDefault:"4"`
	DiceSeed       *uint64 `env:"DICE_SEED"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("EFFECTS_STORE must be one of memory, redis, sqlite; got %q", c.Store)
	}
	if c.Effects.MigrateWorkers < 1 {
		return fmt.Errorf("EFFECTS_MIGRATE_WORKERS must be at least 1, got %d", c.Effects.MigrateWorkers)
	}
	if c.Store == StoreSQLite && c.SQLite.Path == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
	}
	return nil
}

// Options returns go-redis client options for the configuration
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}, nil
}
