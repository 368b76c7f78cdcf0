package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,           default=8080"`
	Env           string `env:"ENV,            default=development"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`
	SessionSecret string `env:"SESSION_SECRET"`

	Backend BackendConfig
	Store   StoreConfig
	Redis   RedisConfig
	Runtime RuntimeConfig
}

// BackendConfig points the core at the upstream storefront REST API.
type BackendConfig struct {
	BaseURL string        `env:"BACKEND_BASE_URL, default=http://localhost:8000"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT,  default=10s"`
}

// StoreConfig selects the durable session store backing.
type StoreConfig struct {
	// Backend is "file" or "redis".
	Backend string `env:"STORE_BACKEND, default=file"`
	Dir     string `env:"STORE_DIR,     default=./data/sessions"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// RuntimeConfig tunes the per-browser runtime registry.
type RuntimeConfig struct {
	// IdleTTL is how long an untouched browser runtime survives before
	// eviction.
	IdleTTL time.Duration `env:"RUNTIME_IDLE_TTL, default=30m"`
	// CookieTTL is the lifetime of the signed browser-session cookie.
	CookieTTL time.Duration `env:"SESSION_COOKIE_TTL, default=720h"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
