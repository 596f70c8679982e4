package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters. It is read once at
// startup; components receive plain values and never mutate it.
type Config struct {
	LogLevel     int    `env:"LOG_LEVEL" envDefault:"0"`
	Port         string `env:"PORT" envDefault:"9000"`
	RedisURL     string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	DatabaseFile string `env:"DATABASE_FILE" envDefault:"walletgate.db"`
	CsrfSecret   string `env:"CSRF_SECRET" envDefault:"devsecret"`

	SIWE  SIWE  `envPrefix:"SIWE_"`
	Flood Flood `envPrefix:"RATELIMIT_"`
}

// SIWE contains the expected sign-in message parameters for the configured
// network.
type SIWE struct {
	Domain    string        `env:"DOMAIN" envDefault:"localhost:9000"`
	URI       string        `env:"URI" envDefault:"http://localhost:9000"`
	Statement string        `env:"STATEMENT" envDefault:"Sign in with your wallet."`
	ChainID   int64         `env:"CHAIN_ID" envDefault:"1"`
	NonceTTL  time.Duration `env:"NONCE_TTL" envDefault:"300s"`
}

// Flood contains the rate-limit thresholds and windows for the two network
// operations.
type Flood struct {
	NonceLimit  int           `env:"NONCE_REQUESTS" envDefault:"10"`
	NonceWindow time.Duration `env:"NONCE_WINDOW" envDefault:"60s"`
	AuthLimit   int           `env:"AUTH_REQUESTS" envDefault:"5"`
	AuthWindow  time.Duration `env:"AUTH_WINDOW" envDefault:"60s"`
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}
