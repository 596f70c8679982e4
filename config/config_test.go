package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "walletgate.db", cfg.DatabaseFile)
	assert.Equal(t, "devsecret", cfg.CsrfSecret)

	assert.Equal(t, "localhost:9000", cfg.SIWE.Domain)
	assert.Equal(t, int64(1), cfg.SIWE.ChainID)
	assert.Equal(t, 300*time.Second, cfg.SIWE.NonceTTL)

	assert.Equal(t, 10, cfg.Flood.NonceLimit)
	assert.Equal(t, time.Minute, cfg.Flood.NonceWindow)
	assert.Equal(t, 5, cfg.Flood.AuthLimit)
	assert.Equal(t, time.Minute, cfg.Flood.AuthWindow)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("SIWE_CHAIN_ID", "137")
	t.Setenv("SIWE_NONCE_TTL", "120s")
	t.Setenv("RATELIMIT_AUTH_REQUESTS", "3")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(137), cfg.SIWE.ChainID)
	assert.Equal(t, 2*time.Minute, cfg.SIWE.NonceTTL)
	assert.Equal(t, 3, cfg.Flood.AuthLimit)
}
