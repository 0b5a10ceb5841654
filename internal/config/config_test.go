package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bloodlink?sslmode=disable")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("DISPATCH_BATCH_SIZE", "not-a-number")

	cfg := Load()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 50, cfg.DispatchBatchSize)
	assert.Equal(t, time.Hour, cfg.CampaignSweepInterval)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/bloodlink")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("GEO_TIMEOUT", "750ms")
	t.Setenv("DISPATCH_BATCH_SIZE", "200")
	t.Setenv("LOG_FORMAT", "console")

	cfg := Load()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 750*time.Millisecond, cfg.GeoTimeout)
	assert.Equal(t, 200, cfg.DispatchBatchSize)

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestValidateRejects(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "short")

	err := Validate(Load())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")
	assert.Contains(t, err.Error(), "JWTSecret")
}

func TestNewRedisClientDisabled(t *testing.T) {
	client, err := NewRedisClient(&Config{})
	assert.NoError(t, err)
	assert.Nil(t, client)
}
