package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 30*time.Minute, cfg.OrderGraceWindow)
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 100, cfg.OutboxBatchSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("GATEWAY_CURRENCY", "USD")
	t.Setenv("ORDER_GRACE_WINDOW", "45m")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 45*time.Minute, cfg.OrderGraceWindow)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ORDER_GRACE_WINDOW", "not-a-duration")
	t.Setenv("OUTBOX_MAX_RETRIES", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.OrderGraceWindow)
	assert.Equal(t, 5, cfg.OutboxMaxRetries)
}
