package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8006, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2160, cfg.WishlistTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "${{amount}}", cfg.MoneyFormat)
	assert.Equal(t, 4, cfg.ResolveConcurrency)
	assert.False(t, cfg.RemoveOnCartAdd)
	assert.False(t, cfg.HoverPreview)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("WISHLIST_HTTP_PORT", "9000")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("REMOVE_ON_CART_ADD", "true")
	t.Setenv("STOREFRONT_BASE_URL", "https://shop.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.RemoveOnCartAdd)
	assert.Equal(t, "https://shop.example.com", cfg.StorefrontBaseURL)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("WISHLIST_HTTP_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidConcurrency(t *testing.T) {
	t.Setenv("RESOLVE_CONCURRENCY", "0")

	_, err := Load()
	assert.Error(t, err)
}
