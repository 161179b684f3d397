package config

import (
	"fmt"

	pkgconfig "github.com/shunshunshopify/solstar-horizon/pkg/config"
)

// Config holds all configuration for the wishlist service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"WISHLIST_HTTP_PORT" envDefault:"8006"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Wishlist TTL in hours (default: 90 days)
	WishlistTTL int `env:"WISHLIST_TTL_HOURS" envDefault:"2160"`

	// Kafka
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaEnabled     bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	CartUpdatedTopic string   `env:"CART_UPDATED_TOPIC" envDefault:"storefront.cart.updated"`
	ConsumerGroupID  string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"wishlist-service"`

	// Storefront catalog endpoint
	StorefrontBaseURL string `env:"STOREFRONT_BASE_URL" envDefault:"http://localhost:8080"`

	// Render behavior
	HoverPreview       bool   `env:"HOVER_PREVIEW" envDefault:"false"`
	MoneyFormat        string `env:"MONEY_FORMAT" envDefault:"${{amount}}"`
	ItemTemplate       string `env:"ITEM_TEMPLATE" envDefault:""`
	ResolveConcurrency int    `env:"RESOLVE_CONCURRENCY" envDefault:"4"`

	// Policy: drop an item from the wishlist once it is added to the cart.
	RemoveOnCartAdd bool `env:"REMOVE_ON_CART_ADD" envDefault:"false"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	SampleRate     float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load wishlist config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.WishlistTTL < 1 {
		return fmt.Errorf("invalid wishlist TTL: %d", c.WishlistTTL)
	}
	if c.ResolveConcurrency < 1 {
		return fmt.Errorf("invalid resolve concurrency: %d", c.ResolveConcurrency)
	}
	if c.StorefrontBaseURL == "" {
		return fmt.Errorf("storefront base URL is required")
	}
	return nil
}
