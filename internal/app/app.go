package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shunshunshopify/solstar-horizon/internal/catalog"
	"github.com/shunshunshopify/solstar-horizon/internal/config"
	"github.com/shunshunshopify/solstar-horizon/internal/event"
	handler "github.com/shunshunshopify/solstar-horizon/internal/handler/http"
	"github.com/shunshunshopify/solstar-horizon/internal/money"
	"github.com/shunshunshopify/solstar-horizon/internal/render"
	redisrepo "github.com/shunshunshopify/solstar-horizon/internal/repository/redis"
	"github.com/shunshunshopify/solstar-horizon/internal/service"
	syncer "github.com/shunshunshopify/solstar-horizon/internal/sync"
	"github.com/shunshunshopify/solstar-horizon/pkg/health"
	"github.com/shunshunshopify/solstar-horizon/pkg/httpclient"
	pkgkafka "github.com/shunshunshopify/solstar-horizon/pkg/kafka"
	"github.com/shunshunshopify/solstar-horizon/pkg/middleware"
	"github.com/shunshunshopify/solstar-horizon/pkg/tracing"
)

// App wires together all dependencies and runs the wishlist service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	producer   *pkgkafka.Producer
	consumer   *pkgkafka.Consumer
	sync       *syncer.Synchronizer
	pipeline   *render.Pipeline
	httpServer *http.Server

	shutdownTracing func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Tracing (no-op unless enabled).
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:  "wishlist",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.SampleRate,
		Enabled:      cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Kafka producer, or a no-op publisher when kafka is disabled.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher = event.NopPublisher{}
	)
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewKafkaPublisher(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Catalog resolver behind a circuit breaker.
	httpClient := httpclient.New(httpclient.DefaultConfig())
	breaker := httpclient.NewBreakerClient(httpClient, httpclient.DefaultBreakerConfig("catalog"), logger)
	catalogClient := catalog.NewClient(breaker, cfg.StorefrontBaseURL, logger)
	resolver := catalog.NewResolver(catalogClient, logger)

	// Build the dependency graph.
	wishlistTTL := time.Duration(cfg.WishlistTTL) * time.Hour
	repo := redisrepo.NewWishlistRepository(rdb, wishlistTTL, logger)
	format := money.NewFormatter(cfg.MoneyFormat)

	templates, err := render.NewTemplates(cfg.ItemTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	// The synchronizer and the service reference each other: writes notify
	// peers, foreign notifications re-run the pipeline. Wire the reload
	// callback after both exist.
	var pipeline *render.Pipeline

	sync := syncer.NewSynchronizer(rdb, func(ctx context.Context, shopperID string) {
		if _, err := pipeline.Render(ctx, shopperID); err != nil {
			logger.WarnContext(ctx, "reload render failed",
				slog.String("shopper_id", shopperID),
				slog.String("error", err.Error()),
			)
		}
	}, logger)
	wishlistService := service.NewWishlistService(repo, publisher, sync, logger)

	pipeline = render.NewPipeline(wishlistService, resolver, templates, format, render.Config{
		Concurrency:  cfg.ResolveConcurrency,
		HoverPreview: cfg.HoverPreview,
	}, logger)

	// Cart events consumer applying the remove-on-cart-add policy.
	var consumer *pkgkafka.Consumer
	if cfg.KafkaEnabled {
		listener := event.NewCartListener(wishlistService, cfg.RemoveOnCartAdd, logger)
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.ConsumerGroupID,
			Topic:   cfg.CartUpdatedTopic,
		}, listener.Handle, logger)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.Register("kafka", producer.Ping)
	}

	// HTTP router.
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	router := handler.NewRouter(wishlistService, pipeline, resolver, format, healthHandler, limiter, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		rdb:             rdb,
		producer:        producer,
		consumer:        consumer,
		sync:            sync,
		pipeline:        pipeline,
		httpServer:      httpServer,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and background listeners, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		if err := a.sync.Listen(ctx); err != nil {
			a.logger.Error("sync listener error", slog.String("error", err.Error()))
		}
	}()

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("cart consumer error", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	if err := a.shutdownTracing(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
