package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shunshunshopify/solstar-horizon/internal/money"
	"github.com/shunshunshopify/solstar-horizon/internal/render"
	"github.com/shunshunshopify/solstar-horizon/internal/service"
	"github.com/shunshunshopify/solstar-horizon/pkg/health"
	"github.com/shunshunshopify/solstar-horizon/pkg/middleware"
)

// NewRouter creates a chi router with all wishlist service routes registered.
func NewRouter(
	wishlistService *service.WishlistService,
	pipeline *render.Pipeline,
	resolver render.Resolver,
	format money.Formatter,
	healthHandler *health.Handler,
	limiter *middleware.RateLimiter,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLog(logger))
	r.Use(middleware.Metrics("wishlist"))
	r.Use(middleware.Tracing("wishlist"))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Wishlist API endpoints
	wishlistHandler := NewWishlistHandler(wishlistService, pipeline, resolver, format, logger)

	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(ShopperIDFromHeader)

		r.Get("/", wishlistHandler.GetWishlist)
		r.Get("/count", wishlistHandler.GetCount)
		r.Get("/render", wishlistHandler.RenderWishlist)
		r.Delete("/", wishlistHandler.ClearWishlist)

		r.Post("/items", wishlistHandler.AddItem)
		r.Post("/items/{productId}/toggle", wishlistHandler.ToggleItem)
		r.Put("/items/{productId}/options", wishlistHandler.UpdateOptions)
		r.Delete("/items/{productId}", wishlistHandler.RemoveItem)
	})

	return r
}
