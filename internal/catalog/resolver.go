package catalog

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_hits_total",
		Help: "Catalog resolutions served from the in-memory cache",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_cache_misses_total",
		Help: "Catalog resolutions that required a fetch",
	})
	fetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_failures_total",
		Help: "Catalog fetches that failed or returned malformed payloads",
	})
)

// Resolver caches normalized catalog data per handle for the lifetime of the
// process. Failed fetches are never cached, so a later resolution retries.
type Resolver struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]*domain.ProductData
}

// NewResolver creates a resolver over the given fetcher.
func NewResolver(fetcher Fetcher, logger *slog.Logger) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		logger:  logger,
		cache:   make(map[string]*domain.ProductData),
	}
}

// Resolve returns catalog data for the handle, fetching on cache miss.
func (r *Resolver) Resolve(ctx context.Context, handle string) (*domain.ProductData, error) {
	r.mu.RLock()
	product, ok := r.cache[handle]
	r.mu.RUnlock()
	if ok {
		cacheHits.Inc()
		return product, nil
	}

	cacheMisses.Inc()
	product, err := r.fetcher.Fetch(ctx, handle)
	if err != nil {
		fetchFailures.Inc()
		r.logger.WarnContext(ctx, "catalog resolution failed",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	r.mu.Lock()
	r.cache[handle] = product
	r.mu.Unlock()

	return product, nil
}

// Invalidate drops the cached entry for a handle. Cached data is otherwise
// never expired; a fresh fetch replaces it on the next resolution.
func (r *Resolver) Invalidate(handle string) {
	r.mu.Lock()
	delete(r.cache, handle)
	r.mu.Unlock()
}

// HandleOf resolves the catalog handle for a saved item: the stored handle
// when present, else the URL path segment following "products". Returns ""
// when neither works; such items render from stored fields only.
func HandleOf(item domain.WishlistItem) string {
	if item.Handle != "" {
		return item.Handle
	}
	if item.URL == "" {
		return ""
	}

	u, err := url.Parse(item.URL)
	if err != nil {
		return ""
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if seg != "products" {
			continue
		}
		if i+1 < len(segments) && segments[i+1] != "" {
			handle := segments[i+1]
			handle = strings.TrimSuffix(handle, ".js")
			handle = strings.TrimSuffix(handle, ".json")
			return handle
		}
	}
	return ""
}
