package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	"github.com/shunshunshopify/solstar-horizon/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	hc := httpclient.New(httpclient.Config{Timeout: 0, MaxRetries: 0})
	breaker := httpclient.NewBreakerClient(hc, httpclient.DefaultBreakerConfig("catalog-test-"+t.Name()), testLogger())
	return NewClient(breaker, baseURL, testLogger())
}

const shirtPayload = `{
	"handle": "shirt",
	"url": "/products/shirt",
	"options": [{"name": "Size", "position": 1, "values": ["S", "M"]}],
	"variants": [
		{"id": 1, "available": true, "price": 1990, "options": ["S"]},
		{"id": 2, "available": false, "price": 1990, "options": ["M"]}
	],
	"images": ["https://img.example.com/shirt.jpg"]
}`

func TestClient_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/shirt.js", r.URL.Path)
		w.Write([]byte(shirtPayload))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	p, err := client.Fetch(context.Background(), "shirt")
	require.NoError(t, err)
	assert.Equal(t, "shirt", p.Handle)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, "1", p.Variants[0].ID)
}

func TestClient_Fetch_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.Fetch(context.Background(), "missing")
	assert.Error(t, err)
}

func TestResolver_CachesSuccessfulFetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(shirtPayload))
	}))
	defer srv.Close()

	resolver := NewResolver(newTestClient(t, srv.URL), testLogger())
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, "shirt")
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, "shirt")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second resolution served from cache")
}

func TestResolver_FailureNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(shirtPayload))
	}))
	defer srv.Close()

	resolver := NewResolver(newTestClient(t, srv.URL), testLogger())
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "shirt")
	require.Error(t, err)

	p, err := resolver.Resolve(ctx, "shirt")
	require.NoError(t, err, "a later resolution retries")
	assert.Equal(t, "shirt", p.Handle)
}

func TestResolver_Invalidate(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(shirtPayload))
	}))
	defer srv.Close()

	resolver := NewResolver(newTestClient(t, srv.URL), testLogger())
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, "shirt")
	require.NoError(t, err)

	resolver.Invalidate("shirt")

	_, err = resolver.Resolve(ctx, "shirt")
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHandleOf(t *testing.T) {
	tests := []struct {
		name string
		item domain.WishlistItem
		want string
	}{
		{"stored handle wins", domain.WishlistItem{Handle: "widget", URL: "/products/other"}, "widget"},
		{"parsed from url", domain.WishlistItem{URL: "/products/widget"}, "widget"},
		{"parsed from absolute url", domain.WishlistItem{URL: "https://shop.example.com/products/widget?variant=1"}, "widget"},
		{"collection prefix", domain.WishlistItem{URL: "/collections/sale/products/widget"}, "widget"},
		{"js suffix stripped", domain.WishlistItem{URL: "/products/widget.js"}, "widget"},
		{"no handle or url", domain.WishlistItem{}, ""},
		{"unparseable path", domain.WishlistItem{URL: "/cart"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandleOf(tt.item))
		})
	}
}
