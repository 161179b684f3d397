package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shunshunshopify/solstar-horizon/internal/catalog"
	"github.com/shunshunshopify/solstar-horizon/internal/event"
	"github.com/shunshunshopify/solstar-horizon/internal/money"
	"github.com/shunshunshopify/solstar-horizon/internal/render"
	redisrepo "github.com/shunshunshopify/solstar-horizon/internal/repository/redis"
	"github.com/shunshunshopify/solstar-horizon/internal/service"
	syncer "github.com/shunshunshopify/solstar-horizon/internal/sync"
	"github.com/shunshunshopify/solstar-horizon/pkg/health"
	"github.com/shunshunshopify/solstar-horizon/pkg/httpclient"
)

const catalogPayload = `{
	"handle": "shirt",
	"url": "/products/shirt",
	"options": [
		{"name": "Size", "position": 1, "values": ["S", "M"]},
		{"name": "Color", "position": 2, "values": ["Red"]}
	],
	"variants": [
		{"id": 10, "available": true, "price": 2500, "options": ["S", "Red"]},
		{"id": 11, "available": true, "price": 2700, "options": ["M", "Red"]}
	]
}`

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := redisrepo.NewWishlistRepository(client, time.Hour, logger)
	svc := service.NewWishlistService(repo, event.NopPublisher{}, syncer.NopNotifier{}, logger)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/products/shirt") {
			w.Write([]byte(catalogPayload))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	hc := httpclient.New(httpclient.Config{MaxRetries: 0})
	breaker := httpclient.NewBreakerClient(hc, httpclient.DefaultBreakerConfig("handler-test-"+t.Name()), logger)
	resolver := catalog.NewResolver(catalog.NewClient(breaker, srv.URL, logger), logger)

	templates, err := render.NewTemplates("")
	require.NoError(t, err)
	format := money.NewFormatter("${{amount}}")
	pipeline := render.NewPipeline(svc, resolver, templates, format, render.Config{}, logger)

	return NewRouter(svc, pipeline, resolver, format, health.NewHandler(), nil, logger)
}

func doRequest(t *testing.T, router http.Handler, method, path, shopperID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if shopperID != "" {
		req.Header.Set("X-User-ID", shopperID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func addBody(id, title string) map[string]any {
	return map[string]any{
		"id":    id,
		"title": title,
		"url":   "/products/shirt",
	}
}

func TestRouter_RequiresShopperID(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/wishlist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddItem_CreatedThenDuplicate(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))
	assert.Equal(t, http.StatusOK, rec.Code, "duplicate add is a no-op")

	var resp struct {
		Data struct {
			Count int   `json:"count"`
			Saved *bool `json:"saved"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Count)
	require.NotNil(t, resp.Data.Saved)
	assert.False(t, *resp.Data.Saved)
}

func TestAddItem_ValidationError(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", map[string]any{"id": "p1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestGetWishlistAndCount(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))
	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p2", "Hat"))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/wishlist", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			Count int `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Count)
	require.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "p1", resp.Data.Items[0].ID, "insertion order preserved")

	rec = doRequest(t, router, http.MethodGet, "/api/v1/wishlist/count", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
}

func TestToggleItem_Twice(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items/p1/toggle", "shopper-1", addBody("", "Shirt"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"saved":true`)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items/p1/toggle", "shopper-1", addBody("", "Shirt"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"saved":false`)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestToggleItem_RemovalNeedsOnlyPathID(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items/p1/toggle", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"saved":false`)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestToggleItem_SavingStillRequiresTitle(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items/p1/toggle", "shopper-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestUpdateOptions_ReselectsVariant(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))

	rec := doRequest(t, router, http.MethodPut, "/api/v1/wishlist/items/p1/options", "shopper-1",
		map[string]any{"selection": []string{"M", "Red"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Item struct {
				VariantID string `json:"variant_id"`
				Price     string `json:"price"`
				URL       string `json:"url"`
			} `json:"item"`
			Options []struct {
				Name     string `json:"name"`
				Selected string `json:"selected"`
			} `json:"options"`
			Changed bool `json:"changed"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "11", resp.Data.Item.VariantID)
	assert.Equal(t, "$27.00", resp.Data.Item.Price)
	assert.Equal(t, "/products/shirt?variant=11", resp.Data.Item.URL)
	assert.True(t, resp.Data.Changed)
	require.Len(t, resp.Data.Options, 2)
	assert.Equal(t, "M", resp.Data.Options[0].Selected)
}

func TestUpdateOptions_UnknownItem(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodPut, "/api/v1/wishlist/items/nope/options", "shopper-1",
		map[string]any{"selection": []string{"M"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveItemAndClear(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))
	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p2", "Hat"))

	rec := doRequest(t, router, http.MethodDelete, "/api/v1/wishlist/items/p1", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/wishlist", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/wishlist", "shopper-1", nil)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestRenderEndpoint_ReturnsHTML(t *testing.T) {
	router := setupRouter(t)

	doRequest(t, router, http.MethodPost, "/api/v1/wishlist/items", "shopper-1", addBody("p1", "Shirt"))

	rec := doRequest(t, router, http.MethodGet, "/api/v1/wishlist/render", "shopper-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Shirt")
}

func TestContentTypeJSON_Rejected(t *testing.T) {
	router := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/wishlist/items", strings.NewReader("id=p1"))
	req.Header.Set("X-User-ID", "shopper-1")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}