package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	"github.com/shunshunshopify/solstar-horizon/pkg/httpclient"
)

// Fetcher retrieves catalog data for one product handle.
type Fetcher interface {
	Fetch(ctx context.Context, handle string) (*domain.ProductData, error)
}

// Client fetches product JSON from the storefront catalog endpoint, one
// request per handle.
type Client struct {
	http    *httpclient.BreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a catalog client against baseURL.
func NewClient(http *httpclient.BreakerClient, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Fetch requests the handle's catalog document and normalizes it. A
// non-success status or malformed payload is an error; the caller decides
// whether to retry.
func (c *Client) Fetch(ctx context.Context, handle string) (*domain.ProductData, error) {
	url := fmt.Sprintf("%s/products/%s.js", c.baseURL, handle)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch product %q: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch product %q: unexpected status %d", handle, resp.StatusCode)
	}

	var raw rawProduct
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode product %q: %w", handle, err)
	}

	product := normalize(&raw)
	if product.Handle == "" {
		product.Handle = handle
	}
	if product.URL == "" {
		product.URL = "/products/" + product.Handle
	}

	c.logger.DebugContext(ctx, "catalog fetched",
		slog.String("handle", handle),
		slog.Int("variants", len(product.Variants)),
	)

	return product, nil
}
