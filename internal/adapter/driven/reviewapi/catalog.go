package reviewapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProductCatalog = (*Catalog)(nil)

// Catalog implements driven.ProductCatalog. Product reads go through an
// in-memory httpcache transport, so repeated page loads revalidate with
// If-None-Match instead of refetching unchanged products.
type Catalog struct {
	endpoint
}

// NewCatalog creates a catalog client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. http.DefaultTransport
func NewCatalog(baseURL string, timeout time.Duration, logger *slog.Logger) (*Catalog, error) {
	return NewCatalogWithHTTPClient(&http.Client{Timeout: timeout}, baseURL, logger)
}

// NewCatalogWithHTTPClient wraps httpClient's transport in a fresh memory
// cache. Tests pass an httptest server client here.
func NewCatalogWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Catalog, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	cacheTransport.Transport = httpClient.Transport
	cacheTransport.MarkCachedResponses = true

	cached := &http.Client{
		Transport: cacheTransport,
		Timeout:   httpClient.Timeout,
	}

	ep, err := newEndpoint(cached, baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &Catalog{endpoint: ep}, nil
}

// GetProductByID fetches one product. A missing product surfaces as an
// *HTTPError with status 404.
func (c *Catalog) GetProductByID(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, fmt.Errorf("get product: id must be positive, got %d: %w", id, model.ErrInvalidInput)
	}

	var p productJSON
	if err := c.doJSON(ctx, http.MethodGet, "/products/"+strconv.FormatInt(id, 10), nil, &p); err != nil {
		return model.Product{}, err
	}

	return mapProduct(p), nil
}

// ListProducts fetches the whole catalog.
func (c *Catalog) ListProducts(ctx context.Context) ([]model.Product, error) {
	var raw []productJSON
	if err := c.doJSON(ctx, http.MethodGet, "/products/", nil, &raw); err != nil {
		return nil, err
	}

	products := make([]model.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, mapProduct(p))
	}

	return products, nil
}
