package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// MsgLoadFailed is the single page-level message shown when either the
// product or its reviews cannot be loaded.
const MsgLoadFailed = "Failed to load product details."

var (
	// ErrStaleLoad is returned by a load whose results were discarded because
	// a newer load started or the page was closed while it was in flight.
	ErrStaleLoad = errors.New("product page load superseded")

	// ErrPageClosed is returned by loads started after Close.
	ErrPageClosed = errors.New("product page closed")
)

// Compile-time interface satisfaction check.
var _ SubmitListener = (*ProductPage)(nil)

// PageState is the coarse render state of the product detail page.
type PageState int

const (
	PageLoading PageState = iota
	PageError
	PageReady
)

func (s PageState) String() string {
	switch s {
	case PageLoading:
		return "loading"
	case PageError:
		return "error"
	case PageReady:
		return "ready"
	default:
		return "unknown"
	}
}

// PageSnapshot is everything needed to render the page at one instant.
// Reviews is replaced wholesale on every successful load and never mutated.
type PageSnapshot struct {
	State     PageState
	ProductID int64
	Product   model.Product
	Reviews   []model.Review
	Error     string
}

// ProductPage owns the authoritative review collection for one product detail
// page. New reviews become visible only through Refresh.
type ProductPage struct {
	catalog driven.ProductCatalog
	api     driven.ReviewAPI
	logger  *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	closed     bool
	snap       PageSnapshot
}

// NewProductPage creates a page in the Loading state.
func NewProductPage(catalog driven.ProductCatalog, api driven.ReviewAPI, logger *slog.Logger) *ProductPage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductPage{
		catalog: catalog,
		api:     api,
		logger:  logger,
		snap:    PageSnapshot{State: PageLoading},
	}
}

// Load fetches the product and its reviews concurrently. Any failure moves the
// page to PageError with no partial data. Starting a load cancels the one in
// flight; the superseded load returns ErrStaleLoad and leaves state untouched.
func (p *ProductPage) Load(ctx context.Context, productID int64) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPageClosed
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.generation++
	gen := p.generation
	loadCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.snap = PageSnapshot{State: PageLoading, ProductID: productID}
	p.mu.Unlock()
	defer cancel()

	var (
		product model.Product
		reviews []model.Review
	)

	g, gctx := errgroup.WithContext(loadCtx)
	g.Go(func() error {
		var err error
		product, err = p.catalog.GetProductByID(gctx, productID)
		if err != nil {
			return fmt.Errorf("fetch product %d: %w", productID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		reviews, err = p.api.ListReviews(gctx, productID)
		if err != nil {
			return fmt.Errorf("fetch reviews for product %d: %w", productID, err)
		}
		return nil
	})
	err := g.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.generation {
		p.logger.DebugContext(ctx, "discarding stale product page load", "product_id", productID)
		return ErrStaleLoad
	}
	p.cancel = nil

	if err != nil {
		p.logger.ErrorContext(ctx, "failed to load product page", "product_id", productID, "error", err)
		p.snap = PageSnapshot{State: PageError, ProductID: productID, Error: MsgLoadFailed}
		pageLoadsTotal.WithLabelValues(PageError.String()).Inc()
		return err
	}

	if reviews == nil {
		reviews = []model.Review{}
	}
	p.snap = PageSnapshot{State: PageReady, ProductID: productID, Product: product, Reviews: reviews}
	pageLoadsTotal.WithLabelValues(PageReady.String()).Inc()

	return nil
}

// Refresh re-runs both fetches for the product currently shown.
func (p *ProductPage) Refresh(ctx context.Context) error {
	p.mu.Lock()
	productID := p.snap.ProductID
	p.mu.Unlock()

	if productID <= 0 {
		return fmt.Errorf("refresh: no product loaded: %w", model.ErrInvalidInput)
	}
	return p.Load(ctx, productID)
}

// ReviewSubmitted refreshes the page after the form's review was accepted.
// Load failures are already reflected in the page state.
func (p *ProductPage) ReviewSubmitted(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleLoad) {
		p.logger.DebugContext(ctx, "refresh after submit did not complete", "error", err)
	}
}

// Snapshot returns the current render state.
func (p *ProductPage) Snapshot() PageSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Close cancels any in-flight load and makes later results a no-op.
func (p *ProductPage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
