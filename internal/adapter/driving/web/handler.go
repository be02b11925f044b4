// Package web implements the storefront HTML driving adapter using templ components.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	vm "github.com/ericfisherdev/shopreviews/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/shopreviews/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/shopreviews/internal/application"
	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
	"github.com/ericfisherdev/shopreviews/internal/logging"
)

// Page notices.
const (
	noticeReviewPosted   = "Thanks! Your review has been posted."
	noticeSubmitInFlight = "Your review is already being submitted."
	noticePurchased      = "Purchase recorded. You can now review this product."
	noticePurchaseFailed = "Purchase failed. Please try again."
	noticeVoteFailed     = "Vote failed. Please try again."
	msgProductsFailed    = "Failed to load products."
)

// maxFormBytes caps review and purchase form bodies.
const maxFormBytes = 64 << 10

type pageContextKey struct{}

// Handler is the storefront driving adapter that serves HTML via templ components.
type Handler struct {
	catalog      driven.ProductCatalog
	reviews      driven.ReviewAPI
	votes        driven.ReviewVoteAPI
	purchases    driven.PurchaseAPI
	forms        *formRegistry
	cookieSecure bool
	logger       *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	catalog driven.ProductCatalog,
	reviews driven.ReviewAPI,
	votes driven.ReviewVoteAPI,
	purchases driven.PurchaseAPI,
	cookieSecure bool,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		catalog:      catalog,
		reviews:      reviews,
		votes:        votes,
		purchases:    purchases,
		forms:        newFormRegistry(),
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Index renders the product catalog.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		h.log(r).Error("failed to list products", "error", err)
		h.render(w, r, http.StatusBadGateway, "Products", templates.ProductIndex(nil, msgProductsFailed))
		return
	}

	items := make([]vm.ProductViewModel, 0, len(products))
	for _, p := range products {
		items = append(items, toProductViewModel(p))
	}
	h.render(w, r, http.StatusOK, "Products", templates.ProductIndex(items, ""))
}

// ProductPage renders the product detail page with its reviews and the
// review form.
func (h *Handler) ProductPage(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	csrf := csrfToken(w, r, h.cookieSecure)
	viewer := shopperID(w, r, h.cookieSecure)
	ctx := model.WithUserID(r.Context(), viewer)

	page := application.NewProductPage(h.catalog, h.reviews, h.log(r))
	defer page.Close()

	var notice string
	if r.URL.Query().Get("purchased") == "1" {
		notice = noticePurchased
	}

	// A failed load leaves the page in PageError, which renders as 502.
	_ = page.Load(ctx, productID)
	h.renderProductPage(w, r, http.StatusOK, page.Snapshot(), application.FormState{}, csrf, viewer, notice)
}

// SubmitReview posts a top-level review or a follow-up and re-renders the
// product page with the refreshed reviews or the form error.
func (h *Handler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var parentID int64
	if raw := strings.TrimSpace(r.PostFormValue("parent_review_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "invalid parent_review_id", http.StatusBadRequest)
			return
		}
		parentID = id
	}

	// Unparseable ratings are treated as unset and rejected by validation.
	rating, _ := strconv.Atoi(r.PostFormValue("rating"))
	content := r.PostFormValue("content")

	csrf := csrfToken(w, r, h.cookieSecure)
	viewer := shopperID(w, r, h.cookieSecure)
	logger := h.log(r)

	page := application.NewProductPage(h.catalog, h.reviews, logger)
	defer page.Close()

	ctx := model.WithUserID(r.Context(), viewer)
	ctx = context.WithValue(ctx, pageContextKey{}, page)

	if err := page.Load(ctx, productID); err != nil {
		h.renderProductPage(w, r, http.StatusOK, page.Snapshot(), application.FormState{}, csrf, viewer, "")
		return
	}

	key := fmt.Sprintf("%s:%d:%d", csrf, productID, parentID)
	form, release := h.forms.acquire(key, func() *application.ReviewForm {
		f := application.NewReviewForm(h.reviews, productID, application.SubmitListenerFunc(refreshRequestPage), logger)
		if parentID > 0 {
			f.ReplyTo(parentID)
		}
		return f
	})
	defer release()

	// A form with a submit in flight keeps its values; Submit reports ErrSubmitInFlight.
	form.Fill(rating, content)

	err := form.Submit(ctx)
	state := form.State()

	status := http.StatusOK
	var notice string
	var validationErr *model.ValidationError
	switch {
	case err == nil:
		notice = noticeReviewPosted
	case errors.Is(err, application.ErrSubmitInFlight):
		status = http.StatusConflict
		notice = noticeSubmitInFlight
	case errors.As(err, &validationErr), errors.Is(err, application.ErrSubmitFailed):
		status = http.StatusUnprocessableEntity
	default:
		logger.Error("unexpected review submission error", "error", err)
		status = http.StatusInternalServerError
	}

	topLevel := state
	if parentID > 0 {
		// Follow-up forms are rendered empty inline; their outcome is a page notice.
		topLevel = application.FormState{}
		if state.LastError != "" {
			notice = state.LastError
		}
	}

	h.renderProductPage(w, r, status, page.Snapshot(), topLevel, csrf, viewer, notice)
}

// Purchase records a purchase for the current shopper and redirects back to
// the product page.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	viewer := shopperID(w, r, h.cookieSecure)
	ctx := model.WithUserID(r.Context(), viewer)

	if err := h.purchases.RecordPurchase(ctx, productID); err != nil {
		h.log(r).Error("failed to record purchase", "product_id", productID, "error", err)

		page := application.NewProductPage(h.catalog, h.reviews, h.log(r))
		defer page.Close()
		_ = page.Load(ctx, productID)

		csrf := csrfToken(w, r, h.cookieSecure)
		h.renderProductPage(w, r, http.StatusBadGateway, page.Snapshot(), application.FormState{}, csrf, viewer, noticePurchaseFailed)
		return
	}

	h.log(r).Info("purchase recorded", "product_id", productID)
	http.Redirect(w, r, productPath(productID)+"?purchased=1", http.StatusSeeOther)
}

// Vote casts the shopper's like or dislike on a review and redirects back to
// that review on the product page.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseProductID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	reviewID, err := strconv.ParseInt(r.PathValue("reviewID"), 10, 64)
	if err != nil || reviewID <= 0 {
		http.NotFound(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if !validateCSRF(r) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	vote, err := model.ParseVote(r.PostFormValue("like_dislike"))
	if err != nil {
		http.Error(w, "invalid like_dislike", http.StatusBadRequest)
		return
	}

	viewer := shopperID(w, r, h.cookieSecure)
	ctx := model.WithUserID(r.Context(), viewer)
	logger := h.log(r)

	if _, err := h.votes.VoteReview(ctx, reviewID, vote); err != nil {
		logger.Error("failed to vote on review", "product_id", productID, "review_id", reviewID, "error", err)

		page := application.NewProductPage(h.catalog, h.reviews, logger)
		defer page.Close()
		_ = page.Load(ctx, productID)

		csrf := csrfToken(w, r, h.cookieSecure)
		h.renderProductPage(w, r, http.StatusBadGateway, page.Snapshot(), application.FormState{}, csrf, viewer, noticeVoteFailed)
		return
	}

	logger.Info("review voted", "review_id", reviewID, "vote", vote.String())
	http.Redirect(w, r, fmt.Sprintf("%s#review-%d", productPath(productID), reviewID), http.StatusSeeOther)
}

// Health reports storefront liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// refreshRequestPage reloads the page attached to the submitting request. A
// registered form may outlive the request that created it, so the page is
// taken from the submitting context rather than bound at construction.
func refreshRequestPage(ctx context.Context) {
	if page, ok := ctx.Value(pageContextKey{}).(*application.ProductPage); ok {
		page.ReviewSubmitted(ctx)
	}
}

// renderProductPage renders the page for snap. A page that failed to load is
// always answered with 502 regardless of status.
func (h *Handler) renderProductPage(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	snap application.PageSnapshot,
	form application.FormState,
	csrf string,
	viewer int64,
	notice string,
) {
	page := toProductPageViewModel(snap, form, csrf, viewer, notice)
	if !page.Ready {
		status = http.StatusBadGateway
	}
	h.render(w, r, status, page.Title, templates.ProductPage(page))
}

// render buffers the full document so a template error can still become a 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	var buf bytes.Buffer
	if err := templates.Layout(title, body).Render(r.Context(), &buf); err != nil {
		h.log(r).Error("failed to render page", "title", title, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), h.logger)
}

func parseProductID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
