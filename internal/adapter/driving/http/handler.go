package httphandler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/shopreviews/internal/application"
	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/logging"
)

// UserIDHeader identifies the shopper on write requests.
const UserIDHeader = "X-User-ID"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the review REST API.
type Handler struct {
	reviews *application.ReviewService
	db      Pinger
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. db may be nil,
// in which case /health does not ping storage.
func NewHandler(reviews *application.ReviewService, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		reviews: reviews,
		db:      db,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with request-id, logging, recovery and metrics middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /reviews/{productId}", h.ListReviews)
	mux.HandleFunc("POST /reviews/{$}", h.CreateReview)
	mux.HandleFunc("POST /reviews/{id}/vote", h.VoteReview)
	mux.HandleFunc("GET /products/{$}", h.ListProducts)
	mux.HandleFunc("GET /products/{id}", h.GetProduct)
	mux.HandleFunc("POST /purchases/{$}", h.RecordPurchase)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return ApplyMiddleware(mux, logger)
}

// ListReviews returns a product's reviews with follow-ups nested beneath their
// parent. Products without reviews, known or not, yield an empty list.
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r.PathValue("productId"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	reviews, err := h.reviews.ListReviews(r.Context(), productID)
	if err != nil {
		h.writeServiceError(w, r, "failed to list reviews", err)
		return
	}

	resp := ReviewListResponse{Review: make([]ReviewResponse, 0, len(reviews))}
	for _, rv := range reviews {
		resp.Review = append(resp.Review, toReviewResponse(rv))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateReview stores a review or follow-up for the shopper named in X-User-ID.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+UserIDHeader+" header")
		return
	}

	var req CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), userID, req.toModel())
	if err != nil {
		h.writeServiceError(w, r, "failed to create review", err)
		return
	}

	writeJSON(w, http.StatusCreated, ReviewEnvelope{Review: toReviewResponse(review)})
}

// VoteReview records the X-User-ID shopper's like (1) or dislike (0) on a
// review and returns the review with its updated counts.
func (h *Handler) VoteReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+UserIDHeader+" header")
		return
	}

	reviewID, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid review id")
		return
	}

	var req VoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.LikeDislike == nil {
		writeError(w, http.StatusBadRequest, "like_dislike is required")
		return
	}

	review, err := h.reviews.VoteReview(r.Context(), userID, reviewID, model.Vote(*req.LikeDislike))
	if err != nil {
		h.writeServiceError(w, r, "failed to vote on review", err)
		return
	}

	writeJSON(w, http.StatusOK, ReviewEnvelope{Review: toReviewResponse(review)})
}

// ListProducts returns the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.reviews.ListProducts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "failed to list products", err)
		return
	}

	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetProduct returns one product. The body hash is sent as a strong ETag and
// a matching If-None-Match is answered with 304.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.reviews.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "failed to get product", err)
		return
	}

	body, err := json.Marshal(toProductResponse(product))
	if err != nil {
		h.writeServiceError(w, r, "failed to encode product", err)
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:16]) + `"`

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// RecordPurchase marks a product as bought by the shopper in X-User-ID.
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+UserIDHeader+" header")
		return
	}

	var req RecordPurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.reviews.RecordPurchase(r.Context(), userID, req.ProductID); err != nil {
		h.writeServiceError(w, r, "failed to record purchase", err)
		return
	}

	writeJSON(w, http.StatusCreated, PurchaseResponse{UserID: userID, ProductID: req.ProductID})
}

// Health reports ok when storage answers a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			logging.FromContext(r.Context(), h.logger).Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unavailable",
				Time:   time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeServiceError maps err to a response. Only server-side failures are
// logged at error level; client mistakes are logged at debug.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status, message := httpStatusFor(err)
	logger := logging.FromContext(r.Context(), h.logger)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
	} else {
		logger.Debug(msg, "status", status, "error", err)
	}
	writeError(w, status, message)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func userIDFromRequest(r *http.Request) (int64, bool) {
	return parseID(strings.TrimSpace(r.Header.Get(UserIDHeader)))
}

// etagMatches implements the weak comparison used for If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
