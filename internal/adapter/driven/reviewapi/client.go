// Package reviewapi implements the ReviewAPI and ProductCatalog ports over the
// backend's JSON HTTP API.
package reviewapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.ReviewAPI     = (*Client)(nil)
	_ driven.ReviewVoteAPI = (*Client)(nil)
	_ driven.PurchaseAPI   = (*Client)(nil)
)

// UserIDHeader carries the shopper identity from model.UserIDFromContext
// to the backend.
const UserIDHeader = "X-User-ID"

// Client implements driven.ReviewAPI. It holds no state between calls and
// never retries or caches.
type Client struct {
	endpoint
}

// NewClient creates a review API client with a plain transport and the given
// per-request timeout.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, baseURL, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Client, error) {
	ep, err := newEndpoint(httpClient, baseURL, logger)
	if err != nil {
		return nil, err
	}
	return &Client{endpoint: ep}, nil
}

// ListReviews fetches the reviews of one product and unwraps the
// {"review": [...]} envelope. Zero reviews yields an empty, non-nil slice.
func (c *Client) ListReviews(ctx context.Context, productID int64) ([]model.Review, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("list reviews: product id must be positive, got %d: %w", productID, model.ErrInvalidInput)
	}

	var envelope reviewListEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/reviews/"+strconv.FormatInt(productID, 10), nil, &envelope); err != nil {
		return nil, err
	}

	reviews := make([]model.Review, 0, len(envelope.Review))
	for _, r := range envelope.Review {
		review, err := mapReview(r)
		if err != nil {
			return nil, &NetworkError{Op: "decode reviews", Err: err}
		}
		reviews = append(reviews, review)
	}

	return reviews, nil
}

// SubmitReview posts a new review and returns the server-confirmed record.
// Backend rejections come back as *HTTPError without interpretation.
func (c *Client) SubmitReview(ctx context.Context, data model.ReviewCreate) (model.Review, error) {
	var envelope reviewEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/reviews/", toReviewCreateJSON(data), &envelope); err != nil {
		return model.Review{}, err
	}

	if envelope.Review == nil {
		return model.Review{}, &NetworkError{Op: "decode created review", Err: fmt.Errorf("response has no review")}
	}

	review, err := mapReview(*envelope.Review)
	if err != nil {
		return model.Review{}, &NetworkError{Op: "decode created review", Err: err}
	}

	c.logger.DebugContext(ctx, "review submitted",
		"review_id", review.ID,
		"product_id", review.ProductID,
	)

	return review, nil
}

// VoteReview casts the shopper's like or dislike on reviewID and returns the
// review with the backend's updated counts.
func (c *Client) VoteReview(ctx context.Context, reviewID int64, vote model.Vote) (model.Review, error) {
	if reviewID <= 0 {
		return model.Review{}, fmt.Errorf("vote review: review id must be positive, got %d: %w", reviewID, model.ErrInvalidInput)
	}
	if !vote.Valid() {
		return model.Review{}, fmt.Errorf("vote review: %w", &model.ValidationError{Problems: []string{"like_dislike must be 0 or 1"}})
	}

	var envelope reviewEnvelope
	path := "/reviews/" + strconv.FormatInt(reviewID, 10) + "/vote"
	if err := c.doJSON(ctx, http.MethodPost, path, voteJSON{LikeDislike: int(vote)}, &envelope); err != nil {
		return model.Review{}, err
	}

	if envelope.Review == nil {
		return model.Review{}, &NetworkError{Op: "decode voted review", Err: fmt.Errorf("response has no review")}
	}

	review, err := mapReview(*envelope.Review)
	if err != nil {
		return model.Review{}, &NetworkError{Op: "decode voted review", Err: err}
	}

	c.logger.DebugContext(ctx, "review voted",
		"review_id", review.ID,
		"vote", vote.String(),
	)

	return review, nil
}

// RecordPurchase tells the backend the shopper in ctx bought productID.
func (c *Client) RecordPurchase(ctx context.Context, productID int64) error {
	if productID <= 0 {
		return fmt.Errorf("record purchase: product id must be positive, got %d: %w", productID, model.ErrInvalidInput)
	}

	body := purchaseJSON{ProductID: productID}
	if err := c.doJSON(ctx, http.MethodPost, "/purchases/", body, nil); err != nil {
		return err
	}

	return nil
}

// endpoint is the JSON-over-HTTP plumbing shared by Client and Catalog.
type endpoint struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func newEndpoint(httpClient *http.Client, baseURL string, logger *slog.Logger) (endpoint, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return endpoint{}, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return endpoint{}, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return endpoint{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(u.String(), "/"),
		logger:     logger,
	}, nil
}

// doJSON sends in (if non-nil) as a JSON body and decodes a 2xx response into
// out. A nil out discards the response body.
func (e endpoint) doJSON(ctx context.Context, method, path string, in, out any) error {
	target := e.baseURL + path

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, target, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID, ok := model.UserIDFromContext(ctx); ok {
		req.Header.Set(UserIDHeader, strconv.FormatInt(userID, 10))
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + target, Err: err}
	}
	defer func() {
		// Drain to EOF so caching transports commit the body and the
		// connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
		e.logger.WarnContext(ctx, "review api rejected request",
			"method", method,
			"url", target,
			"status", resp.StatusCode,
			"body", httpErr.Body,
		)
		return httpErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: "decode " + method + " " + target, Err: err}
	}

	return nil
}
