package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// httpStatusFor maps service errors to a status code and a client-safe message.
// Unrecognized errors become a 500 with a generic message.
func httpStatusFor(err error) (int, string) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, strings.Join(ve.Problems, "; ")
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized, "missing or invalid " + UserIDHeader + " header"
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, "not allowed to review this product"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "review already exists for this product"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ReviewResponse is the JSON representation of a review with its follow-ups.
// Rating is null on follow-ups posted without one.
type ReviewResponse struct {
	ID             int64            `json:"id"`
	ProductID      int64            `json:"product_id"`
	UserID         int64            `json:"user_id"`
	ParentReviewID *int64           `json:"parent_review_id"`
	Rating         *int             `json:"rating"`
	Content        string           `json:"content"`
	CreatedAt      string           `json:"created_at"`
	LikesCount     int              `json:"likes_count"`
	DislikesCount  int              `json:"dislikes_count"`
	FollowUps      []ReviewResponse `json:"follow_up_reviews"`
}

// ReviewListResponse wraps GET /reviews/{productId}.
type ReviewListResponse struct {
	Review []ReviewResponse `json:"review"`
}

// ReviewEnvelope wraps the review created by POST /reviews/.
type ReviewEnvelope struct {
	Review ReviewResponse `json:"review"`
}

// CreateReviewRequest is the JSON body for POST /reviews/.
type CreateReviewRequest struct {
	ProductID      int64  `json:"product_id"`
	ParentReviewID *int64 `json:"parent_review_id"`
	Rating         *int   `json:"rating"`
	Content        string `json:"content"`
}

// VoteRequest is the JSON body for POST /reviews/{id}/vote.
type VoteRequest struct {
	LikeDislike *int `json:"like_dislike"`
}

// ProductResponse is the JSON representation of a catalog product.
type ProductResponse struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url"`
	Price         float64 `json:"price"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// RecordPurchaseRequest is the JSON body for POST /purchases/.
type RecordPurchaseRequest struct {
	ProductID int64 `json:"product_id"`
}

// PurchaseResponse echoes a recorded purchase.
type PurchaseResponse struct {
	UserID    int64 `json:"user_id"`
	ProductID int64 `json:"product_id"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func (req CreateReviewRequest) toModel() model.ReviewCreate {
	data := model.ReviewCreate{
		ProductID:      req.ProductID,
		ParentReviewID: req.ParentReviewID,
		Content:        req.Content,
	}
	if req.Rating != nil {
		data.Rating = *req.Rating
	}
	return data
}

// toReviewResponse converts a domain Review, including nested follow-ups.
func toReviewResponse(r model.Review) ReviewResponse {
	var rating *int
	if r.HasRating() {
		v := r.Rating
		rating = &v
	}

	followUps := make([]ReviewResponse, 0, len(r.FollowUps))
	for _, f := range r.FollowUps {
		followUps = append(followUps, toReviewResponse(f))
	}

	return ReviewResponse{
		ID:             r.ID,
		ProductID:      r.ProductID,
		UserID:         r.UserID,
		ParentReviewID: r.ParentReviewID,
		Rating:         rating,
		Content:        r.Content,
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339Nano),
		LikesCount:     r.LikesCount,
		DislikesCount:  r.DislikesCount,
		FollowUps:      followUps,
	}
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Price:         p.Price,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}
