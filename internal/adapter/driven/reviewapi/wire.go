package reviewapi

import (
	"fmt"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
)

// reviewJSON is the backend's wire shape for a review.
type reviewJSON struct {
	ID             int64        `json:"id"`
	ProductID      int64        `json:"product_id"`
	UserID         int64        `json:"user_id,omitempty"`
	ParentReviewID *int64       `json:"parent_review_id"`
	Rating         *int         `json:"rating"`
	Content        string       `json:"content"`
	CreatedAt      string       `json:"created_at"`
	LikesCount     int          `json:"likes_count"`
	DislikesCount  int          `json:"dislikes_count"`
	FollowUps      []reviewJSON `json:"follow_up_reviews"`
}

// reviewListEnvelope wraps GET /reviews/{productId} responses.
type reviewListEnvelope struct {
	Review []reviewJSON `json:"review"`
}

// reviewEnvelope wraps POST /reviews/ responses.
type reviewEnvelope struct {
	Review *reviewJSON `json:"review"`
}

// reviewCreateJSON is the POST /reviews/ request body.
type reviewCreateJSON struct {
	ProductID      int64  `json:"product_id"`
	ParentReviewID *int64 `json:"parent_review_id,omitempty"`
	Rating         int    `json:"rating,omitempty"`
	Content        string `json:"content"`
}

// voteJSON is the POST /reviews/{id}/vote request body. Zero is a dislike and
// must be sent.
type voteJSON struct {
	LikeDislike int `json:"like_dislike"`
}

// purchaseJSON is the POST /purchases/ request body.
type purchaseJSON struct {
	ProductID int64 `json:"product_id"`
}

// productJSON is the backend's wire shape for a catalog product.
type productJSON struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	ImageURL      string  `json:"image_url"`
	Price         float64 `json:"price"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

func toReviewCreateJSON(c model.ReviewCreate) reviewCreateJSON {
	return reviewCreateJSON{
		ProductID:      c.ProductID,
		ParentReviewID: c.ParentReviewID,
		Rating:         c.Rating,
		Content:        c.Content,
	}
}

// mapReview converts a wire review, including its follow-ups, to the domain type.
func mapReview(r reviewJSON) (model.Review, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return model.Review{}, fmt.Errorf("review %d: parse created_at: %w", r.ID, err)
	}

	review := model.Review{
		ID:             r.ID,
		ProductID:      r.ProductID,
		UserID:         r.UserID,
		ParentReviewID: r.ParentReviewID,
		Content:        r.Content,
		CreatedAt:      createdAt,
		LikesCount:     r.LikesCount,
		DislikesCount:  r.DislikesCount,
		FollowUps:      []model.Review{},
	}
	if r.Rating != nil {
		review.Rating = *r.Rating
	}

	for _, f := range r.FollowUps {
		followUp, err := mapReview(f)
		if err != nil {
			return model.Review{}, err
		}
		review.FollowUps = append(review.FollowUps, followUp)
	}

	return review, nil
}

func mapProduct(p productJSON) model.Product {
	return model.Product{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Price:         p.Price,
		AverageRating: p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

// parseTime accepts RFC 3339 timestamps as well as the zone-less ISO form
// some backends emit; zone-less values are treated as UTC.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", s)
}
