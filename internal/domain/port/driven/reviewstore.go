package driven

import (
	"context"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
)

// ReviewStore defines the driven port for persisting reviews on the backend.
// Create returns model.ErrConflict when the user already has a top-level
// review for the product.
type ReviewStore interface {
	Create(ctx context.Context, userID int64, data model.ReviewCreate) (model.Review, error)
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	// ListByProduct returns every review of the product, top-level and
	// follow-up alike, flat and ordered by created_at then id.
	ListByProduct(ctx context.Context, productID int64) ([]model.Review, error)
	HasTopLevelReview(ctx context.Context, userID, productID int64) (bool, error)
	// Vote records userID's vote on a review, replacing any earlier vote by
	// the same user. Returns model.ErrNotFound for an unknown review.
	Vote(ctx context.Context, userID, reviewID int64, vote model.Vote) error
}
