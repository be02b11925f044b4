package driven

import (
	"context"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
)

// ReviewAPI defines the driven port for the remote review backend.
// Implementations perform network I/O only and keep no local state.
type ReviewAPI interface {
	// ListReviews returns the reviews for a product in backend order. A product
	// with no reviews yields an empty slice, not an error.
	ListReviews(ctx context.Context, productID int64) ([]model.Review, error)

	// SubmitReview creates a review and returns the server-confirmed record.
	SubmitReview(ctx context.Context, data model.ReviewCreate) (model.Review, error)
}

// ReviewVoteAPI casts the shopper's like or dislike on a review and returns
// the review with its refreshed counts.
type ReviewVoteAPI interface {
	VoteReview(ctx context.Context, reviewID int64, vote model.Vote) (model.Review, error)
}

// ProductCatalog defines the driven port for the read-only product catalog.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id int64) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
}

// PurchaseAPI records qualifying purchases on the backend for the shopper
// identified by the request context.
type PurchaseAPI interface {
	RecordPurchase(ctx context.Context, productID int64) error
}
