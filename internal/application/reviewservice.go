package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// createReviewInput carries the struct-tag rules for an incoming review.
// Rules that depend on other fields live in model.ReviewCreate.Validate.
type createReviewInput struct {
	ProductID      int64  `validate:"required,gt=0"`
	ParentReviewID *int64 `validate:"omitempty,gt=0"`
	Rating         int    `validate:"gte=0,lte=5"`
	Content        string `validate:"required,max=5000"`
}

// ReviewService implements the backend review rules: listing reviews with
// their follow-ups, and accepting new reviews from qualified shoppers. It
// depends only on port interfaces.
type ReviewService struct {
	reviews   driven.ReviewStore
	products  driven.ProductStore
	purchases driven.PurchaseStore
	logger    *slog.Logger
}

// NewReviewService creates a new ReviewService with the required dependencies.
func NewReviewService(
	reviews driven.ReviewStore,
	products driven.ProductStore,
	purchases driven.PurchaseStore,
	logger *slog.Logger,
) *ReviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewService{
		reviews:   reviews,
		products:  products,
		purchases: purchases,
		logger:    logger,
	}
}

// ListReviews returns the product's top-level reviews in creation order, each
// carrying its follow-ups. A product without reviews, or an unknown product,
// yields an empty slice.
func (s *ReviewService) ListReviews(ctx context.Context, productID int64) ([]model.Review, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("product id must be positive: %w", model.ErrInvalidInput)
	}

	flat, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for product %d: %w", productID, err)
	}

	return nestFollowUps(flat), nil
}

// CreateReview stores a review written by userID.
//
// Top-level reviews require a qualifying purchase and at most one top-level
// review per user and product. Follow-ups must reply to one of the user's own
// top-level reviews of the same product.
func (s *ReviewService) CreateReview(ctx context.Context, userID int64, data model.ReviewCreate) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, fmt.Errorf("create review: missing user: %w", model.ErrUnauthorized)
	}

	if err := validateReviewCreate(data); err != nil {
		return model.Review{}, err
	}

	product, err := s.products.GetByID(ctx, data.ProductID)
	if err != nil {
		return model.Review{}, fmt.Errorf("load product %d: %w", data.ProductID, err)
	}
	if product == nil {
		return model.Review{}, fmt.Errorf("product %d: %w", data.ProductID, model.ErrNotFound)
	}

	kind := "review"
	if data.IsFollowUp() {
		kind = "follow_up"
		if err := s.checkFollowUp(ctx, userID, data); err != nil {
			return model.Review{}, err
		}
	} else if err := s.checkTopLevel(ctx, userID, data.ProductID); err != nil {
		return model.Review{}, err
	}

	review, err := s.reviews.Create(ctx, userID, data)
	if err != nil {
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}

	reviewsCreatedTotal.WithLabelValues(kind).Inc()
	s.logger.InfoContext(ctx, "review created",
		slog.Int64("review_id", review.ID),
		slog.Int64("product_id", review.ProductID),
		slog.Int64("user_id", userID),
		slog.String("kind", kind),
	)

	return review, nil
}

func (s *ReviewService) checkTopLevel(ctx context.Context, userID, productID int64) error {
	purchased, err := s.purchases.HasPurchased(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("check purchase: %w", err)
	}
	if !purchased {
		return fmt.Errorf("user %d has not purchased product %d: %w", userID, productID, model.ErrForbidden)
	}

	exists, err := s.reviews.HasTopLevelReview(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("check existing review: %w", err)
	}
	if exists {
		return fmt.Errorf("user %d already reviewed product %d: %w", userID, productID, model.ErrConflict)
	}

	return nil
}

func (s *ReviewService) checkFollowUp(ctx context.Context, userID int64, data model.ReviewCreate) error {
	parentID := *data.ParentReviewID

	parent, err := s.reviews.GetByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("load parent review %d: %w", parentID, err)
	}
	if parent == nil {
		return fmt.Errorf("parent review %d: %w", parentID, model.ErrNotFound)
	}
	if parent.ProductID != data.ProductID {
		return fmt.Errorf("parent review %d belongs to another product: %w", parentID, model.ErrInvalidInput)
	}
	if parent.IsFollowUp() {
		return fmt.Errorf("parent review %d is itself a follow-up: %w", parentID, model.ErrInvalidInput)
	}
	if parent.UserID != userID {
		return fmt.Errorf("parent review %d belongs to another user: %w", parentID, model.ErrForbidden)
	}

	return nil
}

// VoteReview records userID's like or dislike on a review and returns the
// review with refreshed counts. A user holds at most one vote per review; a
// repeat vote replaces the earlier one.
func (s *ReviewService) VoteReview(ctx context.Context, userID, reviewID int64, vote model.Vote) (model.Review, error) {
	if userID <= 0 {
		return model.Review{}, fmt.Errorf("vote review: missing user: %w", model.ErrUnauthorized)
	}
	if reviewID <= 0 {
		return model.Review{}, fmt.Errorf("vote review: review id must be positive: %w", model.ErrInvalidInput)
	}
	if !vote.Valid() {
		return model.Review{}, &model.ValidationError{Problems: []string{"like_dislike must be 0 or 1"}}
	}

	existing, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return model.Review{}, fmt.Errorf("load review %d: %w", reviewID, err)
	}
	if existing == nil {
		return model.Review{}, fmt.Errorf("review %d: %w", reviewID, model.ErrNotFound)
	}

	if err := s.reviews.Vote(ctx, userID, reviewID, vote); err != nil {
		return model.Review{}, fmt.Errorf("vote review %d: %w", reviewID, err)
	}

	updated, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return model.Review{}, fmt.Errorf("reload review %d: %w", reviewID, err)
	}
	if updated == nil {
		return model.Review{}, fmt.Errorf("review %d: %w", reviewID, model.ErrNotFound)
	}

	reviewVotesTotal.WithLabelValues(vote.String()).Inc()
	s.logger.InfoContext(ctx, "review voted",
		slog.Int64("review_id", reviewID),
		slog.Int64("user_id", userID),
		slog.String("vote", vote.String()),
	)

	return *updated, nil
}

// RecordPurchase marks productID as bought by userID, qualifying them to review it.
func (s *ReviewService) RecordPurchase(ctx context.Context, userID, productID int64) error {
	if userID <= 0 {
		return fmt.Errorf("record purchase: missing user: %w", model.ErrUnauthorized)
	}
	if productID <= 0 {
		return fmt.Errorf("record purchase: product id must be positive: %w", model.ErrInvalidInput)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("load product %d: %w", productID, err)
	}
	if product == nil {
		return fmt.Errorf("product %d: %w", productID, model.ErrNotFound)
	}

	if err := s.purchases.Record(ctx, model.Purchase{UserID: userID, ProductID: productID}); err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}

	s.logger.InfoContext(ctx, "purchase recorded",
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
	)
	return nil
}

// GetProduct returns one product with its server-computed rating statistics.
func (s *ReviewService) GetProduct(ctx context.Context, id int64) (model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("load product %d: %w", id, err)
	}
	if product == nil {
		return model.Product{}, fmt.Errorf("product %d: %w", id, model.ErrNotFound)
	}
	return *product, nil
}

// ListProducts returns every catalog product.
func (s *ReviewService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// validateReviewCreate runs the struct-tag rules first and the cross-field
// rules second, reporting both as *model.ValidationError.
func validateReviewCreate(data model.ReviewCreate) error {
	input := createReviewInput{
		ProductID:      data.ProductID,
		ParentReviewID: data.ParentReviewID,
		Rating:         data.Rating,
		Content:        data.Content,
	}

	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate review: %w", err)
		}
		problems := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s %s", toSnakeCase(fe.Field()), msgForTag(fe)))
		}
		return &model.ValidationError{Problems: problems}
	}

	return data.Validate()
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// toSnakeCase maps Go field names to the API's JSON field names.
func toSnakeCase(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// nestFollowUps groups a flat, creation-ordered review list into top-level
// reviews carrying their follow-ups. Order within each level is preserved.
// Follow-ups whose parent is missing are promoted to top level.
func nestFollowUps(flat []model.Review) []model.Review {
	known := make(map[int64]bool, len(flat))
	for _, r := range flat {
		known[r.ID] = true
	}

	children := make(map[int64][]model.Review)
	var roots []model.Review
	for _, r := range flat {
		if r.ParentReviewID != nil && known[*r.ParentReviewID] {
			children[*r.ParentReviewID] = append(children[*r.ParentReviewID], r)
			continue
		}
		roots = append(roots, r)
	}

	var attach func(r model.Review) model.Review
	attach = func(r model.Review) model.Review {
		kids := children[r.ID]
		r.FollowUps = make([]model.Review, 0, len(kids))
		for _, k := range kids {
			r.FollowUps = append(r.FollowUps, attach(k))
		}
		return r
	}

	nested := make([]model.Review, 0, len(roots))
	for _, r := range roots {
		nested = append(nested, attach(r))
	}
	return nested
}
