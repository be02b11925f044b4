package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewRepo)(nil)

const reviewColumns = `id, product_id, user_id, parent_review_id, rating, content, created_at`

// reviewSelectColumns appends the like and dislike tallies from review_votes.
const reviewSelectColumns = reviewColumns + `,
	(SELECT COUNT(*) FROM review_votes v WHERE v.review_id = reviews.id AND v.vote = 1),
	(SELECT COUNT(*) FROM review_votes v WHERE v.review_id = reviews.id AND v.vote = 0)`

// ReviewRepo is the SQLite implementation of the ReviewStore port interface.
type ReviewRepo struct {
	db  *DB
	now func() time.Time
}

// NewReviewRepo creates a new ReviewRepo backed by the given DB.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db, now: time.Now}
}

// Create inserts a review authored by userID. A second top-level review by the
// same user for the same product violates idx_reviews_one_top_level and is
// reported as model.ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, userID int64, data model.ReviewCreate) (model.Review, error) {
	const query = `
		INSERT INTO reviews (product_id, user_id, parent_review_id, rating, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING ` + reviewColumns + `, 0, 0`

	var parentID any
	if data.ParentReviewID != nil {
		parentID = *data.ParentReviewID
	}

	var rating any
	if data.Rating > 0 {
		rating = data.Rating
	}

	row := r.db.Writer.QueryRowContext(ctx, query,
		data.ProductID, userID, parentID, rating, data.Content, formatTime(r.now()),
	)

	review, err := scanReview(row)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Review{}, fmt.Errorf("user %d already reviewed product %d: %w", userID, data.ProductID, model.ErrConflict)
		}
		return model.Review{}, fmt.Errorf("insert review: %w", err)
	}

	return *review, nil
}

// GetByID returns the review with the given id, or nil, nil when absent.
func (r *ReviewRepo) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	const query = `SELECT ` + reviewSelectColumns + ` FROM reviews WHERE id = ?`

	review, err := scanReview(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review %d: %w", id, err)
	}

	return review, nil
}

// ListByProduct returns all reviews of a product, flat, ordered by created_at then id.
func (r *ReviewRepo) ListByProduct(ctx context.Context, productID int64) ([]model.Review, error) {
	const query = `
		SELECT ` + reviewSelectColumns + `
		FROM reviews
		WHERE product_id = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for product %d: %w", productID, err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, nil
}

// HasTopLevelReview reports whether userID already reviewed productID.
func (r *ReviewRepo) HasTopLevelReview(ctx context.Context, userID, productID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM reviews
			WHERE user_id = ? AND product_id = ? AND parent_review_id IS NULL
		)
	`

	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check review for user %d product %d: %w", userID, productID, err)
	}

	return exists, nil
}

// Vote upserts userID's vote on reviewID. An unknown review fails the
// review_votes foreign key and is reported as model.ErrNotFound.
func (r *ReviewRepo) Vote(ctx context.Context, userID, reviewID int64, vote model.Vote) error {
	const query = `
		INSERT INTO review_votes (user_id, review_id, vote, voted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, review_id) DO UPDATE SET
			vote = excluded.vote,
			voted_at = excluded.voted_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query, userID, reviewID, int(vote), formatTime(r.now()))
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("review %d: %w", reviewID, model.ErrNotFound)
		}
		return fmt.Errorf("vote on review %d: %w", reviewID, err)
	}

	return nil
}

func scanReview(s scanner) (*model.Review, error) {
	var (
		review    model.Review
		parentID  sql.NullInt64
		rating    sql.NullInt64
		createdAt string
	)

	err := s.Scan(&review.ID, &review.ProductID, &review.UserID, &parentID, &rating, &review.Content, &createdAt,
		&review.LikesCount, &review.DislikesCount)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		id := parentID.Int64
		review.ParentReviewID = &id
	}
	if rating.Valid {
		review.Rating = int(rating.Int64)
	}

	review.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &review, nil
}
