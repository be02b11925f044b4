package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PurchaseStore = (*PurchaseRepo)(nil)

// PurchaseRepo is the SQLite implementation of the PurchaseStore port interface.
type PurchaseRepo struct {
	db *DB
}

// NewPurchaseRepo creates a new PurchaseRepo backed by the given DB.
func NewPurchaseRepo(db *DB) *PurchaseRepo {
	return &PurchaseRepo{db: db}
}

// Record stores a purchase. Recording the same user and product twice keeps
// the first purchase time.
func (r *PurchaseRepo) Record(ctx context.Context, purchase model.Purchase) error {
	const query = `
		INSERT INTO purchases (user_id, product_id, purchased_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, product_id) DO NOTHING
	`

	at := purchase.PurchasedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.Writer.ExecContext(ctx, query, purchase.UserID, purchase.ProductID, formatTime(at))
	if err != nil {
		return fmt.Errorf("record purchase of product %d by user %d: %w", purchase.ProductID, purchase.UserID, err)
	}

	return nil
}

// HasPurchased reports whether userID bought productID.
func (r *PurchaseRepo) HasPurchased(ctx context.Context, userID, productID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = ? AND product_id = ?)`

	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, userID, productID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check purchase of product %d by user %d: %w", productID, userID, err)
	}

	return exists, nil
}
