package driven

import (
	"context"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
)

// ProductStore defines the driven port for product persistence.
// GetByID returns nil, nil when the product does not exist.
type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
}

// PurchaseStore defines the driven port for qualifying-purchase records.
type PurchaseStore interface {
	Record(ctx context.Context, purchase model.Purchase) error
	HasPurchased(ctx context.Context, userID, productID int64) (bool, error)
}
