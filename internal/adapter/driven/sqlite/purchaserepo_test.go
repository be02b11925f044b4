package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseRepo_RecordAndCheck(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepo(db)
	ctx := context.Background()

	has, err := repo.HasPurchased(ctx, 7, seededProductID)
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, repo.Record(ctx, model.Purchase{
		UserID:      7,
		ProductID:   seededProductID,
		PurchasedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}))

	has, err = repo.HasPurchased(ctx, 7, seededProductID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasPurchased(ctx, 8, seededProductID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPurchaseRepo_RecordIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepo(db)
	ctx := context.Background()

	p := model.Purchase{UserID: 7, ProductID: seededProductID}
	require.NoError(t, repo.Record(ctx, p))
	require.NoError(t, repo.Record(ctx, p))

	var count int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestPurchaseRepo_Record_UnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPurchaseRepo(db)

	err := repo.Record(context.Background(), model.Purchase{UserID: 7, ProductID: 999})

	assert.Error(t, err)
}
