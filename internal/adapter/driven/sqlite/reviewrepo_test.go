package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seededProductID is inserted by the 000002 seed migration.
const seededProductID int64 = 42

func int64Ptr(v int64) *int64 {
	return &v
}

// newClockedReviewRepo returns a repo whose clock advances one second per insert.
func newClockedReviewRepo(db *DB) *ReviewRepo {
	repo := NewReviewRepo(db)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return repo
}

func TestReviewRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, 7, model.ReviewCreate{
		ProductID: seededProductID,
		Rating:    5,
		Content:   "Great!",
	})
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, int64(7), created.UserID)
	assert.Equal(t, 5, created.Rating)
	assert.Nil(t, created.ParentReviewID)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 1, 0, time.UTC), created.CreatedAt)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created, *got)
}

func TestReviewRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)

	got, err := repo.GetByID(context.Background(), 999)

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReviewRepo_FollowUpWithoutRating(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	parent, err := repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 4, Content: "Good"})
	require.NoError(t, err)

	followUp, err := repo.Create(ctx, 7, model.ReviewCreate{
		ProductID:      seededProductID,
		ParentReviewID: int64Ptr(parent.ID),
		Content:        "Still good a month later",
	})
	require.NoError(t, err)

	require.NotNil(t, followUp.ParentReviewID)
	assert.Equal(t, parent.ID, *followUp.ParentReviewID)
	assert.Equal(t, 0, followUp.Rating)
	assert.False(t, followUp.HasRating())
}

func TestReviewRepo_Create_DuplicateTopLevel(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	parent, err := repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 4, Content: "first"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 2, Content: "second"})
	assert.ErrorIs(t, err, model.ErrConflict)

	// Follow-ups are not limited by the top-level uniqueness rule.
	for i := 0; i < 2; i++ {
		_, err = repo.Create(ctx, 7, model.ReviewCreate{
			ProductID: seededProductID, ParentReviewID: int64Ptr(parent.ID), Content: "update",
		})
		require.NoError(t, err)
	}

	// Another user may still review the product.
	_, err = repo.Create(ctx, 8, model.ReviewCreate{ProductID: seededProductID, Rating: 3, Content: "ok"})
	require.NoError(t, err)
}

func TestReviewRepo_Create_RejectsOutOfRangeRating(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)

	_, err := repo.Create(context.Background(), 7, model.ReviewCreate{ProductID: seededProductID, Rating: 6, Content: "x"})

	assert.Error(t, err)
}

func TestReviewRepo_Create_UnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)

	_, err := repo.Create(context.Background(), 7, model.ReviewCreate{ProductID: 999, Rating: 3, Content: "x"})

	assert.Error(t, err, "foreign key on product_id should reject unknown products")
}

func TestReviewRepo_ListByProduct_Ordered(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 5, Content: "Great!"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, 8, model.ReviewCreate{ProductID: seededProductID, Rating: 2, Content: "Meh"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, 7, model.ReviewCreate{
		ProductID: seededProductID, ParentReviewID: int64Ptr(first.ID), Content: "Update",
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, 7, model.ReviewCreate{ProductID: 1, Rating: 4, Content: "Other product"})
	require.NoError(t, err)

	got, err := repo.ListByProduct(ctx, seededProductID)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, "Great!", got[0].Content)
	assert.Equal(t, "Meh", got[1].Content)
	assert.Equal(t, "Update", got[2].Content)
	assert.True(t, got[2].IsFollowUp())
}

func TestReviewRepo_ListByProduct_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)

	got, err := repo.ListByProduct(context.Background(), seededProductID)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReviewRepo_HasTopLevelReview(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	has, err := repo.HasTopLevelReview(ctx, 7, seededProductID)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 5, Content: "Great!"})
	require.NoError(t, err)

	has, err = repo.HasTopLevelReview(ctx, 7, seededProductID)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasTopLevelReview(ctx, 8, seededProductID)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestReviewRepo_Vote_CountsAndReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	review, err := repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 4, Content: "Good"})
	require.NoError(t, err)
	assert.Zero(t, review.LikesCount)
	assert.Zero(t, review.DislikesCount)

	require.NoError(t, repo.Vote(ctx, 8, review.ID, model.VoteLike))
	require.NoError(t, repo.Vote(ctx, 9, review.ID, model.VoteLike))
	require.NoError(t, repo.Vote(ctx, 10, review.ID, model.VoteDislike))

	got, err := repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.LikesCount)
	assert.Equal(t, 1, got.DislikesCount)

	// A second vote by the same user replaces the first.
	require.NoError(t, repo.Vote(ctx, 8, review.ID, model.VoteDislike))

	got, err = repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.Equal(t, 2, got.DislikesCount)
}

func TestReviewRepo_Vote_CountsInList(t *testing.T) {
	db := setupTestDB(t)
	repo := newClockedReviewRepo(db)
	ctx := context.Background()

	first, err := repo.Create(ctx, 7, model.ReviewCreate{ProductID: seededProductID, Rating: 4, Content: "Good"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, 8, model.ReviewCreate{ProductID: seededProductID, Rating: 2, Content: "Meh"})
	require.NoError(t, err)

	require.NoError(t, repo.Vote(ctx, 9, second.ID, model.VoteLike))

	got, err := repo.ListByProduct(ctx, seededProductID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.ID, got[0].ID)
	assert.Zero(t, got[0].LikesCount)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, 1, got[1].LikesCount)
	assert.Zero(t, got[1].DislikesCount)
}

func TestReviewRepo_Vote_UnknownReview(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepo(db)

	err := repo.Vote(context.Background(), 7, 999, model.VoteLike)

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
