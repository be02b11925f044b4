package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// --- Store mocks for ReviewService tests ---

var (
	_ driven.ReviewStore    = (*mockReviewStore)(nil)
	_ driven.ProductStore   = (*mockProductStore)(nil)
	_ driven.PurchaseStore  = (*mockPurchaseStore)(nil)
	_ driven.ReviewAPI      = (*mockReviewAPI)(nil)
	_ driven.ProductCatalog = (*mockCatalog)(nil)
)

type mockReviewStore struct {
	mu        sync.Mutex
	reviews   []model.Review
	nextID    int64
	createErr error
	listErr   error
	voteErr   error
	votes     map[[2]int64]model.Vote
}

// withCounts tallies recorded votes onto r. Callers hold m.mu.
func (m *mockReviewStore) withCounts(r model.Review) model.Review {
	r.LikesCount, r.DislikesCount = 0, 0
	for key, v := range m.votes {
		if key[1] != r.ID {
			continue
		}
		if v == model.VoteLike {
			r.LikesCount++
		} else {
			r.DislikesCount++
		}
	}
	return r
}

func (m *mockReviewStore) Create(_ context.Context, userID int64, data model.ReviewCreate) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return model.Review{}, m.createErr
	}
	m.nextID++
	r := model.Review{
		ID:             m.nextID,
		ProductID:      data.ProductID,
		UserID:         userID,
		ParentReviewID: data.ParentReviewID,
		Rating:         data.Rating,
		Content:        data.Content,
		CreatedAt:      time.Date(2024, 3, 1, 12, 0, int(m.nextID), 0, time.UTC),
	}
	m.reviews = append(m.reviews, r)
	return r, nil
}

func (m *mockReviewStore) GetByID(_ context.Context, id int64) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			r := m.withCounts(r)
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockReviewStore) ListByProduct(_ context.Context, productID int64) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, m.withCounts(r))
		}
	}
	return out, nil
}

func (m *mockReviewStore) HasTopLevelReview(_ context.Context, userID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.ProductID == productID && !r.IsFollowUp() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewStore) Vote(_ context.Context, userID, reviewID int64, vote model.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voteErr != nil {
		return m.voteErr
	}
	if m.votes == nil {
		m.votes = make(map[[2]int64]model.Vote)
	}
	m.votes[[2]int64{userID, reviewID}] = vote
	return nil
}

type mockProductStore struct {
	products map[int64]model.Product
	err      error
}

func (m *mockProductStore) GetByID(_ context.Context, id int64) (*model.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *mockProductStore) ListAll(_ context.Context) ([]model.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Product
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

type purchaseKey struct{ userID, productID int64 }

type mockPurchaseStore struct {
	mu        sync.Mutex
	purchased map[purchaseKey]bool
}

func (m *mockPurchaseStore) Record(_ context.Context, p model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purchased == nil {
		m.purchased = make(map[purchaseKey]bool)
	}
	m.purchased[purchaseKey{p.UserID, p.ProductID}] = true
	return nil
}

func (m *mockPurchaseStore) HasPurchased(_ context.Context, userID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purchased[purchaseKey{userID, productID}], nil
}

// --- Client-side mocks for ReviewForm and ProductPage tests ---

type mockReviewAPI struct {
	listFn   func(ctx context.Context, productID int64) ([]model.Review, error)
	submitFn func(ctx context.Context, data model.ReviewCreate) (model.Review, error)

	listCalls   atomic.Int32
	submitCalls atomic.Int32
}

func (m *mockReviewAPI) ListReviews(ctx context.Context, productID int64) ([]model.Review, error) {
	m.listCalls.Add(1)
	if m.listFn == nil {
		return []model.Review{}, nil
	}
	return m.listFn(ctx, productID)
}

func (m *mockReviewAPI) SubmitReview(ctx context.Context, data model.ReviewCreate) (model.Review, error) {
	m.submitCalls.Add(1)
	if m.submitFn == nil {
		return model.Review{ID: 1, ProductID: data.ProductID, Rating: data.Rating, Content: data.Content}, nil
	}
	return m.submitFn(ctx, data)
}

type mockCatalog struct {
	getFn func(ctx context.Context, id int64) (model.Product, error)
	calls atomic.Int32
}

func (m *mockCatalog) GetProductByID(ctx context.Context, id int64) (model.Product, error) {
	m.calls.Add(1)
	if m.getFn == nil {
		return model.Product{ID: id, Name: "Product"}, nil
	}
	return m.getFn(ctx, id)
}

func (m *mockCatalog) ListProducts(_ context.Context) ([]model.Product, error) {
	return []model.Product{{ID: 42, Name: "Product"}}, nil
}

func int64Ptr(v int64) *int64 {
	return &v
}
