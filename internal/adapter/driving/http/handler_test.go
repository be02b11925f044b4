package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httphandler "github.com/ericfisherdev/shopreviews/internal/adapter/driving/http"
	"github.com/ericfisherdev/shopreviews/internal/application"
	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockReviewStore struct {
	mu      sync.Mutex
	reviews []model.Review
	err     error
}

func (m *mockReviewStore) Create(_ context.Context, userID int64, data model.ReviewCreate) (model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.Review{}, m.err
	}
	r := model.Review{
		ID:             int64(len(m.reviews) + 1),
		ProductID:      data.ProductID,
		UserID:         userID,
		ParentReviewID: data.ParentReviewID,
		Rating:         data.Rating,
		Content:        data.Content,
		CreatedAt:      testTime.Add(time.Duration(len(m.reviews)) * time.Minute),
	}
	m.reviews = append(m.reviews, r)
	return r, nil
}

func (m *mockReviewStore) GetByID(_ context.Context, id int64) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockReviewStore) ListByProduct(_ context.Context, productID int64) ([]model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReviewStore) HasTopLevelReview(_ context.Context, userID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.UserID == userID && r.ProductID == productID && r.ParentReviewID == nil {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewStore) Vote(_ context.Context, userID, reviewID int64, vote model.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.reviews {
		if m.reviews[i].ID != reviewID {
			continue
		}
		// Each test voter votes once, so counts are simple increments here.
		if vote == model.VoteLike {
			m.reviews[i].LikesCount++
		} else {
			m.reviews[i].DislikesCount++
		}
		return nil
	}
	return fmt.Errorf("review %d: %w", reviewID, model.ErrNotFound)
}

type mockProductStore struct {
	products []model.Product
}

func (m *mockProductStore) GetByID(_ context.Context, id int64) (*model.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (m *mockProductStore) ListAll(_ context.Context) ([]model.Product, error) {
	return m.products, nil
}

type mockPurchaseStore struct {
	mu        sync.Mutex
	purchased map[[2]int64]bool
}

func (m *mockPurchaseStore) Record(_ context.Context, p model.Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purchased == nil {
		m.purchased = make(map[[2]int64]bool)
	}
	m.purchased[[2]int64{p.UserID, p.ProductID}] = true
	return nil
}

func (m *mockPurchaseStore) HasPurchased(_ context.Context, userID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purchased[[2]int64{userID, productID}], nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(_ context.Context) error { return m.err }

// --- Helpers ---

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testAPI struct {
	mux       http.Handler
	reviews   *mockReviewStore
	purchases *mockPurchaseStore
	pinger    *mockPinger
}

func setupMux(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		reviews:   &mockReviewStore{},
		purchases: &mockPurchaseStore{},
		pinger:    &mockPinger{},
	}
	products := &mockProductStore{products: []model.Product{
		{ID: 42, Name: "Trail Water Filter", Price: 34.95, AverageRating: 4.5, ReviewCount: 2},
		{ID: 43, Name: "Folding Lantern", Price: 39.99},
	}}
	svc := application.NewReviewService(api.reviews, products, api.purchases, slog.Default())
	h := httphandler.NewHandler(svc, api.pinger, slog.Default())
	api.mux = httphandler.NewServeMux(h, slog.Default())
	return api
}

func (a *testAPI) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func asUser(id string) map[string]string {
	return map[string]string{httphandler.UserIDHeader: id}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	err := json.NewDecoder(rec.Body).Decode(v)
	require.NoError(t, err)
}

// --- Tests ---

func TestListReviews_EmptyIsArray(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/reviews/999", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"review":[]}`, rec.Body.String())
}

func TestListReviews_InvalidID(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/reviews/abc", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndListReviews_WithFollowUp(t *testing.T) {
	api := setupMux(t)
	require.NoError(t, api.purchases.Record(context.Background(), model.Purchase{UserID: 7, ProductID: 42}))

	rec := api.do(t, http.MethodPost, "/reviews/", `{"product_id":42,"rating":5,"content":"Great!"}`, asUser("7"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created httphandler.ReviewEnvelope
	decodeJSON(t, rec, &created)
	assert.Equal(t, int64(7), created.Review.UserID)
	require.NotNil(t, created.Review.Rating)
	assert.Equal(t, 5, *created.Review.Rating)
	assert.NotNil(t, created.Review.FollowUps)

	rec = api.do(t, http.MethodPost, "/reviews/",
		`{"product_id":42,"parent_review_id":1,"content":"Still great"}`, asUser("7"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/reviews/42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string][]map[string]any
	decodeJSON(t, rec, &raw)
	reviews := raw["review"]
	require.Len(t, reviews, 1)
	assert.Equal(t, "Great!", reviews[0]["content"])
	assert.Equal(t, "2024-03-01T12:00:00Z", reviews[0]["created_at"])
	assert.Nil(t, reviews[0]["parent_review_id"])

	followUps, ok := reviews[0]["follow_up_reviews"].([]any)
	require.True(t, ok)
	require.Len(t, followUps, 1)
	followUp := followUps[0].(map[string]any)
	assert.Equal(t, "Still great", followUp["content"])
	assert.Nil(t, followUp["rating"])
	assert.Equal(t, float64(1), followUp["parent_review_id"])
}

func TestCreateReview_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		header     map[string]string
		purchased  bool
		seedReview bool
		wantStatus int
	}{
		{
			name:       "missing user",
			body:       `{"product_id":42,"rating":5,"content":"x"}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "non-numeric user",
			body:       `{"product_id":42,"rating":5,"content":"x"}`,
			header:     asUser("alice"),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed body",
			body:       `{"product_id":`,
			header:     asUser("7"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing rating",
			body:       `{"product_id":42,"content":"x"}`,
			header:     asUser("7"),
			purchased:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blank content",
			body:       `{"product_id":42,"rating":3,"content":"  "}`,
			header:     asUser("7"),
			purchased:  true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown product",
			body:       `{"product_id":999,"rating":3,"content":"x"}`,
			header:     asUser("7"),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "not purchased",
			body:       `{"product_id":42,"rating":3,"content":"x"}`,
			header:     asUser("7"),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "duplicate",
			body:       `{"product_id":42,"rating":3,"content":"again"}`,
			header:     asUser("7"),
			purchased:  true,
			seedReview: true,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupMux(t)
			ctx := context.Background()
			if tt.purchased {
				require.NoError(t, api.purchases.Record(ctx, model.Purchase{UserID: 7, ProductID: 42}))
			}
			if tt.seedReview {
				_, err := api.reviews.Create(ctx, 7, model.ReviewCreate{ProductID: 42, Rating: 4, Content: "first"})
				require.NoError(t, err)
			}

			rec := api.do(t, http.MethodPost, "/reviews/", tt.body, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var resp map[string]string
			decodeJSON(t, rec, &resp)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestVoteReview(t *testing.T) {
	api := setupMux(t)
	require.NoError(t, api.purchases.Record(context.Background(), model.Purchase{UserID: 7, ProductID: 42}))
	rec := api.do(t, http.MethodPost, "/reviews/", `{"product_id":42,"rating":5,"content":"Great!"}`, asUser("7"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/reviews/1/vote", `{"like_dislike":1}`, asUser("8"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(t, http.MethodPost, "/reviews/1/vote", `{"like_dislike":0}`, asUser("9"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var voted map[string]map[string]any
	decodeJSON(t, rec, &voted)
	assert.Equal(t, float64(1), voted["review"]["likes_count"])
	assert.Equal(t, float64(1), voted["review"]["dislikes_count"])

	rec = api.do(t, http.MethodGet, "/reviews/42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed httphandler.ReviewListResponse
	decodeJSON(t, rec, &listed)
	require.Len(t, listed.Review, 1)
	assert.Equal(t, 1, listed.Review[0].LikesCount)
	assert.Equal(t, 1, listed.Review[0].DislikesCount)
}

func TestVoteReview_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		header     map[string]string
		wantStatus int
		wantError  string
	}{
		{"missing user", "/reviews/1/vote", `{"like_dislike":1}`, nil, http.StatusUnauthorized, ""},
		{"bad review id", "/reviews/abc/vote", `{"like_dislike":1}`, asUser("8"), http.StatusBadRequest, "invalid review id"},
		{"missing field", "/reviews/1/vote", `{}`, asUser("8"), http.StatusBadRequest, "like_dislike is required"},
		{"out of range", "/reviews/1/vote", `{"like_dislike":2}`, asUser("8"), http.StatusBadRequest, "like_dislike must be 0 or 1"},
		{"not json", "/reviews/1/vote", `like`, asUser("8"), http.StatusBadRequest, "invalid request body"},
		{"unknown review", "/reviews/99/vote", `{"like_dislike":1}`, asUser("8"), http.StatusNotFound, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := setupMux(t)
			require.NoError(t, api.purchases.Record(context.Background(), model.Purchase{UserID: 7, ProductID: 42}))
			rec := api.do(t, http.MethodPost, "/reviews/", `{"product_id":42,"rating":5,"content":"Great!"}`, asUser("7"))
			require.Equal(t, http.StatusCreated, rec.Code)

			rec = api.do(t, http.MethodPost, tt.path, tt.body, tt.header)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				var body map[string]string
				decodeJSON(t, rec, &body)
				assert.Equal(t, tt.wantError, body["error"])
			}
		})
	}
}

func TestCreateReview_StoreFailureIsGeneric(t *testing.T) {
	api := setupMux(t)
	require.NoError(t, api.purchases.Record(context.Background(), model.Purchase{UserID: 7, ProductID: 42}))
	api.reviews.err = errors.New("database is locked")

	rec := api.do(t, http.MethodPost, "/reviews/", `{"product_id":42,"rating":3,"content":"x"}`, asUser("7"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")
}

func TestGetProduct_ETag(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/products/42", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var product httphandler.ProductResponse
	decodeJSON(t, rec, &product)
	assert.Equal(t, "Trail Water Filter", product.Name)
	assert.InDelta(t, 4.5, product.AverageRating, 0.001)
	assert.Equal(t, 2, product.ReviewCount)

	rec = api.do(t, http.MethodGet, "/products/42", "", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/products/42", "", map[string]string{"If-None-Match": `"stale"`})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/products/999", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProducts(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/products/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var products []httphandler.ProductResponse
	decodeJSON(t, rec, &products)
	require.Len(t, products, 2)
	assert.Equal(t, int64(42), products[0].ID)
}

func TestRecordPurchase(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodPost, "/purchases/", `{"product_id":43}`, asUser("7"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	ok, err := api.purchases.HasPurchased(context.Background(), 7, 43)
	require.NoError(t, err)
	assert.True(t, ok)

	rec = api.do(t, http.MethodPost, "/purchases/", `{"product_id":43}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/purchases/", `{"product_id":999}`, asUser("7"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)

	api.pinger.err = errors.New("disk gone")
	rec = api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestID(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Len(t, rec.Header().Get(httphandler.RequestIDHeader), 36)

	const given = "3f2c7c1e-9a4b-4d8e-8f0a-1b2c3d4e5f60"
	rec = api.do(t, http.MethodGet, "/health", "", map[string]string{httphandler.RequestIDHeader: given})
	assert.Equal(t, given, rec.Header().Get(httphandler.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	api := setupMux(t)
	api.do(t, http.MethodGet, "/reviews/42", "", nil)

	rec := api.do(t, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shopreviews_http_requests_total")
	assert.Contains(t, rec.Body.String(), `route="GET /reviews/{productId}"`)
}

func TestUnknownRoute(t *testing.T) {
	api := setupMux(t)

	rec := api.do(t, http.MethodDelete, "/reviews/42", "", nil)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
