package model

import "time"

// Product is the catalog entry shown on the product detail page. Rating
// statistics are computed server-side from top-level reviews.
type Product struct {
	ID            int64
	Name          string
	Description   string
	ImageURL      string
	Price         float64
	AverageRating float64
	ReviewCount   int
}

// Purchase records that a user bought a product, which qualifies them to
// leave a top-level review for it.
type Purchase struct {
	UserID      int64
	ProductID   int64
	PurchasedAt time.Time
}
