// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

import "math"

// StarCount is the number of stars in every rating row.
const StarCount = 5

// Star is one glyph in a rating row.
type Star int

const (
	StarEmpty Star = iota
	StarFilled
)

// Filled reports whether the star is drawn filled.
func (s Star) Filled() bool {
	return s == StarFilled
}

// Stars returns StarCount stars with the first rating filled. Values below
// zero render all empty and values above StarCount render all filled.
func Stars(rating int) []Star {
	stars := make([]Star, StarCount)
	for i := range stars {
		if i < rating {
			stars[i] = StarFilled
		}
	}
	return stars
}

// StarsForAverage rounds an average rating to the nearest whole star.
func StarsForAverage(avg float64) []Star {
	if math.IsNaN(avg) {
		return Stars(0)
	}
	return Stars(int(math.Round(avg)))
}

// ReviewViewModel holds presentation-ready data for one review and its follow-ups.
type ReviewViewModel struct {
	ID          int64
	Author      string
	HasRating   bool
	Stars       []Star
	Rating      int
	ContentHTML string // sanitized HTML rendered from markdown
	CreatedAt   string // e.g. "Mar 1, 2024"
	CreatedISO  string // RFC 3339, for the <time> element
	IsFollowUp  bool
	FollowUps   []ReviewViewModel

	LikesCount    int
	DislikesCount int
	VoteURL       string

	// CanFollowUp is set on the viewing shopper's own top-level reviews.
	CanFollowUp bool
}

// ReviewListViewModel is the review section of the product page.
type ReviewListViewModel struct {
	Empty       bool
	Placeholder string
	Reviews     []ReviewViewModel
}

// ProductViewModel holds presentation-ready catalog data.
type ProductViewModel struct {
	ID            int64
	Name          string
	Description   string
	ImageURL      string
	Price         string
	AverageRating string
	AverageStars  []Star
	ReviewCount   int
	PurchaseURL   string
}

// ReviewFormViewModel holds the state of a review or follow-up form.
type ReviewFormViewModel struct {
	ActionURL      string
	CSRFToken      string
	ParentReviewID int64 // 0 for a top-level review
	Rating         int
	Content        string
	IsSubmitting   bool
	Error          string
}

// ProductPageViewModel is everything the product detail page renders.
type ProductPageViewModel struct {
	Title   string
	Ready   bool
	Error   string
	Notice  string
	Product ProductViewModel
	Reviews ReviewListViewModel
	Form    ReviewFormViewModel

	// FollowUpForm is shown under the shopper's own reviews. It carries
	// the CSRF token and action; ParentReviewID is set per review.
	FollowUpForm ReviewFormViewModel
}
