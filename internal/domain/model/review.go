package model

import (
	"strings"
	"time"
)

// Rating bounds for a top-level review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is an immutable snapshot of a customer review as returned by the
// review API. FollowUps holds replies in the order the backend returned them.
type Review struct {
	ID             int64
	ProductID      int64
	UserID         int64
	ParentReviewID *int64
	Rating         int // 0 on follow-ups that carry no rating.
	Content        string
	CreatedAt      time.Time
	LikesCount     int
	DislikesCount  int
	FollowUps      []Review
}

// IsFollowUp reports whether the review is a reply to another review.
func (r Review) IsFollowUp() bool {
	return r.ParentReviewID != nil
}

// HasRating reports whether the review carries a star rating.
func (r Review) HasRating() bool {
	return r.Rating > 0
}

// ReviewCreate is the payload for submitting a new review. It is built at
// submit time from form state and discarded once the request resolves.
type ReviewCreate struct {
	ProductID      int64
	ParentReviewID *int64
	Rating         int
	Content        string
}

// IsFollowUp reports whether the payload posts a reply to an existing review.
func (c ReviewCreate) IsFollowUp() bool {
	return c.ParentReviewID != nil
}

// Validate applies the client-side rules: a rating must be chosen and the
// comment must not be blank. Follow-ups may omit the rating.
func (c ReviewCreate) Validate() error {
	var problems []string

	if c.ProductID <= 0 {
		problems = append(problems, "product_id must be positive")
	}

	switch {
	case c.IsFollowUp() && c.Rating == 0:
	case c.Rating < MinRating || c.Rating > MaxRating:
		problems = append(problems, "rating must be between 1 and 5")
	}

	if strings.TrimSpace(c.Content) == "" {
		problems = append(problems, "content must not be blank")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Vote is a shopper's helpfulness verdict on a review. Its wire value is the
// like_dislike field: 1 for like, 0 for dislike.
type Vote int

const (
	VoteDislike Vote = 0
	VoteLike    Vote = 1
)

// Valid reports whether v is a like or a dislike.
func (v Vote) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

func (v Vote) String() string {
	switch v {
	case VoteLike:
		return "like"
	case VoteDislike:
		return "dislike"
	default:
		return "invalid"
	}
}

// ParseVote converts a like_dislike form or JSON value into a Vote.
func ParseVote(raw string) (Vote, error) {
	switch strings.TrimSpace(raw) {
	case "1":
		return VoteLike, nil
	case "0":
		return VoteDislike, nil
	default:
		return 0, &ValidationError{Problems: []string{"like_dislike must be 0 or 1"}}
	}
}
