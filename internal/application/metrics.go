package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes recorded by ReviewForm.
const (
	outcomeAccepted = "accepted"
	outcomeRejected = "rejected"
	outcomeInvalid  = "invalid"
	outcomeInFlight = "in_flight"
)

var (
	reviewSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopreviews_review_submissions_total",
			Help: "Review form submissions by outcome",
		},
		[]string{"outcome"},
	)

	pageLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopreviews_product_page_loads_total",
			Help: "Product detail page loads by resulting state",
		},
		[]string{"state"},
	)

	reviewsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopreviews_reviews_created_total",
			Help: "Reviews persisted by the review API, by kind",
		},
		[]string{"kind"},
	)

	reviewVotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopreviews_review_votes_total",
			Help: "Review likes and dislikes recorded by the review API",
		},
		[]string{"vote"},
	)
)
