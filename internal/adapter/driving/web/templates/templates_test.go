package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vm "github.com/ericfisherdev/shopreviews/internal/adapter/driving/web/viewmodel"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestStarRating(t *testing.T) {
	html := render(t, StarRating(vm.Stars(3)))

	assert.Equal(t, 3, strings.Count(html, "star-filled"))
	assert.Equal(t, 2, strings.Count(html, "star-empty"))
	assert.Contains(t, html, `aria-label="3 out of 5 stars"`)
}

func TestReviewList_Empty(t *testing.T) {
	html := render(t, ReviewList(vm.ReviewListViewModel{Empty: true, Placeholder: "No reviews yet."}, vm.ReviewFormViewModel{}))

	assert.Contains(t, html, "No reviews yet.")
	assert.NotContains(t, html, `class="review"`)
}

func TestReviewList_NestedFollowUps(t *testing.T) {
	list := vm.ReviewListViewModel{Reviews: []vm.ReviewViewModel{
		{
			ID: 1, Author: "By User 7", HasRating: true, Stars: vm.Stars(5), ContentHTML: "<p>Great</p>",
			FollowUps: []vm.ReviewViewModel{
				{ID: 10, Author: "By User 7", IsFollowUp: true, ContentHTML: "<p>Thanks!</p>"},
			},
		},
		{ID: 2, Author: "By User 8", HasRating: true, Stars: vm.Stars(3), ContentHTML: "<p>OK</p>"},
	}}

	html := render(t, ReviewList(list, vm.ReviewFormViewModel{}))

	assert.Equal(t, 2, strings.Count(html, `<li class="review" `))
	assert.Equal(t, 1, strings.Count(html, `<li class="review review-followup" `))
	assert.Equal(t, 1, strings.Count(html, `<ul class="review-followups">`))
	assert.Less(t, strings.Index(html, "review-1"), strings.Index(html, "review-10"))
	assert.Less(t, strings.Index(html, "review-10"), strings.Index(html, "review-2"))
	assert.Contains(t, html, "Follow-up:")
	// Follow-up without a rating renders no stars: 5 + 3 filled, 0 + 2 empty.
	assert.Equal(t, 8, strings.Count(html, "star-filled"))
	assert.Equal(t, 2, strings.Count(html, "star-empty"))
}

func TestReviewList_FollowUpFormOnOwnReviews(t *testing.T) {
	list := vm.ReviewListViewModel{Reviews: []vm.ReviewViewModel{
		{ID: 1, Author: "By User 7", CanFollowUp: true},
		{ID: 2, Author: "By User 8"},
	}}
	followUp := vm.ReviewFormViewModel{ActionURL: "/products/42/reviews", CSRFToken: "tok"}

	html := render(t, ReviewList(list, followUp))

	assert.Equal(t, 1, strings.Count(html, "<form"))
	assert.Contains(t, html, `name="parent_review_id" value="1"`)
	assert.Contains(t, html, "Rating (optional)")
}

func TestReviewList_VoteButtons(t *testing.T) {
	list := vm.ReviewListViewModel{Reviews: []vm.ReviewViewModel{
		{ID: 1, Author: "By User 8", LikesCount: 3, DislikesCount: 1, VoteURL: "/products/42/reviews/1/vote"},
		{ID: 2, Author: "By User 9"},
	}}

	html := render(t, ReviewList(list, vm.ReviewFormViewModel{CSRFToken: "tok"}))

	assert.Equal(t, 1, strings.Count(html, `<form class="review-votes"`))
	assert.Contains(t, html, `action="/products/42/reviews/1/vote"`)
	assert.Contains(t, html, `name="csrf_token" value="tok"`)
	assert.Contains(t, html, `name="like_dislike" value="1"`)
	assert.Contains(t, html, `name="like_dislike" value="0"`)
	assert.Contains(t, html, "Helpful (3)")
	assert.Contains(t, html, "Not helpful (1)")
}

func TestReviewForm_State(t *testing.T) {
	html := render(t, ReviewForm(vm.ReviewFormViewModel{
		ActionURL: "/products/42/reviews",
		CSRFToken: "tok",
		Rating:    4,
		Content:   "<b>kept</b>",
		Error:     "Please provide a rating and a comment.",
	}))

	assert.Contains(t, html, `action="/products/42/reviews"`)
	assert.Contains(t, html, `name="csrf_token" value="tok"`)
	assert.Contains(t, html, `value="4" checked`)
	assert.Contains(t, html, "&lt;b&gt;kept&lt;/b&gt;")
	assert.Contains(t, html, `role="alert">Please provide a rating and a comment.`)
	assert.Contains(t, html, ">Submit Review</button>")
	assert.NotContains(t, html, "parent_review_id")
}

func TestReviewForm_Submitting(t *testing.T) {
	html := render(t, ReviewForm(vm.ReviewFormViewModel{IsSubmitting: true}))

	assert.Contains(t, html, "disabled>Submitting...")
}

func TestProductPage_Error(t *testing.T) {
	html := render(t, ProductPage(vm.ProductPageViewModel{Error: "Failed to load product details."}))

	assert.Contains(t, html, "Failed to load product details.")
	assert.NotContains(t, html, "review-form")
}

func TestProductPage_Ready(t *testing.T) {
	html := render(t, Layout("Trail Water Filter", ProductPage(vm.ProductPageViewModel{
		Ready: true,
		Product: vm.ProductViewModel{
			ID: 42, Name: "Trail Water Filter", Price: "$34.95", AverageRating: "4.5",
			AverageStars: vm.StarsForAverage(4.5), ReviewCount: 2, PurchaseURL: "/products/42/purchase",
		},
		Reviews: vm.ReviewListViewModel{Empty: true, Placeholder: "No reviews yet."},
		Form:    vm.ReviewFormViewModel{ActionURL: "/products/42/reviews", CSRFToken: "tok"},
	})))

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, "<title>Trail Water Filter</title>")
	assert.Contains(t, html, "<h1>Trail Water Filter</h1>")
	assert.Contains(t, html, "$34.95")
	assert.Contains(t, html, "4.5 (2 reviews)")
	assert.Contains(t, html, `action="/products/42/purchase"`)
	assert.Contains(t, html, "No reviews yet.")
	assert.Contains(t, html, "Write a review")
}

func TestProductPage_ImageURLIsSanitized(t *testing.T) {
	page := func(imageURL string) vm.ProductPageViewModel {
		return vm.ProductPageViewModel{
			Ready:   true,
			Product: vm.ProductViewModel{ID: 42, Name: "Trail Water Filter", ImageURL: imageURL},
			Reviews: vm.ReviewListViewModel{Empty: true},
		}
	}

	html := render(t, ProductPage(page("javascript:alert(1)")))
	assert.Contains(t, html, `src="about:invalid#TemplFailedSanitizationURL"`)
	assert.NotContains(t, html, "javascript:")

	html = render(t, ProductPage(page("/static/img/water-filter.svg")))
	assert.Contains(t, html, `src="/static/img/water-filter.svg"`)

	html = render(t, ProductPage(page("")))
	assert.NotContains(t, html, "<img")
}

func TestProductIndex(t *testing.T) {
	html := render(t, ProductIndex([]vm.ProductViewModel{
		{ID: 42, Name: "Trail <Filter>", Price: "$34.95", AverageStars: vm.Stars(4), ReviewCount: 2},
	}, ""))

	assert.Contains(t, html, `href="/products/42"`)
	assert.Contains(t, html, "Trail &lt;Filter&gt;")
	assert.Contains(t, html, "$34.95")
	assert.Contains(t, html, "(2)")
}

func TestProductIndex_EmptyAndError(t *testing.T) {
	assert.Contains(t, render(t, ProductIndex(nil, "")), "No products available.")

	html := render(t, ProductIndex(nil, "Failed to load products."))
	assert.Contains(t, html, "Failed to load products.")
	assert.NotContains(t, html, "product-grid")
}
