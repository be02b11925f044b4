package web

import (
	"fmt"
	"strconv"
	"time"

	vm "github.com/ericfisherdev/shopreviews/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/shopreviews/internal/application"
	"github.com/ericfisherdev/shopreviews/internal/domain/model"
)

const (
	noReviewsPlaceholder = "No reviews yet."
	reviewDateLayout     = "Jan 2, 2006"
)

// toReviewListViewModel converts reviews in received order. viewerID marks
// the viewing shopper's own top-level reviews as eligible for a follow-up;
// pass 0 when unknown.
func toReviewListViewModel(reviews []model.Review, viewerID int64) vm.ReviewListViewModel {
	if len(reviews) == 0 {
		return vm.ReviewListViewModel{
			Empty:       true,
			Placeholder: noReviewsPlaceholder,
			Reviews:     []vm.ReviewViewModel{},
		}
	}

	items := make([]vm.ReviewViewModel, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, toReviewViewModel(r, viewerID))
	}

	return vm.ReviewListViewModel{Reviews: items}
}

// toReviewViewModel converts one review and, recursively, its follow-ups.
func toReviewViewModel(r model.Review, viewerID int64) vm.ReviewViewModel {
	followUps := make([]vm.ReviewViewModel, 0, len(r.FollowUps))
	for _, f := range r.FollowUps {
		followUps = append(followUps, toReviewViewModel(f, viewerID))
	}

	return vm.ReviewViewModel{
		ID:          r.ID,
		Author:      authorLabel(r.UserID),
		HasRating:   r.HasRating(),
		Stars:       vm.Stars(r.Rating),
		Rating:      r.Rating,
		ContentHTML: RenderMarkdown(r.Content),
		CreatedAt:   r.CreatedAt.Format(reviewDateLayout),
		CreatedISO:  r.CreatedAt.UTC().Format(time.RFC3339),
		IsFollowUp:  r.IsFollowUp(),
		FollowUps:   followUps,
		CanFollowUp: viewerID > 0 && !r.IsFollowUp() && r.UserID == viewerID,

		LikesCount:    r.LikesCount,
		DislikesCount: r.DislikesCount,
		VoteURL:       votePath(r.ProductID, r.ID),
	}
}

// authorLabel is a placeholder until display names are resolved.
func authorLabel(userID int64) string {
	return fmt.Sprintf("By User %d", userID)
}

func toProductViewModel(p model.Product) vm.ProductViewModel {
	return vm.ProductViewModel{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		Price:         fmt.Sprintf("$%.2f", p.Price),
		AverageRating: strconv.FormatFloat(p.AverageRating, 'f', 1, 64),
		AverageStars:  vm.StarsForAverage(p.AverageRating),
		ReviewCount:   p.ReviewCount,
		PurchaseURL:   purchasePath(p.ID),
	}
}

func toReviewFormViewModel(productID int64, csrf string, state application.FormState) vm.ReviewFormViewModel {
	return vm.ReviewFormViewModel{
		ActionURL:    reviewsPath(productID),
		CSRFToken:    csrf,
		Rating:       state.Rating,
		Content:      state.Content,
		IsSubmitting: state.IsSubmitting,
		Error:        state.LastError,
	}
}

// toProductPageViewModel assembles the page from an orchestrator snapshot and
// the current state of the top-level review form.
func toProductPageViewModel(
	snap application.PageSnapshot,
	form application.FormState,
	csrf string,
	viewerID int64,
	notice string,
) vm.ProductPageViewModel {
	page := vm.ProductPageViewModel{
		Title:        "Product",
		Notice:       notice,
		Form:         toReviewFormViewModel(snap.ProductID, csrf, form),
		FollowUpForm: toReviewFormViewModel(snap.ProductID, csrf, application.FormState{}),
	}

	switch snap.State {
	case application.PageReady:
		page.Ready = true
		page.Title = snap.Product.Name
		page.Product = toProductViewModel(snap.Product)
		page.Reviews = toReviewListViewModel(snap.Reviews, viewerID)
	case application.PageError:
		page.Error = snap.Error
	default:
		page.Error = "Loading..."
	}

	return page
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

func reviewsPath(id int64) string {
	return productPath(id) + "/reviews"
}

func votePath(productID, reviewID int64) string {
	return reviewsPath(productID) + "/" + strconv.FormatInt(reviewID, 10) + "/vote"
}

func purchasePath(id int64) string {
	return productPath(id) + "/purchase"
}
