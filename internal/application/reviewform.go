package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/shopreviews/internal/domain/model"
	"github.com/ericfisherdev/shopreviews/internal/domain/port/driven"
)

// User-facing form messages. The failure message never carries backend detail.
const (
	MsgValidation   = "Please provide a rating and a comment."
	MsgSubmitFailed = "Failed to submit review. You may have already reviewed this product or you need to purchase it first."
)

var (
	// ErrSubmitInFlight is returned when Submit is called while a previous
	// submission is still waiting on the backend.
	ErrSubmitInFlight = errors.New("review submission already in progress")

	// ErrSubmitFailed wraps any request error returned by the review API.
	ErrSubmitFailed = errors.New("review submission failed")
)

// SubmitListener is told when the backend has accepted a review. The form
// waits for it to return before leaving the submitting state.
type SubmitListener interface {
	ReviewSubmitted(ctx context.Context)
}

// SubmitListenerFunc adapts a plain function to SubmitListener.
type SubmitListenerFunc func(ctx context.Context)

// ReviewSubmitted calls f(ctx).
func (f SubmitListenerFunc) ReviewSubmitted(ctx context.Context) {
	f(ctx)
}

// FormState is a snapshot of the review form. Rating 0 means unset.
type FormState struct {
	Rating       int
	Content      string
	IsSubmitting bool
	LastError    string
}

// rejectInvalid records the fixed validation message; no request is made.
func (s FormState) rejectInvalid() FormState {
	s.LastError = MsgValidation
	return s
}

// beginSubmit enters the submitting state and clears any previous error.
func (s FormState) beginSubmit() FormState {
	s.IsSubmitting = true
	s.LastError = ""
	return s
}

// completeSubmit resets the fields after the backend accepted the review.
// IsSubmitting stays set until the listener has finished.
func (s FormState) completeSubmit() FormState {
	s.Rating = 0
	s.Content = ""
	return s
}

// failSubmit keeps the fields so the user can retry by hand.
func (s FormState) failSubmit() FormState {
	s.LastError = MsgSubmitFailed
	s.IsSubmitting = false
	return s
}

func (s FormState) finishSubmit() FormState {
	s.IsSubmitting = false
	return s
}

// ReviewForm owns the input state of one review form and drives
// Idle -> Validating -> Submitting -> Idle. Every Submit call starts over from
// the current field values; nothing is retried automatically.
type ReviewForm struct {
	api       driven.ReviewAPI
	listener  SubmitListener
	logger    *slog.Logger
	productID int64
	parentID  *int64

	mu    sync.Mutex
	state FormState
}

// NewReviewForm creates an empty form for productID. listener may be nil.
func NewReviewForm(api driven.ReviewAPI, productID int64, listener SubmitListener, logger *slog.Logger) *ReviewForm {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewForm{
		api:       api,
		listener:  listener,
		logger:    logger,
		productID: productID,
	}
}

// ReplyTo turns the form into a follow-up form for the given parent review.
// Follow-ups may be submitted without a rating.
func (f *ReviewForm) ReplyTo(parentReviewID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parentID = &parentReviewID
}

// SetRating stores the chosen star count. Values are checked on Submit.
func (f *ReviewForm) SetRating(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Rating = n
}

// SetContent stores the comment text.
func (f *ReviewForm) SetContent(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.Content = s
}

// Fill sets rating and content together unless a submit is in flight, and
// reports whether it did. The check and the writes happen under one lock.
func (f *ReviewForm) Fill(rating int, content string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.IsSubmitting {
		return false
	}
	f.state.Rating = rating
	f.state.Content = content
	return true
}

// State returns a snapshot of the form.
func (f *ReviewForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates the current fields and posts them. It returns a
// *model.ValidationError without any network call when the fields are
// incomplete, ErrSubmitInFlight while another submission is pending, and an
// error wrapping ErrSubmitFailed when the backend rejects the review.
func (f *ReviewForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.state.IsSubmitting {
		f.mu.Unlock()
		reviewSubmissionsTotal.WithLabelValues(outcomeInFlight).Inc()
		return ErrSubmitInFlight
	}

	data := model.ReviewCreate{
		ProductID:      f.productID,
		ParentReviewID: f.parentID,
		Rating:         f.state.Rating,
		Content:        f.state.Content,
	}
	if err := data.Validate(); err != nil {
		f.state = f.state.rejectInvalid()
		f.mu.Unlock()
		reviewSubmissionsTotal.WithLabelValues(outcomeInvalid).Inc()
		return err
	}

	f.state = f.state.beginSubmit()
	f.mu.Unlock()

	review, err := f.api.SubmitReview(ctx, data)
	if err != nil {
		f.logger.WarnContext(ctx, "review submission rejected",
			"product_id", data.ProductID,
			"error", err,
		)
		f.mu.Lock()
		f.state = f.state.failSubmit()
		f.mu.Unlock()
		reviewSubmissionsTotal.WithLabelValues(outcomeRejected).Inc()
		return fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	f.logger.InfoContext(ctx, "review submitted",
		"review_id", review.ID,
		"product_id", data.ProductID,
		"follow_up", data.IsFollowUp(),
	)
	reviewSubmissionsTotal.WithLabelValues(outcomeAccepted).Inc()

	f.mu.Lock()
	f.state = f.state.completeSubmit()
	f.mu.Unlock()

	if f.listener != nil {
		f.listener.ReviewSubmitted(ctx)
	}

	f.mu.Lock()
	f.state = f.state.finishSubmit()
	f.mu.Unlock()

	return nil
}
