package model

import "context"

type userIDKey struct{}

// WithUserID returns a context carrying the shopper identity. Outgoing review
// API requests made with it identify the shopper.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the shopper identity stored by WithUserID.
// Non-positive ids are reported as absent.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey{}).(int64)
	return id, ok && id > 0
}
