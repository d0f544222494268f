package testutil

import (
	"context"
	"net/http"

	"gomunity/internal/platform/middleware"
)

// WithAuth places user and session IDs on the request context, simulating
// what the auth middleware does for authenticated requests.
func WithAuth(req *http.Request, userID, sessionID string) *http.Request {
	ctx := req.Context()
	if userID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeyUserID, userID)
	}
	if sessionID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySessionID, sessionID)
	}
	return req.WithContext(ctx)
}
