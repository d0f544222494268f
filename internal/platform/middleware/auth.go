package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// SessionCookieName carries the session access token for browser flows.
const SessionCookieName = "gomunity_session"

// JWTValidator defines the interface for validating session access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID    string
	SessionID string
}

type contextKeyUserID struct{}
type contextKeySessionID struct{}

// Context keys are exported for use in handlers.
var (
	ContextKeyUserID    = contextKeyUserID{}
	ContextKeySessionID = contextKeySessionID{}
)

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetSessionID retrieves the session ID from the context.
func GetSessionID(ctx context.Context) string {
	sessionID, ok := ctx.Value(ContextKeySessionID).(string)
	if !ok {
		return ""
	}
	return sessionID
}

// RequireAuth authenticates requests via a Bearer token or the session
// cookie, placing user and session IDs into the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(SessionCookieName); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				unauthorized(w, r, logger, "missing token", nil)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, logger, "invalid token", err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeySessionID, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	const bearerPrefix = "Bearer "
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix); ok {
		return after
	}
	return ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string, err error) {
	ctx := r.Context()
	attrs := []any{
		"reason", reason,
		"request_id", GetRequestID(ctx),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	logger.WarnContext(ctx, "unauthorized access", attrs...)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Missing or invalid session token"}`))
}
