// Package identity models the identity/session backend the onboarding flow
// signs users into. Call sites depend on the Provider interface only; the
// default implementation lives in the local subpackage.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is an account row. Email and the password behind it are derived from
// the external Kakao identifier, never chosen by the user.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	KakaoID     int64     `json:"kakao_id,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	ConnectedAt string    `json:"connected_at,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Session is an issued login session. AccessToken is the signed JWT handed
// to the user agent; the row itself is the revocation anchor.
type Session struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	AccessToken string    `json:"-"`
	Device      string    `json:"device,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Metadata is attached to an account at sign-up time.
type Metadata struct {
	KakaoID     int64
	Provider    string
	ConnectedAt string
}

// EventKind classifies auth-state-change notifications.
type EventKind string

const (
	EventSignedIn  EventKind = "SIGNED_IN"
	EventSignedOut EventKind = "SIGNED_OUT"
)

// Event is an auth-state-change notification pushed to subscribers.
type Event struct {
	Kind   EventKind
	UserID uuid.UUID
}

// Provider is the identity/session backend contract: password-style sign-in,
// sign-up, sign-out, session and user lookup, and an auth-state-change
// subscription. Implementations own the session lifecycle entirely.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, error)
	SignOut(ctx context.Context, sessionID uuid.UUID) error
	GetUser(ctx context.Context, userID uuid.UUID) (*User, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	Subscribe() <-chan Event
}
