// Package audit captures key onboarding actions for compliance and
// operational visibility. Events are emitted from domain logic through a
// Publisher and fanned out to a store plus optional sinks.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names what happened. Values are stable identifiers consumed by
// downstream pipelines.
type Action string

const (
	ActionUserCreated     Action = "user_created"
	ActionSessionCreated  Action = "session_created"
	ActionSessionRevoked  Action = "session_revoked"
	ActionAuthFailed      Action = "auth_failed"
	ActionProfileCreated  Action = "profile_created"
	ActionConsentGranted  Action = "consent_granted"
	ActionTokenExchanged  Action = "token_exchanged"
)

// Event is emitted from domain logic. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    uuid.UUID `json:"user_id,omitempty"`
	Action    Action    `json:"action"`
	Subject   string    `json:"subject,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Store persists events and supports per-user listing.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Event, error)
}

// Sink receives a copy of every emitted event. Sink failures must not fail
// the emitting operation.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
