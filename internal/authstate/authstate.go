// Package authstate caches the current user and profile per process, kept
// in sync with the identity provider's auth-state-change notifications. It
// mirrors an external asynchronous auth subsystem, so it is deliberately a
// single piece of guarded mutable state.
package authstate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"gomunity/internal/identity"
	profilemodels "gomunity/internal/profile/models"
)

// State is a point-in-time snapshot of the cached auth state.
type State struct {
	User    *identity.User
	Profile *profilemodels.Profile
	Loading bool
}

// UserFetcher resolves a user id to its account record.
type UserFetcher interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*identity.User, error)
}

// ProfileDirectory resolves a user id to its onboarding profile, (nil, nil)
// when none exists yet.
type ProfileDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profilemodels.Profile, error)
}

// Store holds the cached auth state. All mutation goes through the setters.
type Store struct {
	mu      sync.RWMutex
	user    *identity.User
	profile *profilemodels.Profile
	loading bool

	users    UserFetcher
	profiles ProfileDirectory
	logger   *slog.Logger
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithRehydratedState seeds user and profile from a persisted snapshot. The
// loading flag is never restored; it always starts fresh.
func WithRehydratedState(user *identity.User, profile *profilemodels.Profile) Option {
	return func(s *Store) {
		s.user = user
		s.profile = profile
	}
}

func New(users UserFetcher, profiles ProfileDirectory, opts ...Option) *Store {
	s := &Store{
		users:    users,
		profiles: profiles,
		loading:  true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.user, Profile: s.profile, Loading: s.loading}
}

func (s *Store) SetUser(user *identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

func (s *Store) SetProfile(profile *profilemodels.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
}

func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = loading
}

// SignOut clears both user and profile.
func (s *Store) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.profile = nil
}

// Run consumes auth-state-change events until the context is done or the
// channel closes. A sign-in loads the user and their profile; a sign-out
// clears both.
func (s *Store) Run(ctx context.Context, events <-chan identity.Event) {
	s.SetLoading(false)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.apply(ctx, ev)
		}
	}
}

func (s *Store) apply(ctx context.Context, ev identity.Event) {
	switch ev.Kind {
	case identity.EventSignedIn:
		user, err := s.users.GetUser(ctx, ev.UserID)
		if err != nil {
			s.logger.ErrorContext(ctx, "auth state user fetch failed", "user_id", ev.UserID, "error", err)
			return
		}
		profile, err := s.profiles.GetByUserID(ctx, ev.UserID)
		if err != nil {
			s.logger.ErrorContext(ctx, "auth state profile fetch failed", "user_id", ev.UserID, "error", err)
			profile = nil
		}
		s.mu.Lock()
		s.user = user
		s.profile = profile
		s.mu.Unlock()
	case identity.EventSignedOut:
		s.SignOut()
	}
}
