// Package store persists onboarding profiles and consent records.
package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gomunity/internal/profile/models"
	"gomunity/pkg/platform/sentinel"
)

// InMemory is a map-backed store for tests and local development. Nickname
// uniqueness is enforced case-insensitively, matching the citext-like
// behavior of the Postgres constraint.
type InMemory struct {
	mu        sync.RWMutex
	byUser    map[uuid.UUID]*models.Profile
	nicknames map[string]uuid.UUID
	consents  map[uuid.UUID]*models.Consent

	failConsent bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		byUser:    make(map[uuid.UUID]*models.Profile),
		nicknames: make(map[string]uuid.UUID),
		consents:  make(map[uuid.UUID]*models.Consent),
	}
}

// FailConsentWrites makes subsequent consent inserts fail. Test hook.
func (s *InMemory) FailConsentWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failConsent = true
}

func (s *InMemory) CreateProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(p.Nickname)
	if _, taken := s.nicknames[key]; taken {
		return ErrNicknameTaken
	}
	if _, exists := s.byUser[p.UserID]; exists {
		return sentinel.ErrConflict
	}

	clone := *p
	clone.Interests = append([]string(nil), p.Interests...)
	s.byUser[p.UserID] = &clone
	s.nicknames[key] = p.UserID
	return nil
}

func (s *InMemory) CreateConsent(ctx context.Context, c *models.Consent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failConsent {
		return sentinel.ErrUnavailable
	}
	clone := *c
	s.consents[c.UserID] = &clone
	return nil
}

func (s *InMemory) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *p
	clone.Interests = append([]string(nil), p.Interests...)
	return &clone, nil
}

func (s *InMemory) GetConsent(ctx context.Context, userID uuid.UUID) (*models.Consent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.consents[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *c
	return &clone, nil
}
