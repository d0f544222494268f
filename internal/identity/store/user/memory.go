package user

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gomunity/internal/identity"
	"gomunity/pkg/platform/sentinel"
)

type record struct {
	user         identity.User
	passwordHash string
}

// InMemory is a map-backed user store for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*record
	byEmail map[string]uuid.UUID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[uuid.UUID]*record),
		byEmail: make(map[string]uuid.UUID),
	}
}

// Create persists a user with its password hash. Email uniqueness mirrors
// the database constraint.
func (s *InMemory) Create(ctx context.Context, u *identity.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	s.byID[u.ID] = &record{user: *u, passwordHash: passwordHash}
	s.byEmail[key] = u.ID
	return nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*identity.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, "", sentinel.ErrNotFound
	}
	rec := s.byID[id]
	u := rec.user
	return &u, rec.passwordHash, nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	u := rec.user
	return &u, nil
}
