package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gomunity/internal/identity"
	"gomunity/pkg/platform/sentinel"
)

// InMemory is a map-backed session store for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*identity.Session
	clock    func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		sessions: make(map[uuid.UUID]*identity.Session),
		clock:    time.Now,
	}
}

func (s *InMemory) Save(ctx context.Context, sess *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *sess
	s.sessions[sess.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if s.clock().After(sess.ExpiresAt) {
		return nil, sentinel.ErrExpired
	}
	clone := *sess
	return &clone, nil
}

func (s *InMemory) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
