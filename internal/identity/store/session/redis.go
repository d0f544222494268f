package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gomunity/internal/identity"
	"gomunity/pkg/platform/sentinel"
)

const keyPrefix = "session:"

// Redis persists sessions in Redis with a TTL equal to the session lifetime.
type Redis struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, clock: time.Now}
}

func (s *Redis) Save(ctx context.Context, sess *identity.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := sess.ExpiresAt.Sub(s.clock())
	if ttl <= 0 {
		return sentinel.ErrExpired
	}
	if err := s.client.Set(ctx, keyPrefix+sess.ID.String(), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Redis) FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	sess := &identity.Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

func (s *Redis) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.client.Del(ctx, keyPrefix+id.String()).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
