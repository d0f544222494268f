//go:build integration

package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gomunity/internal/identity"
	"gomunity/internal/identity/store/session"
	"gomunity/pkg/platform/sentinel"
	"gomunity/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *session.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = session.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func newTestSession(ttl time.Duration) *identity.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &identity.Session{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Device:    "Chrome on Mac OS X",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	sess := newTestSession(time.Hour)

	s.Require().NoError(s.store.Save(ctx, sess))

	found, err := s.store.FindByID(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.Device, found.Device)
}

func (s *RedisStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()
	sess := newTestSession(time.Hour)
	s.Require().NoError(s.store.Save(ctx, sess))

	s.Require().NoError(s.store.Delete(ctx, sess.ID))

	_, err := s.store.FindByID(ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.NoError(s.store.Delete(ctx, sess.ID), "deleting twice is a no-op")
}

func (s *RedisStoreSuite) TestExpiredSessionRejectedOnSave() {
	sess := newTestSession(-time.Minute)
	s.ErrorIs(s.store.Save(context.Background(), sess), sentinel.ErrExpired)
}

func (s *RedisStoreSuite) TestTTLExpiry() {
	ctx := context.Background()
	sess := newTestSession(time.Second)
	s.Require().NoError(s.store.Save(ctx, sess))

	s.Require().Eventually(func() bool {
		_, err := s.store.FindByID(ctx, sess.ID)
		return errors.Is(err, sentinel.ErrNotFound)
	}, 5*time.Second, 100*time.Millisecond, "session disappears when the TTL lapses")
}
