//go:build integration

package user_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gomunity/internal/identity"
	"gomunity/internal/identity/store/user"
	"gomunity/pkg/platform/sentinel"
	"gomunity/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func newTestUser(kakaoID int64) *identity.User {
	return &identity.User{
		ID:          uuid.New(),
		Email:       uuid.NewString() + "@gomunity.local",
		KakaoID:     kakaoID,
		Provider:    "kakao",
		ConnectedAt: "2026-01-15T09:00:00Z",
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestCreateAndFindByEmail() {
	ctx := context.Background()
	u := newTestUser(100)

	s.Require().NoError(s.store.Create(ctx, u, "bcrypt-hash"))

	found, hash, err := s.store.FindByEmail(ctx, u.Email)
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal("bcrypt-hash", hash)
	s.Equal(int64(100), found.KakaoID)
	s.Equal("kakao", found.Provider)
	s.Equal("2026-01-15T09:00:00Z", found.ConnectedAt)
}

func (s *PostgresStoreSuite) TestFindByEmailIsCaseInsensitive() {
	ctx := context.Background()
	u := newTestUser(101)
	u.Email = "Kakao_101@Gomunity.Local"

	s.Require().NoError(s.store.Create(ctx, u, "h"))

	found, _, err := s.store.FindByEmail(ctx, "kakao_101@gomunity.local")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
}

func (s *PostgresStoreSuite) TestFindByEmailMissing() {
	_, _, err := s.store.FindByEmail(context.Background(), "nobody@gomunity.local")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindByID() {
	ctx := context.Background()
	u := newTestUser(102)
	s.Require().NoError(s.store.Create(ctx, u, "h"))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, found.Email)

	_, err = s.store.FindByID(ctx, uuid.New())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflict() {
	ctx := context.Background()
	u := newTestUser(103)
	s.Require().NoError(s.store.Create(ctx, u, "h"))

	dup := newTestUser(104)
	dup.Email = u.Email
	s.ErrorIs(s.store.Create(ctx, dup, "h"), sentinel.ErrConflict)
}

// TestConcurrentDuplicateCreate verifies the unique constraint holds under
// concurrent sign-up attempts for the same derived email.
func (s *PostgresStoreSuite) TestConcurrentDuplicateCreate() {
	ctx := context.Background()
	email := "kakao_999@gomunity.local"
	const goroutines = 20

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u := newTestUser(999)
			u.Email = email
			switch err := s.store.Create(ctx, u, "h"); err {
			case nil:
				successes.Add(1)
			case sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load(), "exactly one create wins")
	s.Equal(int32(goroutines-1), conflicts.Load())
}
