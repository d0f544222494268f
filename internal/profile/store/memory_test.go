package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomunity/internal/profile/models"
	"gomunity/pkg/platform/sentinel"
)

func newProfile(nickname string) *models.Profile {
	return &models.Profile{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Nickname:  nickname,
		Gender:    models.GenderFemale,
		AgeGroup:  models.Age20s,
		Interests: []string{"반려동물", "여행"},
		CreatedAt: time.Now(),
	}
}

func TestInMemory_CreateAndGet(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	p := newProfile("장미")
	require.NoError(t, s.CreateProfile(ctx, p))

	got, err := s.GetByUserID(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, p.Nickname, got.Nickname)
	assert.Equal(t, p.Interests, got.Interests)
}

func TestInMemory_GetMissing(t *testing.T) {
	s := NewInMemory()
	_, err := s.GetByUserID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemory_NicknameTaken(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	require.NoError(t, s.CreateProfile(ctx, newProfile("장미")))

	dup := newProfile("장미")
	err := s.CreateProfile(ctx, dup)
	assert.ErrorIs(t, err, ErrNicknameTaken)

	_, err = s.GetByUserID(ctx, dup.UserID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "rejected insert leaves no row")
}

func TestInMemory_OneProfilePerUser(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	p := newProfile("장미")
	require.NoError(t, s.CreateProfile(ctx, p))

	second := newProfile("백합")
	second.UserID = p.UserID
	assert.ErrorIs(t, s.CreateProfile(ctx, second), sentinel.ErrConflict)
}

func TestInMemory_Consent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.CreateConsent(ctx, &models.Consent{
		UserID:                   userID,
		ContentVisibilityConsent: true,
		RecommendationConsent:    true,
		CreatedAt:                time.Now(),
	}))

	c, err := s.GetConsent(ctx, userID)
	require.NoError(t, err)
	assert.True(t, c.ContentVisibilityConsent)
	assert.True(t, c.RecommendationConsent)
}
