package jwttoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gomunity/pkg/domain-errors"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gomunity", "gomunity-app")
	userID := uuid.New()
	sessionID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, sessionID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)

	extracted, err := svc.ExtractSessionID(token)
	require.NoError(t, err)
	assert.Equal(t, sessionID, extracted)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gomunity", "gomunity-app")

	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateWrongKey(t *testing.T) {
	svc := NewJWTService("key-one", "gomunity", "gomunity-app")
	other := NewJWTService("key-two", "gomunity", "gomunity-app")

	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "gomunity", "gomunity-app")
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
