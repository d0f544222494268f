package local

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomunity/internal/auth/device"
	"gomunity/internal/identity"
	sessionstore "gomunity/internal/identity/store/session"
	userstore "gomunity/internal/identity/store/user"
	jwttoken "gomunity/internal/jwt_token"
	"gomunity/pkg/platform/sentinel"
)

func newTestProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	jwtSvc := jwttoken.NewJWTService("test-signing-key-32-bytes-long!!", "gomunity", "gomunity")
	return New(userstore.NewInMemory(), sessionstore.NewInMemory(), jwtSvc, opts...)
}

func TestSignUpThenSignIn(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	meta := identity.Metadata{KakaoID: 123456, Provider: "kakao", ConnectedAt: "2026-01-15T09:00:00Z"}
	created, err := p.SignUp(ctx, "kakao_123456@gomunity.local", "kakao_123456_salt", meta)
	require.NoError(t, err)
	require.NotEmpty(t, created.AccessToken)
	assert.True(t, created.ExpiresAt.After(time.Now()))

	sess, err := p.SignInWithPassword(ctx, "kakao_123456@gomunity.local", "kakao_123456_salt")
	require.NoError(t, err)
	assert.Equal(t, created.UserID, sess.UserID)
	assert.NotEqual(t, created.ID, sess.ID, "each sign-in issues a fresh session")

	u, err := p.GetUser(ctx, sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), u.KakaoID)
	assert.Equal(t, "kakao", u.Provider)
}

func TestSignInUnknownEmail(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.SignInWithPassword(context.Background(), "nobody@gomunity.local", "whatever")
	assert.ErrorIs(t, err, sentinel.ErrInvalidCredentials)
}

func TestSignInWrongPassword(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "kakao_7@gomunity.local", "kakao_7_salt", identity.Metadata{KakaoID: 7, Provider: "kakao"})
	require.NoError(t, err)

	_, err = p.SignInWithPassword(ctx, "kakao_7@gomunity.local", "kakao_7_othersalt")
	assert.ErrorIs(t, err, sentinel.ErrInvalidCredentials,
		"wrong password must be indistinguishable from unknown email")
}

func TestSignUpDuplicateEmail(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	_, err := p.SignUp(ctx, "kakao_9@gomunity.local", "pw", identity.Metadata{KakaoID: 9, Provider: "kakao"})
	require.NoError(t, err)

	_, err = p.SignUp(ctx, "kakao_9@gomunity.local", "pw", identity.Metadata{KakaoID: 9, Provider: "kakao"})
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestSignOutRevokesSession(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	sess, err := p.SignUp(ctx, "kakao_11@gomunity.local", "pw", identity.Metadata{KakaoID: 11, Provider: "kakao"})
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, sess.ID))

	_, err = p.GetSession(ctx, sess.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// Revoking again is a no-op.
	assert.NoError(t, p.SignOut(ctx, sess.ID))
}

func TestSignOutUnknownSession(t *testing.T) {
	p := newTestProvider(t)
	assert.NoError(t, p.SignOut(context.Background(), uuid.New()))
}

func TestSubscribeReceivesEvents(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	events := p.Subscribe()

	sess, err := p.SignUp(ctx, "kakao_21@gomunity.local", "pw", identity.Metadata{KakaoID: 21, Provider: "kakao"})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, identity.EventSignedIn, ev.Kind)
		assert.Equal(t, sess.UserID, ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("expected SIGNED_IN event")
	}

	require.NoError(t, p.SignOut(ctx, sess.ID))

	select {
	case ev := <-events:
		assert.Equal(t, identity.EventSignedOut, ev.Kind)
		assert.Equal(t, sess.UserID, ev.UserID)
	case <-time.After(time.Second):
		t.Fatal("expected SIGNED_OUT event")
	}
}

func TestSessionRecordsDeviceFromContext(t *testing.T) {
	p := newTestProvider(t)
	ctx := device.ContextWithUserAgent(context.Background(),
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	sess, err := p.SignUp(ctx, "kakao_31@gomunity.local", "pw", identity.Metadata{KakaoID: 31, Provider: "kakao"})
	require.NoError(t, err)
	assert.Contains(t, sess.Device, "Chrome")
}

func TestValidateIssuedToken(t *testing.T) {
	jwtSvc := jwttoken.NewJWTService("test-signing-key-32-bytes-long!!", "gomunity", "gomunity")
	p := New(userstore.NewInMemory(), sessionstore.NewInMemory(), jwtSvc, WithSessionTTL(time.Hour))

	sess, err := p.SignUp(context.Background(), "kakao_41@gomunity.local", "pw", identity.Metadata{KakaoID: 41, Provider: "kakao"})
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateToken(sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID.String(), claims.UserID)
	assert.Equal(t, sess.ID.String(), claims.SessionID)
}
