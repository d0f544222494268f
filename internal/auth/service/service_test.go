package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomunity/internal/identity"
	"gomunity/internal/identity/local"
	sessionstore "gomunity/internal/identity/store/session"
	userstore "gomunity/internal/identity/store/user"
	jwttoken "gomunity/internal/jwt_token"
	"gomunity/internal/kakao"
	profilemodels "gomunity/internal/profile/models"
	"gomunity/pkg/platform/sentinel"
)

type fakeKakao struct {
	exchangeCalls int
	fetchCalls    int
	exchangeErr   error
	fetchErr      error
	userID        int64
	connectedAt   string
}

func (f *fakeKakao) AuthorizeURL() string { return "https://kauth.kakao.test/oauth/authorize" }

func (f *fakeKakao) ExchangeToken(ctx context.Context, code, redirectURI string) (*kakao.TokenResponse, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &kakao.TokenResponse{AccessToken: "upstream-token", TokenType: "bearer", ExpiresIn: 21599}, nil
}

func (f *fakeKakao) FetchUser(ctx context.Context, accessToken string) (*kakao.UserInfo, error) {
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &kakao.UserInfo{ID: f.userID, ConnectedAt: f.connectedAt}, nil
}

type fakeProfiles struct {
	prof *profilemodels.Profile
	err  error
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*profilemodels.Profile, error) {
	return f.prof, f.err
}

func newTestService(t *testing.T, kc KakaoClient, profiles ProfileDirectory) (*Service, identity.Provider) {
	t.Helper()
	jwtSvc := jwttoken.NewJWTService("test-signing-key-32-bytes-long!!", "gomunity", "gomunity")
	provider := local.New(userstore.NewInMemory(), sessionstore.NewInMemory(), jwtSvc)
	return NewService(kc, provider, profiles, "test-salt", "https://app.test/auth/callback/kakao"), provider
}

func TestDeriveCredentialDeterministic(t *testing.T) {
	email1, pw1 := DeriveCredential(123456, "salt-a")
	email2, pw2 := DeriveCredential(123456, "salt-a")
	assert.Equal(t, email1, email2)
	assert.Equal(t, pw1, pw2)
	assert.Equal(t, "kakao_123456@gomunity.local", email1)
	assert.Equal(t, "kakao_123456_salt-a", pw1)

	_, pwOther := DeriveCredential(123456, "salt-b")
	assert.NotEqual(t, pw1, pwOther, "salt must be part of the derived password")
}

func TestHandleCallback_FirstLoginSignsUp(t *testing.T) {
	kc := &fakeKakao{userID: 987, connectedAt: "2026-02-01T12:00:00Z"}
	svc, provider := newTestService(t, kc, &fakeProfiles{})

	res, err := svc.HandleCallback(context.Background(), "auth-code")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.True(t, res.NewUser)
	assert.False(t, res.HasProfile)
	assert.Equal(t, 1, kc.exchangeCalls)
	assert.Equal(t, 1, kc.fetchCalls)

	user, err := provider.GetUser(context.Background(), res.Session.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(987), user.KakaoID)
	assert.Equal(t, "kakao", user.Provider)
	assert.Equal(t, "2026-02-01T12:00:00Z", user.ConnectedAt)
}

func TestHandleCallback_RepeatLoginResolvesSameAccount(t *testing.T) {
	kc := &fakeKakao{userID: 987}
	svc, _ := newTestService(t, kc, &fakeProfiles{})

	first, err := svc.HandleCallback(context.Background(), "code-1")
	require.NoError(t, err)
	second, err := svc.HandleCallback(context.Background(), "code-2")
	require.NoError(t, err)

	assert.Equal(t, first.Session.UserID, second.Session.UserID, "same kakao id maps to same account")
	assert.True(t, first.NewUser)
	assert.False(t, second.NewUser, "sign-up runs at most once per identity")
}

func TestHandleCallback_ExchangeFailureIsFatal(t *testing.T) {
	kc := &fakeKakao{exchangeErr: kakao.ErrUpstream}
	svc, _ := newTestService(t, kc, &fakeProfiles{})

	_, err := svc.HandleCallback(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Equal(t, 0, kc.fetchCalls, "chain stops at the failed step")
}

func TestHandleCallback_UserInfoFailureIsFatal(t *testing.T) {
	kc := &fakeKakao{userID: 1, fetchErr: errors.New("boom")}
	svc, provider := newTestService(t, kc, &fakeProfiles{})

	_, err := svc.HandleCallback(context.Background(), "code")
	require.Error(t, err)

	// Nothing was persisted.
	email, _ := DeriveCredential(1, "test-salt")
	_, signInErr := provider.SignInWithPassword(context.Background(), email, "anything")
	assert.ErrorIs(t, signInErr, sentinel.ErrInvalidCredentials)
}

type rejectingProvider struct {
	identity.Provider
	signUpCalls int
}

func (p *rejectingProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	return nil, sentinel.ErrUnavailable
}

func (p *rejectingProvider) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.Session, error) {
	p.signUpCalls++
	return nil, errors.New("unexpected")
}

func TestHandleCallback_NonCredentialSignInErrorSkipsSignUp(t *testing.T) {
	kc := &fakeKakao{userID: 5}
	provider := &rejectingProvider{}
	svc := NewService(kc, provider, &fakeProfiles{}, "test-salt", "https://app.test/cb")

	_, err := svc.HandleCallback(context.Background(), "code")
	require.Error(t, err)
	assert.Equal(t, 0, provider.signUpCalls,
		"only invalid-credentials triggers the sign-up fallback")
}

func TestHandleCallback_ExistingProfileRoutesHome(t *testing.T) {
	kc := &fakeKakao{userID: 42}
	svc, _ := newTestService(t, kc, &fakeProfiles{prof: &profilemodels.Profile{Nickname: "장미"}})

	res, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)
	assert.True(t, res.HasProfile)
}

func TestLogoutRevokesSession(t *testing.T) {
	kc := &fakeKakao{userID: 7}
	svc, provider := newTestService(t, kc, &fakeProfiles{})

	res, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), res.Session.ID))

	_, err = provider.GetSession(context.Background(), res.Session.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMe_MissingProfileIsNotAnError(t *testing.T) {
	kc := &fakeKakao{userID: 8}
	svc, _ := newTestService(t, kc, &fakeProfiles{})

	res, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)

	user, prof, err := svc.Me(context.Background(), res.Session.UserID)
	require.NoError(t, err)
	assert.NotNil(t, user)
	assert.Nil(t, prof)
}

func TestExchangeToken_SingleAttempt(t *testing.T) {
	kc := &fakeKakao{exchangeErr: kakao.ErrUpstream}
	svc, _ := newTestService(t, kc, &fakeProfiles{})

	_, err := svc.ExchangeToken(context.Background(), "code", "https://app.test/cb")
	require.ErrorIs(t, err, kakao.ErrUpstream)
	assert.Equal(t, 1, kc.exchangeCalls, "upstream rejection is never retried")
}
