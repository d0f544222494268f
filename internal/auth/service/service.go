// Package service implements the identity bridge: authorization-code
// exchange against Kakao, deterministic credential derivation, and the
// sign-in-or-sign-up fallback against the identity provider.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gomunity/internal/identity"
	"gomunity/internal/kakao"
	"gomunity/internal/platform/metrics"
	"gomunity/internal/platform/middleware"
	profilemodels "gomunity/internal/profile/models"
	dErrors "gomunity/pkg/domain-errors"
	audit "gomunity/pkg/platform/audit"
	"gomunity/pkg/platform/sentinel"
)

var tracer = otel.Tracer("gomunity/internal/auth")

// KakaoClient is the slice of the Kakao OAuth client the bridge needs.
type KakaoClient interface {
	AuthorizeURL() string
	ExchangeToken(ctx context.Context, code, redirectURI string) (*kakao.TokenResponse, error)
	FetchUser(ctx context.Context, accessToken string) (*kakao.UserInfo, error)
}

// ProfileDirectory looks up onboarding profiles. A missing profile returns
// (nil, nil); new users legitimately have none.
type ProfileDirectory interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profilemodels.Profile, error)
}

// AuditPublisher records key auth actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CallbackResult is what the callback handler needs to finish the redirect:
// the issued session and whether the user already onboarded.
type CallbackResult struct {
	Session    *identity.Session
	User       *identity.User
	HasProfile bool
	NewUser    bool
}

// Service runs the login flows. All collaborators are interfaces so the
// handler tests can swap them out.
type Service struct {
	kakao    KakaoClient
	provider identity.Provider
	profiles ProfileDirectory
	salt     string

	redirectURI string

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a AuditPublisher) Option {
	return func(s *Service) { s.auditor = a }
}

// NewService wires the bridge. salt is the per-deployment value mixed into
// derived credentials; redirectURI is the registered callback.
func NewService(kakaoClient KakaoClient, provider identity.Provider, profiles ProfileDirectory, salt, redirectURI string, opts ...Option) *Service {
	s := &Service{
		kakao:       kakaoClient,
		provider:    provider,
		profiles:    profiles,
		salt:        salt,
		redirectURI: redirectURI,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeURL returns the provider redirect target for the login page.
func (s *Service) AuthorizeURL() string {
	return s.kakao.AuthorizeURL()
}

// DeriveCredential maps an external Kakao identifier to the stable synthetic
// credential pair. Same id and salt always produce the same pair, so repeat
// logins resolve to the same account instead of creating duplicates.
func DeriveCredential(kakaoID int64, salt string) (email, password string) {
	email = fmt.Sprintf("kakao_%d@gomunity.local", kakaoID)
	password = fmt.Sprintf("kakao_%d_%s", kakaoID, salt)
	return email, password
}

// HandleCallback runs the full bridge chain for an authorization code:
// exchange, user-info fetch, credential derivation, sign-in with a single
// sign-up fallback. Each step depends on the prior one succeeding; nothing
// is persisted unless the whole chain completes.
func (s *Service) HandleCallback(ctx context.Context, code string) (*CallbackResult, error) {
	ctx, span := tracer.Start(ctx, "auth.HandleCallback")
	defer span.End()

	token, err := s.kakao.ExchangeToken(ctx, code, s.redirectURI)
	if err != nil {
		return nil, s.callbackFailed(ctx, span, "token exchange failed", err)
	}

	info, err := s.kakao.FetchUser(ctx, token.AccessToken)
	if err != nil {
		return nil, s.callbackFailed(ctx, span, "user info fetch failed", err)
	}
	span.SetAttributes(attribute.Int64("kakao.user_id", info.ID))

	email, password := DeriveCredential(info.ID, s.salt)

	newUser := false
	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if errors.Is(err, sentinel.ErrInvalidCredentials) {
		// First login for this Kakao identity. Exactly one sign-up attempt;
		// a sign-up failure is fatal, never retried.
		newUser = true
		sess, err = s.provider.SignUp(ctx, email, password, identity.Metadata{
			KakaoID:     info.ID,
			Provider:    "kakao",
			ConnectedAt: info.ConnectedAt,
		})
	}
	if err != nil {
		return nil, s.callbackFailed(ctx, span, "identity provider rejected login", err)
	}
	if sess == nil {
		return nil, s.callbackFailed(ctx, span, "no session issued", dErrors.New(dErrors.CodeInternal, "no user"))
	}

	user, err := s.provider.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, s.callbackFailed(ctx, span, "user lookup failed", err)
	}

	prof, err := s.profiles.GetByUserID(ctx, sess.UserID)
	if err != nil {
		return nil, s.callbackFailed(ctx, span, "profile lookup failed", err)
	}

	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues("success").Inc()
		if newUser {
			s.metrics.UsersCreated.Inc()
		}
	}
	if newUser {
		s.emit(ctx, audit.Event{UserID: sess.UserID, Action: audit.ActionUserCreated, Subject: email})
	}
	s.emit(ctx, audit.Event{UserID: sess.UserID, Action: audit.ActionSessionCreated, Subject: sess.ID.String()})

	s.logger.InfoContext(ctx, "kakao login completed",
		"request_id", middleware.GetRequestID(ctx),
		"user_id", sess.UserID,
		"new_user", newUser,
	)

	return &CallbackResult{
		Session:    sess,
		User:       user,
		HasProfile: prof != nil,
		NewUser:    newUser,
	}, nil
}

// ExchangeToken is the proxy leg: one upstream attempt with confidential
// client credentials, upstream payload handed back untouched.
func (s *Service) ExchangeToken(ctx context.Context, code, redirectURI string) (*kakao.TokenResponse, error) {
	token, err := s.kakao.ExchangeToken(ctx, code, redirectURI)
	if err != nil {
		if s.metrics != nil {
			s.metrics.TokenExchanges.WithLabelValues("failure").Inc()
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.TokenExchanges.WithLabelValues("success").Inc()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionTokenExchanged, RequestID: middleware.GetRequestID(ctx)})
	return token, nil
}

// Logout revokes the session. Unknown sessions are a no-op.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.provider.SignOut(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "sign out failed")
	}
	s.emit(ctx, audit.Event{Action: audit.ActionSessionRevoked, Subject: sessionID.String()})
	return nil
}

// Me returns the current user and profile for session bootstrap. A missing
// profile is expected for users who have not onboarded and is not an error.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*identity.User, *profilemodels.Profile, error) {
	user, err := s.provider.GetUser(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "unknown user")
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "user lookup failed")
	}

	prof, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	return user, prof, nil
}

func (s *Service) callbackFailed(ctx context.Context, span trace.Span, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionAuthFailed, Reason: msg, RequestID: middleware.GetRequestID(ctx)})
	s.logger.ErrorContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err,
	)
	return fmt.Errorf("%s: %w", msg, err)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.RequestID == "" {
		event.RequestID = middleware.GetRequestID(ctx)
	}
	_ = s.auditor.Emit(ctx, event)
}
