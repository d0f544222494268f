// Package local is the default identity.Provider: users in Postgres (or
// memory), bcrypt password verification, JWT-backed sessions, and an
// auth-state-change broadcast.
package local

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gomunity/internal/auth/device"
	"gomunity/internal/identity"
	jwttoken "gomunity/internal/jwt_token"
	"gomunity/pkg/platform/sentinel"
)

type UserStore interface {
	Create(ctx context.Context, u *identity.User, passwordHash string) error
	FindByEmail(ctx context.Context, email string) (*identity.User, string, error)
	FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type SessionStore interface {
	Save(ctx context.Context, sess *identity.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Provider implements identity.Provider.
type Provider struct {
	users      UserStore
	sessions   SessionStore
	jwt        *jwttoken.JWTService
	sessionTTL time.Duration
	logger     *slog.Logger

	mu          sync.Mutex
	subscribers []chan identity.Event
}

type Option func(*Provider)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.sessionTTL = ttl
		}
	}
}

func New(users UserStore, sessions SessionStore, jwt *jwttoken.JWTService, opts ...Option) *Provider {
	p := &Provider{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		sessionTTL: 24 * time.Hour,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SignInWithPassword verifies the credential pair and issues a session.
// Returns sentinel.ErrInvalidCredentials both for unknown emails and for
// password mismatches so callers cannot distinguish the two.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Session, error) {
	u, hash, err := p.users.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, sentinel.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, sentinel.ErrInvalidCredentials
	}

	sess, err := p.createSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	p.broadcast(identity.Event{Kind: identity.EventSignedIn, UserID: u.ID})
	return sess, nil
}

// SignUp creates an account with the given credential pair and metadata,
// then issues a session for it.
func (p *Provider) SignUp(ctx context.Context, email, password string, meta identity.Metadata) (*identity.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &identity.User{
		ID:          uuid.New(),
		Email:       email,
		KakaoID:     meta.KakaoID,
		Provider:    meta.Provider,
		ConnectedAt: meta.ConnectedAt,
		CreatedAt:   time.Now(),
	}
	if err := p.users.Create(ctx, u, string(hash)); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "user created",
		"user_id", u.ID,
		"provider", meta.Provider,
	)

	sess, err := p.createSession(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	p.broadcast(identity.Event{Kind: identity.EventSignedIn, UserID: u.ID})
	return sess, nil
}

// SignOut revokes a session and notifies subscribers. Revoking an unknown
// session is a no-op.
func (p *Provider) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := p.sessions.FindByID(ctx, sessionID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrExpired) {
		return err
	}

	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	if sess != nil {
		p.broadcast(identity.Event{Kind: identity.EventSignedOut, UserID: sess.UserID})
	}
	return nil
}

func (p *Provider) GetUser(ctx context.Context, userID uuid.UUID) (*identity.User, error) {
	return p.users.FindByID(ctx, userID)
}

func (p *Provider) GetSession(ctx context.Context, sessionID uuid.UUID) (*identity.Session, error) {
	return p.sessions.FindByID(ctx, sessionID)
}

// Subscribe returns a channel of auth-state-change events. Slow consumers
// drop events rather than block sign-in.
func (p *Provider) Subscribe() <-chan identity.Event {
	ch := make(chan identity.Event, 16)
	p.mu.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.mu.Unlock()
	return ch
}

func (p *Provider) broadcast(ev identity.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *Provider) createSession(ctx context.Context, userID uuid.UUID) (*identity.Session, error) {
	now := time.Now()
	sess := &identity.Session{
		ID:        uuid.New(),
		UserID:    userID,
		Device:    device.ParseUserAgent(device.UserAgentFrom(ctx)),
		CreatedAt: now,
		ExpiresAt: now.Add(p.sessionTTL),
	}

	token, err := p.jwt.GenerateAccessToken(userID, sess.ID, p.sessionTTL)
	if err != nil {
		return nil, err
	}
	sess.AccessToken = token

	if err := p.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

var _ identity.Provider = (*Provider)(nil)
