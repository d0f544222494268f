// Package service holds the onboarding rules: one profile per user, a fixed
// form vocabulary, and a consent row that never blocks the profile.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gomunity/internal/platform/metrics"
	"gomunity/internal/platform/middleware"
	"gomunity/internal/profile/models"
	"gomunity/internal/profile/store"
	dErrors "gomunity/pkg/domain-errors"
	audit "gomunity/pkg/platform/audit"
	"gomunity/pkg/platform/sentinel"
)

// Store is the persistence contract for profiles and consent records.
type Store interface {
	CreateProfile(ctx context.Context, p *models.Profile) error
	CreateConsent(ctx context.Context, c *models.Consent) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	GetConsent(ctx context.Context, userID uuid.UUID) (*models.Consent, error)
}

// AuditPublisher records key onboarding actions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store   Store
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

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the onboarding form and writes the profile and consent
// rows. The consent write is non-fatal: a failure there is logged and the
// already-created profile stands.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, req models.CreateProfileRequest) (*models.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &models.Profile{
		ID:        uuid.New(),
		UserID:    userID,
		Nickname:  req.Nickname,
		Gender:    req.Gender,
		AgeGroup:  req.AgeGroup,
		Interests: req.Interests,
		CreatedAt: now,
	}

	if err := s.store.CreateProfile(ctx, p); err != nil {
		switch {
		case errors.Is(err, store.ErrNicknameTaken):
			if s.metrics != nil {
				s.metrics.NicknameConflicts.Inc()
			}
			return nil, dErrors.New(dErrors.CodeConflict, "nickname taken")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "profile already exists")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "profile creation failed")
		}
	}

	if s.metrics != nil {
		s.metrics.ProfilesCreated.Inc()
	}
	s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionProfileCreated, Subject: p.Nickname})

	consent := &models.Consent{
		UserID:                   userID,
		ContentVisibilityConsent: req.ContentVisibilityConsent,
		RecommendationConsent:    req.RecommendationConsent,
		CreatedAt:                now,
	}
	if err := s.store.CreateConsent(ctx, consent); err != nil {
		s.logger.ErrorContext(ctx, "consent insert failed, profile kept",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", userID,
			"error", err,
		)
	} else {
		s.emit(ctx, audit.Event{UserID: userID, Action: audit.ActionConsentGranted})
	}

	s.logger.InfoContext(ctx, "profile created",
		"request_id", middleware.GetRequestID(ctx),
		"user_id", userID,
	)
	return p, nil
}

// GetByUserID returns the profile, or (nil, nil) when the user has not
// onboarded yet.
func (s *Service) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p, err := s.store.GetByUserID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "profile lookup failed")
	}
	return p, nil
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
