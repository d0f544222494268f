package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gomunity/internal/profile/models"
	"gomunity/pkg/platform/sentinel"
)

// ErrNicknameTaken reports a unique violation specifically on the nickname
// column; any other conflict surfaces as sentinel.ErrConflict.
var ErrNicknameTaken = errors.New("nickname already taken")

const (
	uniqueViolation    = "23505"
	nicknameConstraint = "profiles_nickname_key"
)

// Postgres persists profiles and consent records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, user_id, nickname, gender, age_group, interests, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Nickname, p.Gender, p.AgeGroup, pq.Array(p.Interests), p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			if pqErr.Constraint == nicknameConstraint {
				return ErrNicknameTaken
			}
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *Postgres) CreateConsent(ctx context.Context, c *models.Consent) error {
	query := `
		INSERT INTO user_consent (id, user_id, content_visibility_consent, recommendation_consent, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), c.UserID, c.ContentVisibilityConsent, c.RecommendationConsent, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create consent: %w", err)
	}
	return nil
}

func (s *Postgres) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, nickname, gender, age_group, interests, created_at
		FROM profiles
		WHERE user_id = $1
	`, userID).Scan(&p.ID, &p.UserID, &p.Nickname, &p.Gender, &p.AgeGroup, pq.Array(&p.Interests), &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find profile by user id: %w", err)
	}
	return p, nil
}

func (s *Postgres) GetConsent(ctx context.Context, userID uuid.UUID) (*models.Consent, error) {
	c := &models.Consent{}
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, content_visibility_consent, recommendation_consent, created_at
		FROM user_consent
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&c.UserID, &c.ContentVisibilityConsent, &c.RecommendationConsent, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find consent by user id: %w", err)
	}
	return c, nil
}
