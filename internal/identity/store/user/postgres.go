package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gomunity/internal/identity"
	"gomunity/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists users in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, u *identity.User, passwordHash string) error {
	query := `
		INSERT INTO users (id, email, password_hash, kakao_id, provider, connected_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Email, passwordHash, nullInt64(u.KakaoID), nullString(u.Provider), nullString(u.ConnectedAt), u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*identity.User, string, error) {
	u := &identity.User{}
	var hash string
	var kakaoID sql.NullInt64
	var provider, connectedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, kakao_id, provider, connected_at, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Email, &hash, &kakaoID, &provider, &connectedAt, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, "", sentinel.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user by email: %w", err)
	}
	u.KakaoID = kakaoID.Int64
	u.Provider = provider.String
	u.ConnectedAt = connectedAt.String
	return u, hash, nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u := &identity.User{}
	var kakaoID sql.NullInt64
	var provider, connectedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, kakao_id, provider, connected_at, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &kakaoID, &provider, &connectedAt, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	u.KakaoID = kakaoID.Int64
	u.Provider = provider.String
	u.ConnectedAt = connectedAt.String
	return u, nil
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
