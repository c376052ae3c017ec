package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
)

// TokenStore implements store.TokenStore using PostgreSQL.
type TokenStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *TokenStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new access token.
func (s *TokenStore) Create(ctx context.Context, t *models.AccessToken) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO access_tokens (id, token_hash, event_id, scope, person_id, team_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.conn().ExecContext(ctx, query,
		t.ID, t.TokenHash, t.EventID, string(t.Scope), t.PersonID, t.TeamID, t.ExpiresAt, t.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// GetByHash retrieves a token by its hash.
func (s *TokenStore) GetByHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	query := `
		SELECT id, token_hash, event_id, scope, person_id, team_id, expires_at, created_at
		FROM access_tokens WHERE token_hash = $1
	`

	var t models.AccessToken
	var scope string
	var personID, teamID sql.NullString
	var expiresAt sql.NullTime

	err := s.conn().QueryRowContext(ctx, query, hash).Scan(
		&t.ID, &t.TokenHash, &t.EventID, &scope, &personID, &teamID, &expiresAt, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	t.Scope = models.TokenScope(scope)
	if personID.Valid {
		t.PersonID = &personID.String
	}
	if teamID.Valid {
		t.TeamID = &teamID.String
	}
	if expiresAt.Valid {
		t.ExpiresAt = &expiresAt.Time
	}
	return &t, nil
}

// DeleteByEvent removes all tokens for an event.
func (s *TokenStore) DeleteByEvent(ctx context.Context, eventID string) error {
	_, err := s.conn().ExecContext(ctx, `DELETE FROM access_tokens WHERE event_id = $1`, eventID)
	return err
}
