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

// MagicLinkStore implements store.MagicLinkStore using PostgreSQL.
type MagicLinkStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *MagicLinkStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new magic link.
func (s *MagicLinkStore) Create(ctx context.Context, m *models.MagicLink) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO magic_links (id, email, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.conn().ExecContext(ctx, query, m.ID, m.Email, m.TokenHash, m.ExpiresAt, m.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// GetByHash retrieves a magic link by its token hash.
func (s *MagicLinkStore) GetByHash(ctx context.Context, hash string) (*models.MagicLink, error) {
	query := `
		SELECT id, email, token_hash, expires_at, consumed_at, created_at
		FROM magic_links WHERE token_hash = $1
	`

	var m models.MagicLink
	var consumedAt sql.NullTime
	err := s.conn().QueryRowContext(ctx, query, hash).Scan(
		&m.ID, &m.Email, &m.TokenHash, &m.ExpiresAt, &consumedAt, &m.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if consumedAt.Valid {
		m.ConsumedAt = &consumedAt.Time
	}
	return &m, nil
}

// Consume stamps consumed_at on an unconsumed link. The WHERE guard makes
// consumption single-use under concurrent requests.
func (s *MagicLinkStore) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE magic_links SET consumed_at = $1 WHERE id = $2 AND consumed_at IS NULL`
	res, err := s.conn().ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountRecent counts links created for an email since a time.
func (s *MagicLinkStore) CountRecent(ctx context.Context, email string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM magic_links WHERE email = $1 AND created_at >= $2`
	var count int
	if err := s.conn().QueryRowContext(ctx, query, email, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
