package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
)

// SettingsStore implements store.SettingsStore using PostgreSQL.
type SettingsStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *SettingsStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Get retrieves a setting by key. Returns an empty string if unset.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn().QueryRowContext(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set sets a setting key-value pair.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := s.conn().ExecContext(ctx, query, key, value)
	return err
}
