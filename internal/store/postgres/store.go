// Package postgres provides the PostgreSQL implementation of the store interfaces.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gatherworks/coordinator/internal/store"
)

// Config holds PostgreSQL connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(dsn string) *Config {
	return &Config{
		DSN:             dsn,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger

	events           *EventStore
	teams            *TeamStore
	items            *ItemStore
	days             *DayStore
	assignments      *AssignmentStore
	people           *PersonStore
	conflicts        *ConflictStore
	acknowledgements *AcknowledgementStore
	revisions        *RevisionStore
	tokens           *TokenStore
	users            *UserStore
	subscriptions    *SubscriptionStore
	inviteEvents     *InviteEventStore
	magicLinks       *MagicLinkStore
	settings         *SettingsStore
}

// NewPostgresStore creates a new PostgreSQL store with the given configuration.
func NewPostgresStore(cfg *Config, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{
		db:     db,
		logger: logger,
	}

	s.events = &EventStore{db: db, logger: logger}
	s.teams = &TeamStore{db: db, logger: logger}
	s.items = &ItemStore{db: db, logger: logger}
	s.days = &DayStore{db: db, logger: logger}
	s.assignments = &AssignmentStore{db: db, logger: logger}
	s.people = &PersonStore{db: db, logger: logger}
	s.conflicts = &ConflictStore{db: db, logger: logger}
	s.acknowledgements = &AcknowledgementStore{db: db, logger: logger}
	s.revisions = &RevisionStore{db: db, logger: logger}
	s.tokens = &TokenStore{db: db, logger: logger}
	s.users = &UserStore{db: db, logger: logger}
	s.subscriptions = &SubscriptionStore{db: db, logger: logger}
	s.inviteEvents = &InviteEventStore{db: db, logger: logger}
	s.magicLinks = &MagicLinkStore{db: db, logger: logger}
	s.settings = &SettingsStore{db: db, logger: logger}

	logger.Info("connected to PostgreSQL database")
	return s, nil
}

// Events returns the EventStore.
func (s *PostgresStore) Events() store.EventStore { return s.events }

// Teams returns the TeamStore.
func (s *PostgresStore) Teams() store.TeamStore { return s.teams }

// Items returns the ItemStore.
func (s *PostgresStore) Items() store.ItemStore { return s.items }

// Days returns the DayStore.
func (s *PostgresStore) Days() store.DayStore { return s.days }

// Assignments returns the AssignmentStore.
func (s *PostgresStore) Assignments() store.AssignmentStore { return s.assignments }

// People returns the PersonStore.
func (s *PostgresStore) People() store.PersonStore { return s.people }

// Conflicts returns the ConflictStore.
func (s *PostgresStore) Conflicts() store.ConflictStore { return s.conflicts }

// Acknowledgements returns the AcknowledgementStore.
func (s *PostgresStore) Acknowledgements() store.AcknowledgementStore { return s.acknowledgements }

// Revisions returns the RevisionStore.
func (s *PostgresStore) Revisions() store.RevisionStore { return s.revisions }

// Tokens returns the TokenStore.
func (s *PostgresStore) Tokens() store.TokenStore { return s.tokens }

// Users returns the UserStore.
func (s *PostgresStore) Users() store.UserStore { return s.users }

// Subscriptions returns the SubscriptionStore.
func (s *PostgresStore) Subscriptions() store.SubscriptionStore { return s.subscriptions }

// InviteEvents returns the InviteEventStore.
func (s *PostgresStore) InviteEvents() store.InviteEventStore { return s.inviteEvents }

// MagicLinks returns the MagicLinkStore.
func (s *PostgresStore) MagicLinks() store.MagicLinkStore { return s.magicLinks }

// Settings returns the SettingsStore.
func (s *PostgresStore) Settings() store.SettingsStore { return s.settings }

// WithTx executes the given function within a database transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	txs := &txStore{tx: tx, logger: s.logger}

	if err := fn(txs); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	s.logger.Info("closing PostgreSQL connection")
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// txStore wraps a transaction and implements the Store interface.
type txStore struct {
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *txStore) Events() store.EventStore { return &EventStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Teams() store.TeamStore   { return &TeamStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Items() store.ItemStore   { return &ItemStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Days() store.DayStore     { return &DayStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Assignments() store.AssignmentStore {
	return &AssignmentStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) People() store.PersonStore { return &PersonStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Conflicts() store.ConflictStore {
	return &ConflictStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) Acknowledgements() store.AcknowledgementStore {
	return &AcknowledgementStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) Revisions() store.RevisionStore {
	return &RevisionStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) Tokens() store.TokenStore { return &TokenStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Users() store.UserStore   { return &UserStore{tx: s.tx, logger: s.logger} }
func (s *txStore) Subscriptions() store.SubscriptionStore {
	return &SubscriptionStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) InviteEvents() store.InviteEventStore {
	return &InviteEventStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) MagicLinks() store.MagicLinkStore {
	return &MagicLinkStore{tx: s.tx, logger: s.logger}
}
func (s *txStore) Settings() store.SettingsStore {
	return &SettingsStore{tx: s.tx, logger: s.logger}
}

func (s *txStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	// Already in a transaction, just execute the function.
	return fn(s)
}

func (s *txStore) Ping(ctx context.Context) error { return nil }

func (s *txStore) Close() error { return nil }

// queryable is an interface that both *sql.DB and *sql.Tx implement.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
