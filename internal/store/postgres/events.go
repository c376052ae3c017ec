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

// EventStore implements store.EventStore using PostgreSQL.
type EventStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *EventStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const eventColumns = `id, name, host_id, status, archived, is_legacy, invite_send_confirmed_at, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*models.Event, error) {
	var e models.Event
	var status string
	var confirmedAt sql.NullTime

	err := row.Scan(
		&e.ID, &e.Name, &e.HostID, &status, &e.Archived, &e.IsLegacy,
		&confirmedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	e.Status = models.EventStatus(status)
	if confirmedAt.Valid {
		e.InviteSendConfirmedAt = &confirmedAt.Time
	}
	return &e, nil
}

// Create creates a new event.
func (s *EventStore) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Status == "" {
		event.Status = models.EventStatusDraft
	}
	now := time.Now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	query := `
		INSERT INTO events (id, name, host_id, status, archived, is_legacy, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.conn().ExecContext(ctx, query,
		event.ID, event.Name, event.HostID, string(event.Status),
		event.Archived, event.IsLegacy, event.CreatedAt, event.UpdatedAt,
	)
	return err
}

// Get retrieves an event by ID.
func (s *EventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(s.conn().QueryRowContext(ctx, query, id))
}

// List retrieves all events for a host, newest first.
func (s *EventStore) List(ctx context.Context, hostID string) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE host_id = $1 ORDER BY created_at DESC`

	rows, err := s.conn().QueryContext(ctx, query, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListByStatus retrieves all non-archived events in the given status across
// hosts. Used by the nudge scheduler.
func (s *EventStore) ListByStatus(ctx context.Context, status models.EventStatus) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = $1 AND archived = FALSE ORDER BY created_at`

	rows, err := s.conn().QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Update updates an event's mutable fields.
func (s *EventStore) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, status = $2, archived = $3, is_legacy = $4, updated_at = now()
		WHERE id = $5
	`
	_, err := s.conn().ExecContext(ctx, query,
		event.Name, string(event.Status), event.Archived, event.IsLegacy, event.ID,
	)
	return err
}

// SetArchived sets or clears the archived flag.
func (s *EventStore) SetArchived(ctx context.Context, id string, archived bool) error {
	query := `UPDATE events SET archived = $1, updated_at = now() WHERE id = $2`
	res, err := s.conn().ExecContext(ctx, query, archived, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus moves the event to a new workflow status.
func (s *EventStore) SetStatus(ctx context.Context, id string, status models.EventStatus) error {
	query := `UPDATE events SET status = $1, updated_at = now() WHERE id = $2`
	res, err := s.conn().ExecContext(ctx, query, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive returns the host's non-legacy, non-archived event count.
func (s *EventStore) CountActive(ctx context.Context, hostID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM events
		WHERE host_id = $1 AND archived = FALSE AND is_legacy = FALSE
	`
	var count int
	if err := s.conn().QueryRowContext(ctx, query, hostID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// ConfirmInviteSend stamps invite_send_confirmed_at if not already set.
// First write wins: a second confirmation leaves the original stamp.
func (s *EventStore) ConfirmInviteSend(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE events SET invite_send_confirmed_at = $1, updated_at = now()
		WHERE id = $2 AND invite_send_confirmed_at IS NULL
	`
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
