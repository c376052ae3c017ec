package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
)

// InviteEventStore implements store.InviteEventStore using PostgreSQL.
type InviteEventStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *InviteEventStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new invite event row.
func (s *InviteEventStore) Create(ctx context.Context, e *models.InviteEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}

	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	query := `
		INSERT INTO invite_events (id, event_id, person_id, type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.conn().ExecContext(ctx, query,
		e.ID, e.EventID, e.PersonID, e.Type, metadata, e.CreatedAt,
	)
	return err
}

// ListByEvent retrieves the audit trail for an event, newest first.
func (s *InviteEventStore) ListByEvent(ctx context.Context, eventID string) ([]*models.InviteEvent, error) {
	query := `
		SELECT id, event_id, person_id, type, metadata, created_at
		FROM invite_events WHERE event_id = $1 ORDER BY created_at DESC
	`
	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.InviteEvent
	for rows.Next() {
		var e models.InviteEvent
		var personID sql.NullString
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.EventID, &personID, &e.Type, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if personID.Valid {
			e.PersonID = &personID.String
		}
		if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// CountSince counts invite events of a type for a person since a time.
func (s *InviteEventStore) CountSince(ctx context.Context, eventID, personID, eventType string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM invite_events
		WHERE event_id = $1 AND person_id = $2 AND type = $3 AND created_at >= $4
	`
	var count int
	if err := s.conn().QueryRowContext(ctx, query, eventID, personID, eventType, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
