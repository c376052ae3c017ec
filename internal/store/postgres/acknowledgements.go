package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
)

// AcknowledgementStore implements store.AcknowledgementStore using PostgreSQL.
type AcknowledgementStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *AcknowledgementStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new acknowledgement.
func (s *AcknowledgementStore) Create(ctx context.Context, a *models.Acknowledgement) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Status == "" {
		a.Status = models.AckActive
	}
	if a.AckedAt.IsZero() {
		a.AckedAt = time.Now()
	}

	query := `
		INSERT INTO acknowledgements (id, conflict_id, event_id, status, acked_by, acked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn().ExecContext(ctx, query,
		a.ID, a.ConflictID, a.EventID, string(a.Status), a.AckedBy, a.AckedAt,
	)
	return err
}

// SupersedeActive marks all active acknowledgements for a conflict as superseded.
func (s *AcknowledgementStore) SupersedeActive(ctx context.Context, conflictID string) (int, error) {
	query := `UPDATE acknowledgements SET status = 'superseded' WHERE conflict_id = $1 AND status = 'active'`
	res, err := s.conn().ExecContext(ctx, query, conflictID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *AcknowledgementStore) list(ctx context.Context, query string, args ...any) ([]*models.Acknowledgement, error) {
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var acks []*models.Acknowledgement
	for rows.Next() {
		var a models.Acknowledgement
		var status string
		if err := rows.Scan(&a.ID, &a.ConflictID, &a.EventID, &status, &a.AckedBy, &a.AckedAt); err != nil {
			return nil, err
		}
		a.Status = models.AcknowledgementStatus(status)
		acks = append(acks, &a)
	}
	return acks, rows.Err()
}

// ListByEvent retrieves all acknowledgements for an event.
func (s *AcknowledgementStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Acknowledgement, error) {
	query := `
		SELECT id, conflict_id, event_id, status, acked_by, acked_at
		FROM acknowledgements WHERE event_id = $1 ORDER BY acked_at DESC
	`
	return s.list(ctx, query, eventID)
}

// ListActiveByConflict retrieves the active acknowledgements for a conflict.
func (s *AcknowledgementStore) ListActiveByConflict(ctx context.Context, conflictID string) ([]*models.Acknowledgement, error) {
	query := `
		SELECT id, conflict_id, event_id, status, acked_by, acked_at
		FROM acknowledgements WHERE conflict_id = $1 AND status = 'active'
		ORDER BY acked_at DESC
	`
	return s.list(ctx, query, conflictID)
}
