package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
)

// RevisionStore implements store.RevisionStore using PostgreSQL.
type RevisionStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *RevisionStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create persists a new revision. The unique (event_id, revision_number)
// constraint is what serializes concurrent snapshotters; a violation surfaces
// as ErrDuplicateRevision so the caller can recompute and retry.
func (s *RevisionStore) Create(ctx context.Context, r *models.PlanRevision) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	snapshot, err := json.Marshal(r.Snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	query := `
		INSERT INTO plan_revisions (id, event_id, revision_number, created_by, reason, snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.conn().ExecContext(ctx, query,
		r.ID, r.EventID, r.RevisionNumber, r.CreatedBy, r.Reason, snapshot, r.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateRevision
	}
	return err
}

// Get retrieves a revision by ID.
func (s *RevisionStore) Get(ctx context.Context, id string) (*models.PlanRevision, error) {
	query := `
		SELECT id, event_id, revision_number, created_by, reason, snapshot, created_at
		FROM plan_revisions WHERE id = $1
	`

	var r models.PlanRevision
	var snapshot []byte
	err := s.conn().QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.EventID, &r.RevisionNumber, &r.CreatedBy, &r.Reason, &snapshot, &r.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(snapshot, &r.Snapshot); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &r, nil
}

// MaxNumber returns the highest revision number for an event, 0 if none.
func (s *RevisionStore) MaxNumber(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COALESCE(MAX(revision_number), 0) FROM plan_revisions WHERE event_id = $1`
	var max int
	if err := s.conn().QueryRowContext(ctx, query, eventID).Scan(&max); err != nil {
		return 0, err
	}
	return max, nil
}

// ListByEvent retrieves revisions for an event, newest first.
func (s *RevisionStore) ListByEvent(ctx context.Context, eventID string) ([]*models.PlanRevision, error) {
	query := `
		SELECT id, event_id, revision_number, created_by, reason, snapshot, created_at
		FROM plan_revisions WHERE event_id = $1 ORDER BY revision_number DESC
	`
	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*models.PlanRevision
	for rows.Next() {
		var r models.PlanRevision
		var snapshot []byte
		if err := rows.Scan(&r.ID, &r.EventID, &r.RevisionNumber, &r.CreatedBy, &r.Reason, &snapshot, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &r.Snapshot); err != nil {
			return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
		}
		revisions = append(revisions, &r)
	}
	return revisions, rows.Err()
}
