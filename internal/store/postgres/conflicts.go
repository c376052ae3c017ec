package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/gatherworks/coordinator/internal/models"
)

// ConflictStore implements store.ConflictStore using PostgreSQL.
type ConflictStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *ConflictStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const conflictColumns = `id, event_id, type, severity, status, resolution_class, can_delegate,
	affected_item_ids, fingerprint, suggested_fix, delegated_to, delegated_at,
	resolved_by, resolved_at, dismissed_at, created_at`

func scanConflict(row interface{ Scan(...any) error }) (*models.Conflict, error) {
	var c models.Conflict
	var severity, status, resolutionClass string
	var affected pq.StringArray
	var delegatedTo, resolvedBy sql.NullString
	var delegatedAt, resolvedAt, dismissedAt sql.NullTime

	err := row.Scan(
		&c.ID, &c.EventID, &c.Type, &severity, &status, &resolutionClass, &c.CanDelegate,
		&affected, &c.Fingerprint, &c.SuggestedFix, &delegatedTo, &delegatedAt,
		&resolvedBy, &resolvedAt, &dismissedAt, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.Severity = models.ConflictSeverity(severity)
	c.Status = models.ConflictStatus(status)
	c.ResolutionClass = models.ResolutionClass(resolutionClass)
	c.AffectedItemIDs = []string(affected)
	if delegatedTo.Valid {
		c.DelegatedTo = &delegatedTo.String
	}
	if delegatedAt.Valid {
		c.DelegatedAt = &delegatedAt.Time
	}
	if resolvedBy.Valid {
		c.ResolvedBy = &resolvedBy.String
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	if dismissedAt.Valid {
		c.DismissedAt = &dismissedAt.Time
	}
	return &c, nil
}

// Create creates a new conflict.
func (s *ConflictStore) Create(ctx context.Context, c *models.Conflict) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.ConflictOpen
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO conflicts (id, event_id, type, severity, status, resolution_class, can_delegate,
			affected_item_ids, fingerprint, suggested_fix, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.conn().ExecContext(ctx, query,
		c.ID, c.EventID, c.Type, string(c.Severity), string(c.Status),
		string(c.ResolutionClass), c.CanDelegate, pq.Array(c.AffectedItemIDs),
		c.Fingerprint, c.SuggestedFix, c.CreatedAt,
	)
	return err
}

// Get retrieves a conflict by ID.
func (s *ConflictStore) Get(ctx context.Context, id string) (*models.Conflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM conflicts WHERE id = $1`
	return scanConflict(s.conn().QueryRowContext(ctx, query, id))
}

// ListByEvent retrieves all conflicts for an event, critical first and then
// most recent first within each severity.
func (s *ConflictStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Conflict, error) {
	query := `
		SELECT ` + conflictColumns + ` FROM conflicts
		WHERE event_id = $1
		ORDER BY CASE severity WHEN 'critical' THEN 0 WHEN 'warning' THEN 1 ELSE 2 END,
			created_at DESC
	`
	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []*models.Conflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

// Update updates a conflict's status and stamp fields.
func (s *ConflictStore) Update(ctx context.Context, c *models.Conflict) error {
	query := `
		UPDATE conflicts
		SET status = $1, delegated_to = $2, delegated_at = $3,
			resolved_by = $4, resolved_at = $5, dismissed_at = $6
		WHERE id = $7
	`
	res, err := s.conn().ExecContext(ctx, query,
		string(c.Status), c.DelegatedTo, c.DelegatedAt,
		c.ResolvedBy, c.ResolvedAt, c.DismissedAt, c.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
