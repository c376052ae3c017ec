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

// AssignmentStore implements store.AssignmentStore using PostgreSQL.
type AssignmentStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *AssignmentStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const assignmentColumns = `id, item_id, event_id, person_id, response, responded_at, created_at`

func scanAssignment(row interface{ Scan(...any) error }) (*models.Assignment, error) {
	var a models.Assignment
	var response string
	var respondedAt sql.NullTime

	err := row.Scan(&a.ID, &a.ItemID, &a.EventID, &a.PersonID, &response, &respondedAt, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.Response = models.ResponseStatus(response)
	if respondedAt.Valid {
		a.RespondedAt = &respondedAt.Time
	}
	return &a, nil
}

// Create creates a new assignment.
func (s *AssignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Response == "" {
		a.Response = models.ResponsePending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO assignments (id, item_id, event_id, person_id, response, responded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.conn().ExecContext(ctx, query,
		a.ID, a.ItemID, a.EventID, a.PersonID, string(a.Response), a.RespondedAt, a.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateKey
	}
	return err
}

// Get retrieves an assignment by ID.
func (s *AssignmentStore) Get(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	return scanAssignment(s.conn().QueryRowContext(ctx, query, id))
}

// ListByEvent retrieves all assignments for an event.
func (s *AssignmentStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE event_id = $1 ORDER BY created_at`

	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// SetResponse records an assignee's response.
func (s *AssignmentStore) SetResponse(ctx context.Context, id string, response models.ResponseStatus, at time.Time) error {
	query := `UPDATE assignments SET response = $1, responded_at = $2 WHERE id = $3`
	res, err := s.conn().ExecContext(ctx, query, string(response), at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// OverrideResponses sets the response on all of a person's pending
// assignments in one atomic update-matching-criteria statement, avoiding lost
// updates under concurrent overrides.
func (s *AssignmentStore) OverrideResponses(ctx context.Context, eventID, personID string, response models.ResponseStatus, at time.Time) (int, error) {
	query := `
		UPDATE assignments SET response = $1, responded_at = $2
		WHERE event_id = $3 AND person_id = $4 AND response = 'pending'
	`
	res, err := s.conn().ExecContext(ctx, query, string(response), at, eventID, personID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes an assignment.
func (s *AssignmentStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn().ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	return err
}
