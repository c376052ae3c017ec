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

// PersonStore implements store.PersonStore using PostgreSQL.
type PersonStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *PersonStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const personColumns = `id, event_id, name, email, phone, invite_anchor_at, created_at`

func scanPerson(row interface{ Scan(...any) error }) (*models.Person, error) {
	var p models.Person
	var anchorAt sql.NullTime

	err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Email, &p.Phone, &anchorAt, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if anchorAt.Valid {
		p.InviteAnchorAt = &anchorAt.Time
	}
	return &p, nil
}

// Create creates a new person.
func (s *PersonStore) Create(ctx context.Context, p *models.Person) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO people (id, event_id, name, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.conn().ExecContext(ctx, query, p.ID, p.EventID, p.Name, p.Email, p.Phone, p.CreatedAt)
	return err
}

// Get retrieves a person by ID.
func (s *PersonStore) Get(ctx context.Context, id string) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE id = $1`
	return scanPerson(s.conn().QueryRowContext(ctx, query, id))
}

// ListByEvent retrieves all people for an event.
func (s *PersonStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM people WHERE event_id = $1 ORDER BY created_at`

	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

// SetInviteAnchors stamps invite_anchor_at on every person in the event that
// does not have one yet. First write wins per person.
func (s *PersonStore) SetInviteAnchors(ctx context.Context, eventID string, at time.Time) (int, error) {
	query := `
		UPDATE people SET invite_anchor_at = $1
		WHERE event_id = $2 AND invite_anchor_at IS NULL
	`
	res, err := s.conn().ExecContext(ctx, query, at, eventID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
