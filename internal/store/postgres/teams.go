package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
)

// TeamStore implements store.TeamStore using PostgreSQL.
type TeamStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *TeamStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new team.
func (s *TeamStore) Create(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO teams (id, event_id, name, coordinator_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.conn().ExecContext(ctx, query,
		team.ID, team.EventID, team.Name, team.CoordinatorID, team.CreatedAt,
	)
	return err
}

// Get retrieves a team by ID.
func (s *TeamStore) Get(ctx context.Context, id string) (*models.Team, error) {
	query := `SELECT id, event_id, name, coordinator_id, created_at FROM teams WHERE id = $1`

	var t models.Team
	var coordinatorID sql.NullString
	err := s.conn().QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.EventID, &t.Name, &coordinatorID, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if coordinatorID.Valid {
		t.CoordinatorID = &coordinatorID.String
	}
	return &t, nil
}

// ListByEvent retrieves all teams for an event.
func (s *TeamStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Team, error) {
	query := `
		SELECT id, event_id, name, coordinator_id, created_at
		FROM teams WHERE event_id = $1 ORDER BY created_at
	`
	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var t models.Team
		var coordinatorID sql.NullString
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &coordinatorID, &t.CreatedAt); err != nil {
			return nil, err
		}
		if coordinatorID.Valid {
			t.CoordinatorID = &coordinatorID.String
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

// Update updates a team.
func (s *TeamStore) Update(ctx context.Context, team *models.Team) error {
	query := `UPDATE teams SET name = $1, coordinator_id = $2 WHERE id = $3`
	_, err := s.conn().ExecContext(ctx, query, team.Name, team.CoordinatorID, team.ID)
	return err
}

// Delete removes a team and its items. The item delete and team delete run in
// the same statement batch so the cascade count is consistent.
func (s *TeamStore) Delete(ctx context.Context, id string) (int, error) {
	res, err := s.conn().ExecContext(ctx, `DELETE FROM items WHERE team_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting team items: %w", err)
	}
	itemsDeleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = s.conn().ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("deleting team: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}
	return int(itemsDeleted), nil
}
