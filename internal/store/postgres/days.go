package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
)

// DayStore implements store.DayStore using PostgreSQL.
type DayStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *DayStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new day.
func (s *DayStore) Create(ctx context.Context, day *models.Day) error {
	if day.ID == "" {
		day.ID = uuid.New().String()
	}
	query := `INSERT INTO days (id, event_id, date, label) VALUES ($1, $2, $3, $4)`
	_, err := s.conn().ExecContext(ctx, query, day.ID, day.EventID, day.Date, day.Label)
	return err
}

// ListByEvent retrieves all days for an event ordered by date.
func (s *DayStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Day, error) {
	query := `SELECT id, event_id, date, label FROM days WHERE event_id = $1 ORDER BY date`

	rows, err := s.conn().QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []*models.Day
	for rows.Next() {
		var d models.Day
		if err := rows.Scan(&d.ID, &d.EventID, &d.Date, &d.Label); err != nil {
			return nil, err
		}
		days = append(days, &d)
	}
	return days, rows.Err()
}

// Delete removes a day.
func (s *DayStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn().ExecContext(ctx, `DELETE FROM days WHERE id = $1`, id)
	return err
}
