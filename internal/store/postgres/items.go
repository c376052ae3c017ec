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

// ItemStore implements store.ItemStore using PostgreSQL.
type ItemStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *ItemStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const itemColumns = `id, team_id, event_id, name, day_id, critical, ai_generated, user_confirmed, needs_review, created_at`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var it models.Item
	var dayID sql.NullString

	err := row.Scan(
		&it.ID, &it.TeamID, &it.EventID, &it.Name, &dayID,
		&it.Critical, &it.AIGenerated, &it.UserConfirmed, &it.NeedsReview, &it.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if dayID.Valid {
		it.DayID = &dayID.String
	}
	return &it, nil
}

// Create creates a new item.
func (s *ItemStore) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO items (id, team_id, event_id, name, day_id, critical, ai_generated, user_confirmed, needs_review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.conn().ExecContext(ctx, query,
		item.ID, item.TeamID, item.EventID, item.Name, item.DayID,
		item.Critical, item.AIGenerated, item.UserConfirmed, item.NeedsReview, item.CreatedAt,
	)
	return err
}

// Get retrieves an item by ID.
func (s *ItemStore) Get(ctx context.Context, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	return scanItem(s.conn().QueryRowContext(ctx, query, id))
}

// ListByEvent retrieves all items for an event.
func (s *ItemStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE event_id = $1 ORDER BY created_at`
	return s.list(ctx, query, eventID)
}

// ListByTeam retrieves all items for a team.
func (s *ItemStore) ListByTeam(ctx context.Context, teamID string) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE team_id = $1 ORDER BY created_at`
	return s.list(ctx, query, teamID)
}

func (s *ItemStore) list(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := s.conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update updates an item.
func (s *ItemStore) Update(ctx context.Context, item *models.Item) error {
	query := `
		UPDATE items
		SET name = $1, day_id = $2, critical = $3, ai_generated = $4, user_confirmed = $5, needs_review = $6
		WHERE id = $7
	`
	_, err := s.conn().ExecContext(ctx, query,
		item.Name, item.DayID, item.Critical, item.AIGenerated,
		item.UserConfirmed, item.NeedsReview, item.ID,
	)
	return err
}

// MarkForReview flags the given items in one atomic update. A single
// update-matching-criteria statement avoids lost updates under concurrent
// calls.
func (s *ItemStore) MarkForReview(ctx context.Context, eventID string, itemIDs []string) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}
	query := `
		UPDATE items SET needs_review = TRUE
		WHERE event_id = $1 AND id = ANY($2)
	`
	res, err := s.conn().ExecContext(ctx, query, eventID, pq.Array(itemIDs))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes an item.
func (s *ItemStore) Delete(ctx context.Context, id string) error {
	_, err := s.conn().ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	return err
}
