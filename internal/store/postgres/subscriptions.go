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

// SubscriptionStore implements store.SubscriptionStore using PostgreSQL.
type SubscriptionStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *SubscriptionStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Upsert creates or replaces the subscription mirror for a user. The mirror
// only ever reflects the external provider's state.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.UpdatedAt = time.Now()

	query := `
		INSERT INTO subscriptions (id, user_id, provider_customer_id, provider_subscription_id,
			status, trial_ends_at, period_start, period_end, canceled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			provider_customer_id = EXCLUDED.provider_customer_id,
			provider_subscription_id = EXCLUDED.provider_subscription_id,
			status = EXCLUDED.status,
			trial_ends_at = EXCLUDED.trial_ends_at,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			canceled_at = EXCLUDED.canceled_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.conn().ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.ProviderCustomerID, sub.ProviderSubscriptionID,
		string(sub.Status), sub.TrialEndsAt, sub.PeriodStart, sub.PeriodEnd,
		sub.CanceledAt, sub.UpdatedAt,
	)
	return err
}

// GetByUserID retrieves the subscription for a user.
func (s *SubscriptionStore) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, provider_customer_id, provider_subscription_id,
			status, trial_ends_at, period_start, period_end, canceled_at, updated_at
		FROM subscriptions WHERE user_id = $1
	`

	var sub models.Subscription
	var status string
	var trialEndsAt, periodStart, periodEnd, canceledAt sql.NullTime

	err := s.conn().QueryRowContext(ctx, query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.ProviderCustomerID, &sub.ProviderSubscriptionID,
		&status, &trialEndsAt, &periodStart, &periodEnd, &canceledAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sub.Status = models.SubscriptionStatus(status)
	if trialEndsAt.Valid {
		sub.TrialEndsAt = &trialEndsAt.Time
	}
	if periodStart.Valid {
		sub.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		sub.PeriodEnd = &periodEnd.Time
	}
	if canceledAt.Valid {
		sub.CanceledAt = &canceledAt.Time
	}
	return &sub, nil
}
