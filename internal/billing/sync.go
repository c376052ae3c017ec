// Package billing mirrors the external subscription provider's state. Only
// the resulting billing status is consumed elsewhere; the provider's webhook
// boundary stays thin.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// ErrUserNotFound is returned when a provider update references an unknown user.
var ErrUserNotFound = errors.New("user not found")

// ProviderUpdate is a normalized subscription change from the billing
// provider. Status values follow the provider's vocabulary; unknown values
// map to canceled.
type ProviderUpdate struct {
	UserID                 string     `json:"user_id"`
	ProviderCustomerID     string     `json:"provider_customer_id"`
	ProviderSubscriptionID string     `json:"provider_subscription_id"`
	Status                 string     `json:"status"`
	TrialEndsAt            *time.Time `json:"trial_ends_at,omitempty"`
	PeriodStart            *time.Time `json:"period_start,omitempty"`
	PeriodEnd              *time.Time `json:"period_end,omitempty"`
	CanceledAt             *time.Time `json:"canceled_at,omitempty"`
}

// Status is the billing state returned to the host.
type Status struct {
	BillingStatus models.BillingStatus `json:"billing_status"`
	Subscription  *models.Subscription `json:"subscription,omitempty"`
}

// Sync applies provider updates to the local subscription mirror and keeps
// the user's billing status in step.
type Sync struct {
	store  store.Store
	logger *slog.Logger
}

// NewSync creates a billing sync service.
func NewSync(st store.Store, logger *slog.Logger) *Sync {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sync{store: st, logger: logger}
}

// subscriptionStatus maps provider status strings to the local enum.
func subscriptionStatus(provider string) models.SubscriptionStatus {
	switch provider {
	case "trialing":
		return models.SubscriptionTrialing
	case "active":
		return models.SubscriptionActive
	case "past_due":
		return models.SubscriptionPastDue
	default:
		// canceled, unpaid, and anything the provider adds later all read
		// as canceled locally.
		return models.SubscriptionCanceled
	}
}

// ApplyProviderUpdate upserts the subscription mirror and recomputes the
// user's billing status, atomically.
func (s *Sync) ApplyProviderUpdate(ctx context.Context, update *ProviderUpdate) error {
	user, err := s.store.Users().GetByID(ctx, update.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	sub := &models.Subscription{
		UserID:                 update.UserID,
		ProviderCustomerID:     update.ProviderCustomerID,
		ProviderSubscriptionID: update.ProviderSubscriptionID,
		Status:                 subscriptionStatus(update.Status),
		TrialEndsAt:            update.TrialEndsAt,
		PeriodStart:            update.PeriodStart,
		PeriodEnd:              update.PeriodEnd,
		CanceledAt:             update.CanceledAt,
	}
	billingStatus := models.BillingStatusFor(sub)

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.Subscriptions().Upsert(ctx, sub); err != nil {
			return fmt.Errorf("upserting subscription: %w", err)
		}
		return tx.Users().SetBillingStatus(ctx, update.UserID, billingStatus)
	})
	if err != nil {
		return err
	}

	s.logger.Info("billing status synced",
		slog.String("user_id", update.UserID),
		slog.String("status", string(billingStatus)))
	return nil
}

// GetStatus returns the user's billing status and subscription mirror.
func (s *Sync) GetStatus(ctx context.Context, userID string) (*Status, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	sub, err := s.store.Subscriptions().GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Status{BillingStatus: user.BillingStatus, Subscription: sub}, nil
}
