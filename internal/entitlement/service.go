// Package entitlement computes billing-derived permissions for hosts.
package entitlement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// ErrUserNotFound is returned when the user does not exist.
var ErrUserNotFound = errors.New("user not found")

// ErrNotEntitled is returned by the Require helpers when billing status
// blocks the action.
var ErrNotEntitled = errors.New("not entitled by billing status")

// DefaultFreeTierCap is the number of active non-legacy events a free-tier
// host may have before creation is blocked.
const DefaultFreeTierCap = 1

// Service computes create/edit entitlements from billing status and the
// per-event legacy flag.
type Service struct {
	store       store.Store
	freeTierCap int
	logger      *slog.Logger
}

// NewService creates a new entitlement service.
func NewService(st store.Store, freeTierCap int, logger *slog.Logger) *Service {
	if freeTierCap <= 0 {
		freeTierCap = DefaultFreeTierCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       st,
		freeTierCap: freeTierCap,
		logger:      logger,
	}
}

// CanCreateEvent reports whether the user may create a new event. Trialing
// and active subscribers always may; free-tier hosts are capped on active
// non-legacy events; past-due and canceled hosts may not.
func (s *Service) CanCreateEvent(ctx context.Context, userID string) (bool, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	return s.allowedByBilling(ctx, user)
}

// CanEditEvent reports whether the event may be edited. Legacy events are
// permanently exempt from billing gating regardless of the host's current
// status. The exemption is per-event, not per-user: a host may own a mix of
// legacy and new events after a pricing change.
func (s *Service) CanEditEvent(ctx context.Context, event *models.Event) (bool, error) {
	if event.IsLegacy {
		return true, nil
	}

	user, err := s.store.Users().GetByID(ctx, event.HostID)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	return s.allowedByBilling(ctx, user)
}

// RequireCreateEvent is CanCreateEvent with the denial as an error.
func (s *Service) RequireCreateEvent(ctx context.Context, userID string) error {
	ok, err := s.CanCreateEvent(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEntitled
	}
	return nil
}

// RequireEditEvent is CanEditEvent with the denial as an error.
func (s *Service) RequireEditEvent(ctx context.Context, event *models.Event) error {
	ok, err := s.CanEditEvent(ctx, event)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotEntitled
	}
	return nil
}

func (s *Service) allowedByBilling(ctx context.Context, user *models.User) (bool, error) {
	if user.BillingStatus.InGoodStanding() {
		return true, nil
	}
	if user.BillingStatus == models.BillingFree {
		count, err := s.store.Events().CountActive(ctx, user.ID)
		if err != nil {
			return false, err
		}
		return count < s.freeTierCap, nil
	}
	// past_due and canceled
	return false, nil
}
