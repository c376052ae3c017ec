package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// Lifecycle applies host actions to conflicts: acknowledge, delegate, dismiss,
// resolve. Every method scopes the lookup to the caller's event. A conflict
// that exists but belongs to another event yields ErrWrongEvent, never
// ErrConflictNotFound, so callers can distinguish a bad ID from a
// cross-event probe.
type Lifecycle struct {
	store  store.Store
	logger *slog.Logger
}

// NewLifecycle creates a new conflict lifecycle service.
func NewLifecycle(st store.Store, logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{store: st, logger: logger}
}

// load fetches the conflict and verifies it belongs to eventID.
func (l *Lifecycle) load(ctx context.Context, eventID, conflictID string) (*models.Conflict, error) {
	c, err := l.store.Conflicts().Get(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrConflictNotFound
	}
	if c.EventID != eventID {
		return nil, ErrWrongEvent
	}
	return c, nil
}

// canTransition reports whether a conflict in from may move to target.
// Re-applying the current terminal state is allowed (the stamp refreshes);
// crossing from one terminal state to the other is not.
func canTransition(from, target models.ConflictStatus) bool {
	if from == target {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	switch from {
	case models.ConflictOpen:
		return true
	case models.ConflictAcknowledged:
		return target != models.ConflictOpen
	case models.ConflictDelegated:
		return target == models.ConflictResolved || target == models.ConflictDismissed
	}
	return false
}

// Acknowledge records that actor has seen the conflict. Any prior active
// acknowledgement is superseded so exactly one row answers "who acknowledged
// this last". The conflict moves to acknowledged unless it is already
// delegated, in which case the acknowledgement is recorded without
// regressing the status.
func (l *Lifecycle) Acknowledge(ctx context.Context, eventID, conflictID, actor string) (*models.Conflict, error) {
	c, err := l.load(ctx, eventID, conflictID)
	if err != nil {
		return nil, err
	}
	if c.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: cannot acknowledge a %s conflict", ErrInvalidTransition, c.Status)
	}

	err = l.store.WithTx(ctx, func(tx store.Store) error {
		if _, err := tx.Acknowledgements().SupersedeActive(ctx, conflictID); err != nil {
			return err
		}
		ack := &models.Acknowledgement{
			ConflictID: conflictID,
			EventID:    eventID,
			Status:     models.AckActive,
			AckedBy:    actor,
			AckedAt:    time.Now(),
		}
		if err := tx.Acknowledgements().Create(ctx, ack); err != nil {
			return err
		}
		if c.Status == models.ConflictOpen {
			c.Status = models.ConflictAcknowledged
			return tx.Conflicts().Update(ctx, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("conflict acknowledged",
		slog.String("conflict_id", conflictID),
		slog.String("event_id", eventID),
		slog.String("actor", actor))
	return c, nil
}

// Delegate hands the conflict to another person to handle out of band. Only
// conflicts the detector marked delegatable accept this.
func (l *Lifecycle) Delegate(ctx context.Context, eventID, conflictID, actor, delegateTo string) (*models.Conflict, error) {
	c, err := l.load(ctx, eventID, conflictID)
	if err != nil {
		return nil, err
	}
	if !c.CanDelegate {
		return nil, ErrNotDelegatable
	}
	if !canTransition(c.Status, models.ConflictDelegated) {
		return nil, fmt.Errorf("%w: cannot delegate a %s conflict", ErrInvalidTransition, c.Status)
	}

	now := time.Now()
	c.Status = models.ConflictDelegated
	c.DelegatedTo = &delegateTo
	c.DelegatedAt = &now
	if err := l.store.Conflicts().Update(ctx, c); err != nil {
		return nil, err
	}

	l.logger.Info("conflict delegated",
		slog.String("conflict_id", conflictID),
		slog.String("event_id", eventID),
		slog.String("delegated_to", delegateTo),
		slog.String("actor", actor))
	return c, nil
}

// Dismiss marks the conflict as intentionally ignored. The detector will not
// recreate it for the same underlying cause. Dismissing an already dismissed
// conflict refreshes the stamp.
func (l *Lifecycle) Dismiss(ctx context.Context, eventID, conflictID, actor string) (*models.Conflict, error) {
	c, err := l.load(ctx, eventID, conflictID)
	if err != nil {
		return nil, err
	}
	if !canTransition(c.Status, models.ConflictDismissed) {
		return nil, fmt.Errorf("%w: cannot dismiss a %s conflict", ErrInvalidTransition, c.Status)
	}

	now := time.Now()
	c.Status = models.ConflictDismissed
	c.DismissedAt = &now
	if err := l.store.Conflicts().Update(ctx, c); err != nil {
		return nil, err
	}

	l.logger.Info("conflict dismissed",
		slog.String("conflict_id", conflictID),
		slog.String("event_id", eventID),
		slog.String("actor", actor))
	return c, nil
}

// Resolve marks the conflict as handled by actor. Resolving an already
// resolved conflict refreshes the stamp with the new actor.
func (l *Lifecycle) Resolve(ctx context.Context, eventID, conflictID, actor string) (*models.Conflict, error) {
	c, err := l.load(ctx, eventID, conflictID)
	if err != nil {
		return nil, err
	}
	if !canTransition(c.Status, models.ConflictResolved) {
		return nil, fmt.Errorf("%w: cannot resolve a %s conflict", ErrInvalidTransition, c.Status)
	}

	now := time.Now()
	c.Status = models.ConflictResolved
	c.ResolvedBy = &actor
	c.ResolvedAt = &now
	if err := l.store.Conflicts().Update(ctx, c); err != nil {
		return nil, err
	}

	l.logger.Info("conflict resolved",
		slog.String("conflict_id", conflictID),
		slog.String("event_id", eventID),
		slog.String("actor", actor))
	return c, nil
}
