package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/store/postgres"
)

// maxRevisionRetries bounds how many times a snapshot retries when another
// writer claims the same revision number first.
const maxRevisionRetries = 3

// Snapshotter persists immutable point-in-time copies of an event plan.
// Revision numbers are monotonic per event; the unique constraint on
// (event, revision number) serializes concurrent writers.
type Snapshotter struct {
	store  store.Store
	logger *slog.Logger
}

// NewSnapshotter creates a new revision snapshotter.
func NewSnapshotter(st store.Store, logger *slog.Logger) *Snapshotter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Snapshotter{store: st, logger: logger}
}

// CreateRevision reads the event's current plan and persists it as the next
// numbered revision. On a revision-number collision with a concurrent writer
// the number is recomputed and the insert retried a bounded number of times.
func (s *Snapshotter) CreateRevision(ctx context.Context, eventID, actor, reason string) (*models.PlanRevision, error) {
	event, err := s.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	snapshot, err := s.capture(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("capturing plan snapshot: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRevisionRetries; attempt++ {
		max, err := s.store.Revisions().MaxNumber(ctx, eventID)
		if err != nil {
			return nil, err
		}
		rev := &models.PlanRevision{
			EventID:        eventID,
			RevisionNumber: max + 1,
			CreatedBy:      actor,
			Reason:         reason,
			Snapshot:       *snapshot,
		}
		err = s.store.Revisions().Create(ctx, rev)
		if err == nil {
			s.logger.Info("plan revision created",
				slog.String("event_id", eventID),
				slog.Int("revision_number", rev.RevisionNumber),
				slog.String("reason", reason))
			return rev, nil
		}
		if !errors.Is(err, postgres.ErrDuplicateRevision) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("revision number contention after %d attempts: %w", maxRevisionRetries, lastErr)
}

// GetRevision fetches one revision scoped to the caller's event. A revision
// that exists under another event yields ErrWrongEvent, not ErrRevisionNotFound.
func (s *Snapshotter) GetRevision(ctx context.Context, eventID, revisionID string) (*models.PlanRevision, error) {
	rev, err := s.store.Revisions().Get(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, ErrRevisionNotFound
	}
	if rev.EventID != eventID {
		return nil, ErrWrongEvent
	}
	return rev, nil
}

// ListRevisions returns the event's revisions, newest first.
func (s *Snapshotter) ListRevisions(ctx context.Context, eventID string) ([]*models.PlanRevision, error) {
	return s.store.Revisions().ListByEvent(ctx, eventID)
}

// capture builds a denormalized value copy of the event plan.
func (s *Snapshotter) capture(ctx context.Context, eventID string) (*models.PlanSnapshot, error) {
	teams, err := s.store.Teams().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Items().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	days, err := s.store.Days().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.store.Conflicts().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	acks, err := s.store.Acknowledgements().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	snap := &models.PlanSnapshot{
		Teams:            make([]models.Team, 0, len(teams)),
		Items:            make([]models.Item, 0, len(items)),
		Days:             make([]models.Day, 0, len(days)),
		Conflicts:        make([]models.Conflict, 0, len(conflicts)),
		Acknowledgements: make([]models.Acknowledgement, 0, len(acks)),
	}
	for _, t := range teams {
		snap.Teams = append(snap.Teams, *t)
	}
	for _, it := range items {
		snap.Items = append(snap.Items, *it)
	}
	for _, d := range days {
		snap.Days = append(snap.Days, *d)
	}
	for _, c := range conflicts {
		snap.Conflicts = append(snap.Conflicts, *c)
	}
	for _, a := range acks {
		snap.Acknowledgements = append(snap.Acknowledgements, *a)
	}
	return snap, nil
}
