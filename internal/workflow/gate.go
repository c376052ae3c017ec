package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// Gate block reason codes. Machine-readable; descriptions are for display.
const (
	BlockOpenCriticalConflict = "open_critical_conflict"
	BlockUnassignedCritical   = "unassigned_critical_item"
	BlockDeclinedCritical     = "declined_critical_item"
	BlockUnconfirmedAICrit    = "unconfirmed_ai_critical_item"
)

// GateBlock is one hard condition preventing an event from freezing.
type GateBlock struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	ItemID      string `json:"item_id,omitempty"`
	ConflictID  string `json:"conflict_id,omitempty"`
}

// GateResult is the outcome of a gate check. Passed is true iff Blocks is
// empty.
type GateResult struct {
	EventID string      `json:"event_id"`
	Passed  bool        `json:"passed"`
	Blocks  []GateBlock `json:"blocks"`
}

// Gate runs the authoritative blocking checks consulted before an event may
// advance out of confirming, and performs the workflow transitions themselves.
// Unlike the freeze-readiness report, which surfaces soft warnings, a gate
// block is a hard refusal.
type Gate struct {
	store    store.Store
	snapshot *Snapshotter
	logger   *slog.Logger
}

// NewGate creates a new gate-check evaluator.
func NewGate(st store.Store, snapshot *Snapshotter, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{store: st, snapshot: snapshot, logger: logger}
}

// Check evaluates the blocking conditions for the event. The check is
// read-only and deterministic for unchanged plan state: running it twice in a
// row yields the same blocks.
func (g *Gate) Check(ctx context.Context, eventID string) (*GateResult, error) {
	event, err := g.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	result := &GateResult{EventID: eventID}

	conflicts, err := g.store.Conflicts().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	for _, c := range conflicts {
		if c.Severity == models.SeverityCritical && !c.Status.IsTerminal() {
			result.Blocks = append(result.Blocks, GateBlock{
				Code:        BlockOpenCriticalConflict,
				Description: fmt.Sprintf("critical conflict %q is %s", c.Type, c.Status),
				ConflictID:  c.ID,
			})
		}
	}

	items, err := g.store.Items().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	assignments, err := g.store.Assignments().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	byItem := make(map[string]*models.Assignment, len(assignments))
	for _, a := range assignments {
		byItem[a.ItemID] = a
	}

	for _, it := range items {
		if !it.Critical {
			continue
		}
		a := byItem[it.ID]
		switch {
		case a == nil:
			result.Blocks = append(result.Blocks, GateBlock{
				Code:        BlockUnassignedCritical,
				Description: fmt.Sprintf("critical item %q has no assignment", it.Name),
				ItemID:      it.ID,
			})
		case a.Response == models.ResponseDeclined:
			result.Blocks = append(result.Blocks, GateBlock{
				Code:        BlockDeclinedCritical,
				Description: fmt.Sprintf("critical item %q was declined", it.Name),
				ItemID:      it.ID,
			})
		}
		if it.AIGenerated && !it.UserConfirmed {
			result.Blocks = append(result.Blocks, GateBlock{
				Code:        BlockUnconfirmedAICrit,
				Description: fmt.Sprintf("critical item %q was auto-suggested and needs confirmation", it.Name),
				ItemID:      it.ID,
			})
		}
	}

	result.Passed = len(result.Blocks) == 0
	return result, nil
}

// nextStatus maps each workflow status to its successor.
func nextStatus(s models.EventStatus) (models.EventStatus, bool) {
	switch s {
	case models.EventStatusDraft:
		return models.EventStatusPlanning, true
	case models.EventStatusPlanning:
		return models.EventStatusConfirming, true
	case models.EventStatusConfirming:
		return models.EventStatusFrozen, true
	}
	return "", false
}

// Advance moves the event to the next workflow status. The confirming to
// frozen step runs the gate first and refuses while any block remains; the
// returned GateResult carries the blocks for the caller to render. Every
// successful transition stamps a plan revision.
func (g *Gate) Advance(ctx context.Context, eventID, actor string) (*models.Event, *GateResult, error) {
	event, err := g.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, nil, ErrEventNotFound
	}
	if event.Archived {
		return nil, nil, fmt.Errorf("%w: archived events cannot advance", ErrInvalidTransition)
	}

	target, ok := nextStatus(event.Status)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no transition out of %s", ErrInvalidTransition, event.Status)
	}

	var gate *GateResult
	if target == models.EventStatusFrozen {
		gate, err = g.Check(ctx, eventID)
		if err != nil {
			return nil, nil, err
		}
		if !gate.Passed {
			return nil, gate, ErrGateFailed
		}
	}

	if err := g.store.Events().SetStatus(ctx, eventID, target); err != nil {
		return nil, nil, err
	}
	event.Status = target

	reason := string(target)
	if target == models.EventStatusFrozen {
		reason = "freeze"
	}
	if _, err := g.snapshot.CreateRevision(ctx, eventID, actor, reason); err != nil {
		// The transition already happened. Missing a snapshot is not worth
		// failing the request over.
		g.logger.Error("revision snapshot failed after transition",
			slog.String("event_id", eventID),
			slog.String("status", string(target)),
			slog.String("error", err.Error()))
	}

	g.logger.Info("event advanced",
		slog.String("event_id", eventID),
		slog.String("status", string(target)),
		slog.String("actor", actor))
	return event, gate, nil
}
