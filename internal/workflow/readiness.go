package workflow

import (
	"context"
	"log/slog"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// FreezeComplianceThreshold is the minimum share of assignments that must be
// accepted before the plan is considered freeze-ready. The comparison is
// inclusive: exactly this rate passes.
const FreezeComplianceThreshold = 0.8

// FreezeReadiness summarizes how close an event plan is to freezable.
type FreezeReadiness struct {
	EventID string `json:"event_id"`

	// ComplianceRate is accepted assignments over total assignments. An event
	// with no assignments is vacuously compliant at 1.0.
	ComplianceRate float64 `json:"compliance_rate"`

	TotalAssignments    int `json:"total_assignments"`
	AcceptedAssignments int `json:"accepted_assignments"`
	PendingAssignments  int `json:"pending_assignments"`
	DeclinedAssignments int `json:"declined_assignments"`

	// CriticalGaps lists critical items with no assignment or a declined one.
	CriticalGaps []CriticalGap `json:"critical_gaps"`

	// OpenCriticalConflicts counts non-terminal critical conflicts.
	OpenCriticalConflicts int `json:"open_critical_conflicts"`

	CanFreeze bool `json:"can_freeze"`
}

// CriticalGap identifies one critical item that is not safely covered.
type CriticalGap struct {
	ItemID   string `json:"item_id"`
	ItemName string `json:"item_name"`
	Reason   string `json:"reason"`
}

// Readiness computes freeze-readiness reports for events.
type Readiness struct {
	store  store.Store
	logger *slog.Logger
}

// NewReadiness creates a new freeze-readiness evaluator.
func NewReadiness(st store.Store, logger *slog.Logger) *Readiness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Readiness{store: st, logger: logger}
}

// Check evaluates the event's current plan and reports whether it can freeze.
// The check is read-only and makes no state changes.
func (r *Readiness) Check(ctx context.Context, eventID string) (*FreezeReadiness, error) {
	event, err := r.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	items, err := r.store.Items().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	assignments, err := r.store.Assignments().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	conflicts, err := r.store.Conflicts().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	report := &FreezeReadiness{EventID: eventID, ComplianceRate: 1.0}

	byItem := make(map[string]*models.Assignment, len(assignments))
	for _, a := range assignments {
		byItem[a.ItemID] = a
		report.TotalAssignments++
		switch a.Response {
		case models.ResponseAccepted:
			report.AcceptedAssignments++
		case models.ResponseDeclined:
			report.DeclinedAssignments++
		default:
			report.PendingAssignments++
		}
	}
	if report.TotalAssignments > 0 {
		report.ComplianceRate = float64(report.AcceptedAssignments) / float64(report.TotalAssignments)
	}

	for _, it := range items {
		if !it.Critical {
			continue
		}
		a := byItem[it.ID]
		switch {
		case a == nil:
			report.CriticalGaps = append(report.CriticalGaps, CriticalGap{
				ItemID: it.ID, ItemName: it.Name, Reason: "unassigned",
			})
		case a.Response == models.ResponseDeclined:
			report.CriticalGaps = append(report.CriticalGaps, CriticalGap{
				ItemID: it.ID, ItemName: it.Name, Reason: "declined",
			})
		}
	}

	for _, c := range conflicts {
		if c.Severity == models.SeverityCritical && !c.Status.IsTerminal() {
			report.OpenCriticalConflicts++
		}
	}

	report.CanFreeze = report.ComplianceRate >= FreezeComplianceThreshold &&
		len(report.CriticalGaps) == 0 &&
		report.OpenCriticalConflicts == 0

	return report, nil
}
