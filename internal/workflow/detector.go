package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// detectorActor is stamped on conflicts the detector auto-resolves when their
// underlying cause disappears from the plan.
const detectorActor = "detector"

// Detector scans an event's plan graph for constraint violations and
// reconciles them against the existing conflict set.
type Detector struct {
	store  store.Store
	logger *slog.Logger
}

// NewDetector creates a new conflict detector.
func NewDetector(st store.Store, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{store: st, logger: logger}
}

// candidate is a detected violation before reconciliation.
type candidate struct {
	Type            string
	Severity        models.ConflictSeverity
	ResolutionClass models.ResolutionClass
	CanDelegate     bool
	AffectedItemIDs []string
	Fingerprint     string
	SuggestedFix    string
}

// Detect runs one detection pass for the event and returns the event's
// conflicts after reconciliation. Detection is additive-reconciling:
// re-running it on unchanged input creates no duplicates, and dismissed or
// resolved conflicts are never resurrected for the same underlying cause.
func (d *Detector) Detect(ctx context.Context, eventID string) ([]*models.Conflict, error) {
	event, err := d.store.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	candidates, err := d.scan(ctx, eventID)
	if err != nil {
		return nil, err
	}

	existing, err := d.store.Conflicts().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	// Index existing conflicts by fingerprint. Terminal rows keep their
	// fingerprint claimed so the same cause cannot reopen.
	byFingerprint := make(map[string]*models.Conflict, len(existing))
	for _, c := range existing {
		byFingerprint[c.Fingerprint] = c
	}

	live := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		live[cand.Fingerprint] = true

		if _, ok := byFingerprint[cand.Fingerprint]; ok {
			// Known cause: leave the row alone whatever its status.
			continue
		}

		conflict := &models.Conflict{
			EventID:         eventID,
			Type:            cand.Type,
			Severity:        cand.Severity,
			Status:          models.ConflictOpen,
			ResolutionClass: cand.ResolutionClass,
			CanDelegate:     cand.CanDelegate,
			AffectedItemIDs: cand.AffectedItemIDs,
			Fingerprint:     cand.Fingerprint,
			SuggestedFix:    cand.SuggestedFix,
		}
		if err := d.store.Conflicts().Create(ctx, conflict); err != nil {
			return nil, fmt.Errorf("creating conflict: %w", err)
		}
	}

	// Auto-resolve non-terminal conflicts whose cause disappeared.
	now := time.Now()
	actor := detectorActor
	for _, c := range existing {
		if c.Status.IsTerminal() || live[c.Fingerprint] {
			continue
		}
		c.Status = models.ConflictResolved
		c.ResolvedBy = &actor
		c.ResolvedAt = &now
		if err := d.store.Conflicts().Update(ctx, c); err != nil {
			return nil, fmt.Errorf("auto-resolving conflict: %w", err)
		}
	}

	return d.store.Conflicts().ListByEvent(ctx, eventID)
}

// scan walks the event graph and emits violation candidates.
func (d *Detector) scan(ctx context.Context, eventID string) ([]candidate, error) {
	items, err := d.store.Items().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	assignments, err := d.store.Assignments().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	days, err := d.store.Days().ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byItem := make(map[string]*models.Assignment, len(assignments))
	for _, a := range assignments {
		byItem[a.ItemID] = a
	}
	itemsByID := make(map[string]*models.Item, len(items))
	for _, it := range items {
		itemsByID[it.ID] = it
	}

	var out []candidate

	for _, it := range items {
		a := byItem[it.ID]

		if it.Critical && a == nil {
			out = append(out, candidate{
				Type:            models.ConflictTypeUnassignedCritical,
				Severity:        models.SeverityCritical,
				ResolutionClass: models.ResolutionFixInPlan,
				AffectedItemIDs: []string{it.ID},
				Fingerprint:     models.ConflictTypeUnassignedCritical + ":" + it.ID,
				SuggestedFix:    fmt.Sprintf("Assign %q to someone before freezing", it.Name),
			})
		}

		if it.Critical && a != nil && a.Response == models.ResponseDeclined {
			out = append(out, candidate{
				Type:            models.ConflictTypeDeclinedCritical,
				Severity:        models.SeverityCritical,
				ResolutionClass: models.ResolutionFixInPlan,
				AffectedItemIDs: []string{it.ID},
				Fingerprint:     models.ConflictTypeDeclinedCritical + ":" + it.ID,
				SuggestedFix:    fmt.Sprintf("Reassign %q: the current assignee declined", it.Name),
			})
		}

		if it.AIGenerated && !it.UserConfirmed {
			out = append(out, candidate{
				Type:            models.ConflictTypeUnconfirmedAI,
				Severity:        models.SeverityWarning,
				ResolutionClass: models.ResolutionFixInPlan,
				AffectedItemIDs: []string{it.ID},
				Fingerprint:     models.ConflictTypeUnconfirmedAI + ":" + it.ID,
				SuggestedFix:    fmt.Sprintf("Review the suggested item %q", it.Name),
			})
		}

		if len(days) > 0 && it.DayID == nil {
			out = append(out, candidate{
				Type:            models.ConflictTypeItemWithoutDay,
				Severity:        models.SeverityInfo,
				ResolutionClass: models.ResolutionFixInPlan,
				AffectedItemIDs: []string{it.ID},
				Fingerprint:     models.ConflictTypeItemWithoutDay + ":" + it.ID,
				SuggestedFix:    fmt.Sprintf("Pick a day for %q", it.Name),
			})
		}
	}

	// Double-booked: one person holding two or more assignments on the same day.
	type personDay struct{ person, day string }
	booked := make(map[personDay][]string)
	for _, a := range assignments {
		it := itemsByID[a.ItemID]
		if it == nil || it.DayID == nil || a.Response == models.ResponseDeclined {
			continue
		}
		key := personDay{person: a.PersonID, day: *it.DayID}
		booked[key] = append(booked[key], it.ID)
	}
	for key, itemIDs := range booked {
		if len(itemIDs) < 2 {
			continue
		}
		out = append(out, candidate{
			Type:            models.ConflictTypeDoubleBooked,
			Severity:        models.SeverityWarning,
			ResolutionClass: models.ResolutionManualOnly,
			CanDelegate:     true,
			AffectedItemIDs: itemIDs,
			Fingerprint:     models.ConflictTypeDoubleBooked + ":" + key.person + ":" + key.day,
			SuggestedFix:    "Spread these duties across people or days",
		})
	}

	return out, nil
}
