package workflow

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

// seedResponses creates one non-critical item plus assignment per response.
func seedResponses(t *testing.T, st *storetest.MemoryStore, eventID, teamID string, responses []models.ResponseStatus) {
	t.Helper()
	for i, resp := range responses {
		item := seedItem(t, st, eventID, teamID, func(it *models.Item) {
			it.Name = fmt.Sprintf("item-%d", i)
		})
		person := seedPerson(t, st, eventID, fmt.Sprintf("person-%d", i))
		seedAssignment(t, st, eventID, item.ID, person.ID, resp)
	}
}

func TestFreezeReadinessComplianceRate(t *testing.T) {
	accepted := models.ResponseAccepted
	pending := models.ResponsePending
	declined := models.ResponseDeclined

	tests := []struct {
		name       string
		responses  []models.ResponseStatus
		wantRate   float64
		wantFreeze bool
	}{
		{"no assignments is vacuously compliant", nil, 1.0, true},
		{"all accepted", []models.ResponseStatus{accepted, accepted}, 1.0, true},
		{"exactly at threshold passes", []models.ResponseStatus{accepted, accepted, accepted, accepted, pending}, 0.8, true},
		{"below threshold fails", []models.ResponseStatus{accepted, accepted, accepted, pending, pending}, 0.6, false},
		{"declines count against the rate", []models.ResponseStatus{accepted, declined}, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storetest.NewMemoryStore()
			event := seedEvent(t, st, models.EventStatusConfirming)
			team := seedTeam(t, st, event.ID)
			seedResponses(t, st, event.ID, team.ID, tt.responses)

			r := NewReadiness(st, nil)
			report, err := r.Check(context.Background(), event.ID)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if math.Abs(report.ComplianceRate-tt.wantRate) > 1e-9 {
				t.Errorf("ComplianceRate = %v, want %v", report.ComplianceRate, tt.wantRate)
			}
			if report.CanFreeze != tt.wantFreeze {
				t.Errorf("CanFreeze = %v, want %v", report.CanFreeze, tt.wantFreeze)
			}
			if report.TotalAssignments != len(tt.responses) {
				t.Errorf("TotalAssignments = %d, want %d", report.TotalAssignments, len(tt.responses))
			}
		})
	}
}

func TestFreezeReadinessCriticalGaps(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusConfirming)
	team := seedTeam(t, st, event.ID)

	unassigned := seedItem(t, st, event.ID, team.ID, func(i *models.Item) {
		i.Name = "Turkey"
		i.Critical = true
	})
	declined := seedItem(t, st, event.ID, team.ID, func(i *models.Item) {
		i.Name = "Firewood"
		i.Critical = true
	})
	person := seedPerson(t, st, event.ID, "Dana")
	seedAssignment(t, st, event.ID, declined.ID, person.ID, models.ResponseDeclined)

	r := NewReadiness(st, nil)
	report, err := r.Check(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.CanFreeze {
		t.Error("CanFreeze = true with critical gaps")
	}
	if len(report.CriticalGaps) != 2 {
		t.Fatalf("gaps = %d, want 2", len(report.CriticalGaps))
	}
	reasons := map[string]string{}
	for _, g := range report.CriticalGaps {
		reasons[g.ItemID] = g.Reason
	}
	if reasons[unassigned.ID] != "unassigned" {
		t.Errorf("gap reason for unassigned item = %q", reasons[unassigned.ID])
	}
	if reasons[declined.ID] != "declined" {
		t.Errorf("gap reason for declined item = %q", reasons[declined.ID])
	}
}

func TestFreezeReadinessOpenCriticalConflictBlocks(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusConfirming)
	seedConflict(t, st, event.ID, nil)

	r := NewReadiness(st, nil)
	report, err := r.Check(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if report.OpenCriticalConflicts != 1 {
		t.Errorf("OpenCriticalConflicts = %d, want 1", report.OpenCriticalConflicts)
	}
	if report.CanFreeze {
		t.Error("CanFreeze = true with an open critical conflict")
	}

	// Dismissed conflicts stop counting.
	lc := NewLifecycle(st, nil)
	conflicts, _ := st.Conflicts().ListByEvent(context.Background(), event.ID)
	if _, err := lc.Dismiss(context.Background(), event.ID, conflicts[0].ID, "host-1"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	report, err = r.Check(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Check after dismiss: %v", err)
	}
	if report.OpenCriticalConflicts != 0 {
		t.Errorf("OpenCriticalConflicts after dismiss = %d, want 0", report.OpenCriticalConflicts)
	}
	if !report.CanFreeze {
		t.Error("CanFreeze = false after the last critical conflict was dismissed")
	}
}

// TestFreezeReadinessRateProperty checks that for any mix of responses with no
// critical items or conflicts, the report's counts are consistent and
// CanFreeze tracks the threshold comparison exactly.
func TestFreezeReadinessRateProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genResponses := gen.SliceOf(gen.OneConstOf(
		models.ResponseAccepted,
		models.ResponsePending,
		models.ResponseDeclined,
	))

	properties.Property("counts sum and threshold decides freeze", prop.ForAll(
		func(responses []models.ResponseStatus) bool {
			st := storetest.NewMemoryStore()
			event := seedEvent(t, st, models.EventStatusConfirming)
			team := seedTeam(t, st, event.ID)
			seedResponses(t, st, event.ID, team.ID, responses)

			r := NewReadiness(st, nil)
			report, err := r.Check(context.Background(), event.ID)
			if err != nil {
				return false
			}
			sum := report.AcceptedAssignments + report.PendingAssignments + report.DeclinedAssignments
			if sum != report.TotalAssignments || report.TotalAssignments != len(responses) {
				return false
			}
			return report.CanFreeze == (report.ComplianceRate >= FreezeComplianceThreshold)
		},
		genResponses,
	))

	properties.TestingRun(t)
}
