package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

func seedEvent(t *testing.T, st *storetest.MemoryStore, status models.EventStatus) *models.Event {
	t.Helper()
	event := &models.Event{Name: "Cabin Weekend", HostID: "host-1", Status: status}
	if err := st.Events().Create(context.Background(), event); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return event
}

func seedTeam(t *testing.T, st *storetest.MemoryStore, eventID string) *models.Team {
	t.Helper()
	team := &models.Team{EventID: eventID, Name: "Kitchen"}
	if err := st.Teams().Create(context.Background(), team); err != nil {
		t.Fatalf("seeding team: %v", err)
	}
	return team
}

func seedItem(t *testing.T, st *storetest.MemoryStore, eventID, teamID string, mutate func(*models.Item)) *models.Item {
	t.Helper()
	item := &models.Item{EventID: eventID, TeamID: teamID, Name: "Turkey"}
	if mutate != nil {
		mutate(item)
	}
	if err := st.Items().Create(context.Background(), item); err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	return item
}

func seedPerson(t *testing.T, st *storetest.MemoryStore, eventID, name string) *models.Person {
	t.Helper()
	p := &models.Person{EventID: eventID, Name: name}
	if err := st.People().Create(context.Background(), p); err != nil {
		t.Fatalf("seeding person: %v", err)
	}
	return p
}

func seedAssignment(t *testing.T, st *storetest.MemoryStore, eventID, itemID, personID string, response models.ResponseStatus) *models.Assignment {
	t.Helper()
	a := &models.Assignment{EventID: eventID, ItemID: itemID, PersonID: personID, Response: response}
	if err := st.Assignments().Create(context.Background(), a); err != nil {
		t.Fatalf("seeding assignment: %v", err)
	}
	return a
}

func findConflict(conflicts []*models.Conflict, conflictType string) *models.Conflict {
	for _, c := range conflicts {
		if c.Type == conflictType {
			return c
		}
	}
	return nil
}

func TestDetectUnassignedCriticalItem(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	team := seedTeam(t, st, event.ID)
	item := seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Critical = true })

	d := NewDetector(st, nil)
	conflicts, err := d.Detect(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	c := findConflict(conflicts, models.ConflictTypeUnassignedCritical)
	if c == nil {
		t.Fatal("expected an unassigned critical conflict")
	}
	if c.Severity != models.SeverityCritical {
		t.Errorf("severity = %s, want critical", c.Severity)
	}
	if c.Status != models.ConflictOpen {
		t.Errorf("status = %s, want open", c.Status)
	}
	if len(c.AffectedItemIDs) != 1 || c.AffectedItemIDs[0] != item.ID {
		t.Errorf("affected items = %v, want [%s]", c.AffectedItemIDs, item.ID)
	}
}

func TestDetectRerunCreatesNoDuplicates(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	team := seedTeam(t, st, event.ID)
	seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Critical = true })

	d := NewDetector(st, nil)
	ctx := context.Background()
	first, err := d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("first Detect: %v", err)
	}
	second, err := d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("second Detect: %v", err)
	}
	if len(first) != len(second) {
		t.Errorf("conflict count changed across runs: %d then %d", len(first), len(second))
	}
}

func TestDetectDismissedConflictStaysDismissed(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	team := seedTeam(t, st, event.ID)
	seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Critical = true })

	ctx := context.Background()
	d := NewDetector(st, nil)
	conflicts, err := d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	c := findConflict(conflicts, models.ConflictTypeUnassignedCritical)
	if c == nil {
		t.Fatal("expected an unassigned critical conflict")
	}

	lc := NewLifecycle(st, nil)
	if _, err := lc.Dismiss(ctx, event.ID, c.ID, "host-1"); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}

	conflicts, err = d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("re-Detect: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("conflict count = %d, want 1", len(conflicts))
	}
	if conflicts[0].Status != models.ConflictDismissed {
		t.Errorf("status after re-detect = %s, want dismissed", conflicts[0].Status)
	}
}

func TestDetectAutoResolvesVanishedCause(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	team := seedTeam(t, st, event.ID)
	item := seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Critical = true })

	ctx := context.Background()
	d := NewDetector(st, nil)
	if _, err := d.Detect(ctx, event.ID); err != nil {
		t.Fatalf("Detect: %v", err)
	}

	// Assigning the item removes the cause.
	person := seedPerson(t, st, event.ID, "Alice")
	seedAssignment(t, st, event.ID, item.ID, person.ID, models.ResponseAccepted)

	conflicts, err := d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("re-Detect: %v", err)
	}
	c := findConflict(conflicts, models.ConflictTypeUnassignedCritical)
	if c == nil {
		t.Fatal("expected the conflict row to remain")
	}
	if c.Status != models.ConflictResolved {
		t.Fatalf("status = %s, want resolved", c.Status)
	}
	if c.ResolvedBy == nil || *c.ResolvedBy != "detector" {
		t.Errorf("resolved_by = %v, want detector", c.ResolvedBy)
	}
}

func TestDetectDeclinedCriticalItem(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusConfirming)
	team := seedTeam(t, st, event.ID)
	item := seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Critical = true })
	person := seedPerson(t, st, event.ID, "Bob")
	seedAssignment(t, st, event.ID, item.ID, person.ID, models.ResponseDeclined)

	d := NewDetector(st, nil)
	conflicts, err := d.Detect(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if findConflict(conflicts, models.ConflictTypeDeclinedCritical) == nil {
		t.Error("expected a declined critical conflict")
	}
	if findConflict(conflicts, models.ConflictTypeUnassignedCritical) != nil {
		t.Error("assigned item should not also count as unassigned")
	}
}

func TestDetectUnconfirmedAIItem(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	team := seedTeam(t, st, event.ID)
	seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.AIGenerated = true })

	d := NewDetector(st, nil)
	conflicts, err := d.Detect(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	c := findConflict(conflicts, models.ConflictTypeUnconfirmedAI)
	if c == nil {
		t.Fatal("expected an unconfirmed AI conflict")
	}
	if c.Severity != models.SeverityWarning {
		t.Errorf("severity = %s, want warning", c.Severity)
	}
}

func TestDetectItemWithoutDayRequiresDays(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	team := seedTeam(t, st, event.ID)
	seedItem(t, st, event.ID, team.ID, nil)

	ctx := context.Background()
	d := NewDetector(st, nil)
	conflicts, err := d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if findConflict(conflicts, models.ConflictTypeItemWithoutDay) != nil {
		t.Error("single-day events should not flag items without a day")
	}

	day := &models.Day{EventID: event.ID, Date: time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)}
	if err := st.Days().Create(ctx, day); err != nil {
		t.Fatalf("creating day: %v", err)
	}
	conflicts, err = d.Detect(ctx, event.ID)
	if err != nil {
		t.Fatalf("re-Detect: %v", err)
	}
	c := findConflict(conflicts, models.ConflictTypeItemWithoutDay)
	if c == nil {
		t.Fatal("expected an item-without-day conflict once days exist")
	}
	if c.Severity != models.SeverityInfo {
		t.Errorf("severity = %s, want info", c.Severity)
	}
}

func TestDetectDoubleBookedPerson(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusConfirming)
	team := seedTeam(t, st, event.ID)
	day := &models.Day{EventID: event.ID, Date: time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)}
	if err := st.Days().Create(context.Background(), day); err != nil {
		t.Fatalf("creating day: %v", err)
	}
	person := seedPerson(t, st, event.ID, "Carol")

	itemA := seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Name = "Grill"; i.DayID = &day.ID })
	itemB := seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Name = "Salad"; i.DayID = &day.ID })
	itemC := seedItem(t, st, event.ID, team.ID, func(i *models.Item) { i.Name = "Cleanup"; i.DayID = &day.ID })

	seedAssignment(t, st, event.ID, itemA.ID, person.ID, models.ResponseAccepted)
	seedAssignment(t, st, event.ID, itemB.ID, person.ID, models.ResponsePending)
	// Declined assignments do not book the person.
	seedAssignment(t, st, event.ID, itemC.ID, person.ID, models.ResponseDeclined)

	d := NewDetector(st, nil)
	conflicts, err := d.Detect(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	c := findConflict(conflicts, models.ConflictTypeDoubleBooked)
	if c == nil {
		t.Fatal("expected a double-booked conflict")
	}
	if !c.CanDelegate {
		t.Error("double-booked conflicts should be delegatable")
	}
	if c.ResolutionClass != models.ResolutionManualOnly {
		t.Errorf("resolution class = %s, want manual_only", c.ResolutionClass)
	}
	if len(c.AffectedItemIDs) != 2 {
		t.Errorf("affected items = %v, want the two non-declined bookings", c.AffectedItemIDs)
	}
}

func TestDetectUnknownEvent(t *testing.T) {
	st := storetest.NewMemoryStore()
	d := NewDetector(st, nil)
	if _, err := d.Detect(context.Background(), "missing"); err != ErrEventNotFound {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}
}
