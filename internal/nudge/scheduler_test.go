package nudge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gatherworks/coordinator/internal/invitelog"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

// recordingSMS captures sends; numbers in failFor error instead.
type recordingSMS struct {
	sent    []string
	failFor map[string]bool
}

func (s *recordingSMS) SendSMS(ctx context.Context, phone, body string) error {
	if s.failFor[phone] {
		return errors.New("carrier rejected")
	}
	s.sent = append(s.sent, phone)
	return nil
}

type fixture struct {
	st    *storetest.MemoryStore
	sms   *recordingSMS
	event *models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := storetest.NewMemoryStore()
	event := &models.Event{Name: "Lake Trip", HostID: "host-1", Status: models.EventStatusConfirming}
	if err := st.Events().Create(context.Background(), event); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return &fixture{st: st, sms: &recordingSMS{failFor: map[string]bool{}}, event: event}
}

// addPerson creates a person with a pending assignment, anchored long enough
// ago to be nudge-eligible unless anchor is overridden.
func (f *fixture) addPerson(t *testing.T, name, phone string, anchor *time.Time) *models.Person {
	t.Helper()
	ctx := context.Background()
	p := &models.Person{EventID: f.event.ID, Name: name, Phone: phone, InviteAnchorAt: anchor}
	if err := f.st.People().Create(ctx, p); err != nil {
		t.Fatalf("seeding person: %v", err)
	}
	item := &models.Item{EventID: f.event.ID, TeamID: "team-1", Name: "item for " + name}
	if err := f.st.Items().Create(ctx, item); err != nil {
		t.Fatalf("seeding item: %v", err)
	}
	a := &models.Assignment{EventID: f.event.ID, ItemID: item.ID, PersonID: p.ID, Response: models.ResponsePending}
	if err := f.st.Assignments().Create(ctx, a); err != nil {
		t.Fatalf("seeding assignment: %v", err)
	}
	return p
}

func (f *fixture) scheduler(policy Policy) *Scheduler {
	return NewScheduler(f.st, f.sms, invitelog.New(f.st, nil), policy, nil)
}

func longAgo() *time.Time {
	t := time.Now().Add(-96 * time.Hour)
	return &t
}

func TestRunNudgesEligiblePerson(t *testing.T) {
	f := newFixture(t)
	person := f.addPerson(t, "Alice", "+15550001111", longAgo())

	report, err := f.scheduler(DefaultPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.NudgesSent != 1 {
		t.Fatalf("NudgesSent = %d, want 1", report.NudgesSent)
	}
	if len(f.sms.sent) != 1 || f.sms.sent[0] != "+15550001111" {
		t.Errorf("sent to %v, want the person's phone", f.sms.sent)
	}

	// The send lands in the invite audit trail.
	trail, err := f.st.InviteEvents().ListByEvent(context.Background(), f.event.ID)
	if err != nil {
		t.Fatalf("ListByEvent: %v", err)
	}
	if len(trail) != 1 || trail[0].Type != models.InviteEventNudgeSent {
		t.Fatalf("trail = %+v, want one nudge_sent row", trail)
	}
	if trail[0].PersonID == nil || *trail[0].PersonID != person.ID {
		t.Errorf("trail person = %v, want %s", trail[0].PersonID, person.ID)
	}
}

func TestRunIsIdempotentWithinRepeatWindow(t *testing.T) {
	f := newFixture(t)
	f.addPerson(t, "Alice", "+15550001111", longAgo())

	ctx := context.Background()
	s := f.scheduler(DefaultPolicy())
	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	report, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.NudgesSent != 0 {
		t.Errorf("second run sent %d nudges, want 0", report.NudgesSent)
	}
	if len(f.sms.sent) != 1 {
		t.Errorf("total sends = %d, want 1", len(f.sms.sent))
	}
}

func TestRunSkipsIneligiblePeople(t *testing.T) {
	f := newFixture(t)
	recent := time.Now().Add(-time.Hour)

	f.addPerson(t, "NoPhone", "", longAgo())
	f.addPerson(t, "TooRecent", "+15550002222", &recent)
	f.addPerson(t, "NoAnchor", "+15550003333", nil)

	// Answered people have nothing pending.
	ctx := context.Background()
	answered := f.addPerson(t, "Answered", "+15550004444", longAgo())
	assignments, _ := f.st.Assignments().ListByEvent(ctx, f.event.ID)
	for _, a := range assignments {
		if a.PersonID == answered.ID {
			if err := f.st.Assignments().SetResponse(ctx, a.ID, models.ResponseAccepted, time.Now()); err != nil {
				t.Fatalf("SetResponse: %v", err)
			}
		}
	}

	report, err := f.scheduler(DefaultPolicy()).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.NudgesSent != 0 {
		t.Errorf("NudgesSent = %d, want 0, sent to %v", report.NudgesSent, f.sms.sent)
	}
}

func TestRunOnlyScansConfirmingEvents(t *testing.T) {
	f := newFixture(t)
	f.addPerson(t, "Alice", "+15550001111", longAgo())
	if err := f.st.Events().SetStatus(context.Background(), f.event.ID, models.EventStatusPlanning); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	report, err := f.scheduler(DefaultPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.EventsScanned != 0 || report.NudgesSent != 0 {
		t.Errorf("report = %+v, want nothing scanned", report)
	}
}

func TestRunRespectsMaxPerRun(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.addPerson(t, fmt.Sprintf("p%d", i), fmt.Sprintf("+1555000%04d", i), longAgo())
	}

	policy := DefaultPolicy()
	policy.MaxPerRun = 2
	report, err := f.scheduler(policy).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.NudgesSent != 2 {
		t.Errorf("NudgesSent = %d, want the cap", report.NudgesSent)
	}
}

func TestRunCountsSendFailuresAndContinues(t *testing.T) {
	f := newFixture(t)
	f.addPerson(t, "Failing", "+15550009999", longAgo())
	f.addPerson(t, "Working", "+15550001111", longAgo())
	f.sms.failFor["+15550009999"] = true

	report, err := f.scheduler(DefaultPolicy()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.SendFailures != 1 {
		t.Errorf("SendFailures = %d, want 1", report.SendFailures)
	}
	if report.NudgesSent != 1 {
		t.Errorf("NudgesSent = %d, want the working number still nudged", report.NudgesSent)
	}

	// Failed sends leave no audit row, so the next pass retries them.
	trail, _ := f.st.InviteEvents().ListByEvent(context.Background(), f.event.ID)
	if len(trail) != 1 {
		t.Errorf("trail rows = %d, want 1", len(trail))
	}
}
