package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

func seedConflict(t *testing.T, st *storetest.MemoryStore, eventID string, mutate func(*models.Conflict)) *models.Conflict {
	t.Helper()
	c := &models.Conflict{
		EventID:         eventID,
		Type:            models.ConflictTypeUnassignedCritical,
		Severity:        models.SeverityCritical,
		Status:          models.ConflictOpen,
		ResolutionClass: models.ResolutionFixInPlan,
		Fingerprint:     "test:" + eventID,
	}
	if mutate != nil {
		mutate(c)
	}
	if err := st.Conflicts().Create(context.Background(), c); err != nil {
		t.Fatalf("seeding conflict: %v", err)
	}
	return c
}

func TestLifecycleTransitions(t *testing.T) {
	actions := map[string]func(*Lifecycle, context.Context, string, string) (*models.Conflict, error){
		"acknowledge": func(l *Lifecycle, ctx context.Context, eventID, id string) (*models.Conflict, error) {
			return l.Acknowledge(ctx, eventID, id, "host-1")
		},
		"delegate": func(l *Lifecycle, ctx context.Context, eventID, id string) (*models.Conflict, error) {
			return l.Delegate(ctx, eventID, id, "host-1", "person-9")
		},
		"dismiss": func(l *Lifecycle, ctx context.Context, eventID, id string) (*models.Conflict, error) {
			return l.Dismiss(ctx, eventID, id, "host-1")
		},
		"resolve": func(l *Lifecycle, ctx context.Context, eventID, id string) (*models.Conflict, error) {
			return l.Resolve(ctx, eventID, id, "host-1")
		},
	}

	tests := []struct {
		name       string
		from       models.ConflictStatus
		action     string
		wantStatus models.ConflictStatus
		wantErr    error
	}{
		{"open acknowledge", models.ConflictOpen, "acknowledge", models.ConflictAcknowledged, nil},
		{"open delegate", models.ConflictOpen, "delegate", models.ConflictDelegated, nil},
		{"open dismiss", models.ConflictOpen, "dismiss", models.ConflictDismissed, nil},
		{"open resolve", models.ConflictOpen, "resolve", models.ConflictResolved, nil},
		{"acknowledged delegate", models.ConflictAcknowledged, "delegate", models.ConflictDelegated, nil},
		{"acknowledged dismiss", models.ConflictAcknowledged, "dismiss", models.ConflictDismissed, nil},
		{"acknowledged resolve", models.ConflictAcknowledged, "resolve", models.ConflictResolved, nil},
		{"delegated resolve", models.ConflictDelegated, "resolve", models.ConflictResolved, nil},
		{"delegated dismiss", models.ConflictDelegated, "dismiss", models.ConflictDismissed, nil},
		{"dismissed restamp", models.ConflictDismissed, "dismiss", models.ConflictDismissed, nil},
		{"resolved restamp", models.ConflictResolved, "resolve", models.ConflictResolved, nil},
		{"dismissed resolve", models.ConflictDismissed, "resolve", "", ErrInvalidTransition},
		{"resolved dismiss", models.ConflictResolved, "dismiss", "", ErrInvalidTransition},
		{"dismissed acknowledge", models.ConflictDismissed, "acknowledge", "", ErrInvalidTransition},
		{"resolved delegate", models.ConflictResolved, "delegate", "", ErrInvalidTransition},
		{"dismissed delegate", models.ConflictDismissed, "delegate", "", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storetest.NewMemoryStore()
			event := seedEvent(t, st, models.EventStatusPlanning)
			c := seedConflict(t, st, event.ID, func(c *models.Conflict) {
				c.Status = tt.from
				c.CanDelegate = true
			})

			lc := NewLifecycle(st, nil)
			got, err := actions[tt.action](lc, context.Background(), event.ID, c.ID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("%s: %v", tt.action, err)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestLifecycleCrossEventIsForbidden(t *testing.T) {
	st := storetest.NewMemoryStore()
	eventA := seedEvent(t, st, models.EventStatusPlanning)
	eventB := seedEvent(t, st, models.EventStatusPlanning)
	c := seedConflict(t, st, eventA.ID, nil)

	lc := NewLifecycle(st, nil)
	_, err := lc.Resolve(context.Background(), eventB.ID, c.ID, "host-2")
	if !errors.Is(err, ErrWrongEvent) {
		t.Errorf("err = %v, want ErrWrongEvent", err)
	}
}

func TestLifecycleUnknownConflict(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)

	lc := NewLifecycle(st, nil)
	_, err := lc.Acknowledge(context.Background(), event.ID, "missing", "host-1")
	if !errors.Is(err, ErrConflictNotFound) {
		t.Errorf("err = %v, want ErrConflictNotFound", err)
	}
}

func TestDelegateRequiresDelegatableConflict(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	c := seedConflict(t, st, event.ID, func(c *models.Conflict) { c.CanDelegate = false })

	lc := NewLifecycle(st, nil)
	_, err := lc.Delegate(context.Background(), event.ID, c.ID, "host-1", "person-9")
	if !errors.Is(err, ErrNotDelegatable) {
		t.Errorf("err = %v, want ErrNotDelegatable", err)
	}
}

func TestAcknowledgeSupersedesPriorAck(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	c := seedConflict(t, st, event.ID, nil)

	ctx := context.Background()
	lc := NewLifecycle(st, nil)
	if _, err := lc.Acknowledge(ctx, event.ID, c.ID, "first"); err != nil {
		t.Fatalf("first Acknowledge: %v", err)
	}
	if _, err := lc.Acknowledge(ctx, event.ID, c.ID, "second"); err != nil {
		t.Fatalf("second Acknowledge: %v", err)
	}

	active, err := st.Acknowledgements().ListActiveByConflict(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListActiveByConflict: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active acks = %d, want 1", len(active))
	}
	if active[0].AckedBy != "second" {
		t.Errorf("active ack by %s, want second", active[0].AckedBy)
	}
}

func TestAcknowledgeDoesNotRegressDelegated(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedEvent(t, st, models.EventStatusPlanning)
	c := seedConflict(t, st, event.ID, func(c *models.Conflict) {
		c.Status = models.ConflictDelegated
		c.CanDelegate = true
	})

	ctx := context.Background()
	lc := NewLifecycle(st, nil)
	got, err := lc.Acknowledge(ctx, event.ID, c.ID, "host-1")
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if got.Status != models.ConflictDelegated {
		t.Errorf("status = %s, want delegated to stay", got.Status)
	}

	active, err := st.Acknowledgements().ListActiveByConflict(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListActiveByConflict: %v", err)
	}
	if len(active) != 1 {
		t.Errorf("active acks = %d, want the ack recorded anyway", len(active))
	}
}
