package entitlement

import (
	"context"
	"errors"
	"testing"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

func seedUser(t *testing.T, st *storetest.MemoryStore, status models.BillingStatus) *models.User {
	t.Helper()
	user, err := st.Users().Create(context.Background(), "host@example.com", "secret-password", "Host")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	if err := st.Users().SetBillingStatus(context.Background(), user.ID, status); err != nil {
		t.Fatalf("setting billing status: %v", err)
	}
	user.BillingStatus = status
	return user
}

func seedHostedEvent(t *testing.T, st *storetest.MemoryStore, hostID string, legacy bool) *models.Event {
	t.Helper()
	event := &models.Event{Name: "Reunion", HostID: hostID, Status: models.EventStatusPlanning, IsLegacy: legacy}
	if err := st.Events().Create(context.Background(), event); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return event
}

func TestCanCreateEventByBillingStatus(t *testing.T) {
	tests := []struct {
		status models.BillingStatus
		want   bool
	}{
		{models.BillingTrialing, true},
		{models.BillingActive, true},
		{models.BillingPastDue, false},
		{models.BillingCanceled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			st := storetest.NewMemoryStore()
			user := seedUser(t, st, tt.status)

			svc := NewService(st, 1, nil)
			got, err := svc.CanCreateEvent(context.Background(), user.ID)
			if err != nil {
				t.Fatalf("CanCreateEvent: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanCreateEvent(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestFreeTierEventCap(t *testing.T) {
	st := storetest.NewMemoryStore()
	user := seedUser(t, st, models.BillingFree)

	ctx := context.Background()
	svc := NewService(st, 1, nil)

	ok, err := svc.CanCreateEvent(ctx, user.ID)
	if err != nil {
		t.Fatalf("CanCreateEvent: %v", err)
	}
	if !ok {
		t.Fatal("free host with no events should be able to create one")
	}

	seedHostedEvent(t, st, user.ID, false)
	ok, err = svc.CanCreateEvent(ctx, user.ID)
	if err != nil {
		t.Fatalf("CanCreateEvent at cap: %v", err)
	}
	if ok {
		t.Error("free host at the cap should be blocked")
	}
}

func TestFreeTierCapIgnoresLegacyAndArchived(t *testing.T) {
	st := storetest.NewMemoryStore()
	user := seedUser(t, st, models.BillingFree)

	ctx := context.Background()
	seedHostedEvent(t, st, user.ID, true)
	archived := seedHostedEvent(t, st, user.ID, false)
	if err := st.Events().SetArchived(ctx, archived.ID, true); err != nil {
		t.Fatalf("SetArchived: %v", err)
	}

	svc := NewService(st, 1, nil)
	ok, err := svc.CanCreateEvent(ctx, user.ID)
	if err != nil {
		t.Fatalf("CanCreateEvent: %v", err)
	}
	if !ok {
		t.Error("legacy and archived events must not count toward the cap")
	}
}

func TestCanEditEventLegacyExemption(t *testing.T) {
	tests := []struct {
		name   string
		status models.BillingStatus
		legacy bool
		want   bool
	}{
		{"past due non-legacy blocked", models.BillingPastDue, false, false},
		{"past due legacy exempt", models.BillingPastDue, true, true},
		{"canceled legacy exempt", models.BillingCanceled, true, true},
		{"active non-legacy allowed", models.BillingActive, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := storetest.NewMemoryStore()
			user := seedUser(t, st, tt.status)
			event := seedHostedEvent(t, st, user.ID, tt.legacy)

			svc := NewService(st, 1, nil)
			got, err := svc.CanEditEvent(context.Background(), event)
			if err != nil {
				t.Fatalf("CanEditEvent: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanEditEvent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireHelpersReturnErrNotEntitled(t *testing.T) {
	st := storetest.NewMemoryStore()
	user := seedUser(t, st, models.BillingCanceled)
	event := seedHostedEvent(t, st, user.ID, false)

	ctx := context.Background()
	svc := NewService(st, 1, nil)
	if err := svc.RequireCreateEvent(ctx, user.ID); !errors.Is(err, ErrNotEntitled) {
		t.Errorf("RequireCreateEvent err = %v, want ErrNotEntitled", err)
	}
	if err := svc.RequireEditEvent(ctx, event); !errors.Is(err, ErrNotEntitled) {
		t.Errorf("RequireEditEvent err = %v, want ErrNotEntitled", err)
	}
}

func TestCanCreateEventUnknownUser(t *testing.T) {
	st := storetest.NewMemoryStore()
	svc := NewService(st, 1, nil)
	if _, err := svc.CanCreateEvent(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}
