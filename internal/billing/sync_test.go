package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

func seedUser(t *testing.T, st *storetest.MemoryStore) *models.User {
	t.Helper()
	user, err := st.Users().Create(context.Background(), "host@example.com", "secret-password", "Host")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user
}

func TestApplyProviderUpdateStatusMapping(t *testing.T) {
	tests := []struct {
		provider string
		want     models.BillingStatus
	}{
		{"trialing", models.BillingTrialing},
		{"active", models.BillingActive},
		{"past_due", models.BillingPastDue},
		{"canceled", models.BillingCanceled},
		{"unpaid", models.BillingCanceled},
		{"some_future_status", models.BillingCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			st := storetest.NewMemoryStore()
			user := seedUser(t, st)

			ctx := context.Background()
			s := NewSync(st, nil)
			err := s.ApplyProviderUpdate(ctx, &ProviderUpdate{
				UserID:                 user.ID,
				ProviderCustomerID:     "cus_123",
				ProviderSubscriptionID: "sub_456",
				Status:                 tt.provider,
			})
			if err != nil {
				t.Fatalf("ApplyProviderUpdate: %v", err)
			}

			got, err := st.Users().GetByID(ctx, user.ID)
			if err != nil {
				t.Fatalf("GetByID: %v", err)
			}
			if got.BillingStatus != tt.want {
				t.Errorf("billing status = %s, want %s", got.BillingStatus, tt.want)
			}
		})
	}
}

func TestApplyProviderUpdateUpsertsMirror(t *testing.T) {
	st := storetest.NewMemoryStore()
	user := seedUser(t, st)

	ctx := context.Background()
	s := NewSync(st, nil)
	first := &ProviderUpdate{UserID: user.ID, ProviderSubscriptionID: "sub_1", Status: "trialing"}
	if err := s.ApplyProviderUpdate(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	second := &ProviderUpdate{UserID: user.ID, ProviderSubscriptionID: "sub_1", Status: "active"}
	if err := s.ApplyProviderUpdate(ctx, second); err != nil {
		t.Fatalf("second update: %v", err)
	}

	sub, err := st.Subscriptions().GetByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if sub == nil || sub.Status != models.SubscriptionActive {
		t.Errorf("mirror = %+v, want active after second update", sub)
	}
}

func TestApplyProviderUpdateUnknownUser(t *testing.T) {
	st := storetest.NewMemoryStore()
	s := NewSync(st, nil)
	err := s.ApplyProviderUpdate(context.Background(), &ProviderUpdate{UserID: "missing", Status: "active"})
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGetStatus(t *testing.T) {
	st := storetest.NewMemoryStore()
	user := seedUser(t, st)

	ctx := context.Background()
	s := NewSync(st, nil)

	// Fresh user: free tier, no mirror.
	status, err := s.GetStatus(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.BillingStatus != models.BillingFree {
		t.Errorf("status = %s, want free", status.BillingStatus)
	}
	if status.Subscription != nil {
		t.Errorf("subscription = %+v, want nil", status.Subscription)
	}

	if err := s.ApplyProviderUpdate(ctx, &ProviderUpdate{UserID: user.ID, Status: "active"}); err != nil {
		t.Fatalf("ApplyProviderUpdate: %v", err)
	}
	status, err = s.GetStatus(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetStatus after sync: %v", err)
	}
	if status.BillingStatus != models.BillingActive || status.Subscription == nil {
		t.Errorf("status = %+v, want active with a mirror", status)
	}

	if _, err := s.GetStatus(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}
