package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

func seedResolverEvent(t *testing.T, st *storetest.MemoryStore, hostID string) *models.Event {
	t.Helper()
	event := &models.Event{Name: "Campout", HostID: hostID, Status: models.EventStatusPlanning}
	if err := st.Events().Create(context.Background(), event); err != nil {
		t.Fatalf("seeding event: %v", err)
	}
	return event
}

func TestMintAndResolveEventToken(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedResolverEvent(t, st, "host-1")

	ctx := context.Background()
	r := NewResolver(st, nil)
	personID := "person-1"
	raw, err := r.MintEventToken(ctx, &models.AccessToken{
		EventID:  event.ID,
		Scope:    models.ScopeCoordinator,
		PersonID: &personID,
	})
	if err != nil {
		t.Fatalf("MintEventToken: %v", err)
	}
	if !strings.HasPrefix(raw, "evt_") {
		t.Errorf("raw token %q missing evt_ prefix", raw)
	}

	actor, err := r.ResolveToken(ctx, raw)
	if err != nil {
		t.Fatalf("ResolveToken: %v", err)
	}
	if actor == nil {
		t.Fatal("minted token did not resolve")
	}
	if actor.Kind != CredentialEventToken {
		t.Errorf("kind = %s, want event_token", actor.Kind)
	}
	if actor.EventID != event.ID || actor.Scope != models.ScopeCoordinator {
		t.Errorf("actor = %+v, want event %s at coordinator scope", actor, event.ID)
	}
	if actor.PersonID != personID {
		t.Errorf("PersonID = %s, want %s", actor.PersonID, personID)
	}
}

func TestResolveTokenSoftFailures(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedResolverEvent(t, st, "host-1")

	ctx := context.Background()
	r := NewResolver(st, nil)

	expired := time.Now().Add(-time.Minute)
	raw, err := r.MintEventToken(ctx, &models.AccessToken{
		EventID:   event.ID,
		Scope:     models.ScopeHost,
		ExpiresAt: &expired,
	})
	if err != nil {
		t.Fatalf("MintEventToken: %v", err)
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"unknown", "evt_nonsense"},
		{"expired", raw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor, err := r.ResolveToken(ctx, tt.raw)
			if err != nil {
				t.Fatalf("ResolveToken: %v", err)
			}
			if actor != nil {
				t.Errorf("actor = %+v, want nil", actor)
			}
		})
	}
}

func TestRequireEventRole(t *testing.T) {
	st := storetest.NewMemoryStore()
	eventA := seedResolverEvent(t, st, "host-1")
	eventB := seedResolverEvent(t, st, "host-2")

	coordinatorA := &ActorContext{Kind: CredentialEventToken, EventID: eventA.ID, Scope: models.ScopeCoordinator}
	hostTokenA := &ActorContext{Kind: CredentialEventToken, EventID: eventA.ID, Scope: models.ScopeHost}
	sessionHost1 := &ActorContext{Kind: CredentialSession, Scope: models.ScopeHost, UserID: "host-1"}

	tests := []struct {
		name    string
		actor   *ActorContext
		eventID string
		allowed []models.TokenScope
		wantErr error
	}{
		{"coordinator token on coordinator route", coordinatorA, eventA.ID, []models.TokenScope{models.ScopeCoordinator}, nil},
		{"coordinator token on host route", coordinatorA, eventA.ID, []models.TokenScope{models.ScopeHost}, ErrForbidden},
		{"host token subsumes coordinator", hostTokenA, eventA.ID, []models.TokenScope{models.ScopeCoordinator}, nil},
		{"token replayed against other event", coordinatorA, eventB.ID, []models.TokenScope{models.ScopeCoordinator}, ErrForbidden},
		{"session host on own event", sessionHost1, eventA.ID, []models.TokenScope{models.ScopeHost}, nil},
		{"session host on someone else's event", sessionHost1, eventB.ID, []models.TokenScope{models.ScopeHost}, ErrForbidden},
		{"no actor", nil, eventA.ID, []models.TokenScope{models.ScopeHost}, ErrUnauthorized},
	}

	r := NewResolver(st, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := tt.actor
			if actor != nil {
				copied := *actor
				actor = &copied
			}
			err := r.RequireEventRole(context.Background(), actor, tt.eventID, tt.allowed...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireEventRoleBindsSessionToEvent(t *testing.T) {
	st := storetest.NewMemoryStore()
	event := seedResolverEvent(t, st, "host-1")

	actor := &ActorContext{Kind: CredentialSession, Scope: models.ScopeHost, UserID: "host-1"}
	r := NewResolver(st, nil)
	if err := r.RequireEventRole(context.Background(), actor, event.ID, models.ScopeHost); err != nil {
		t.Fatalf("RequireEventRole: %v", err)
	}
	if actor.EventID != event.ID {
		t.Errorf("EventID = %s, want the checked event bound", actor.EventID)
	}
}

func TestActorLabel(t *testing.T) {
	tests := []struct {
		name  string
		actor ActorContext
		want  string
	}{
		{"session uses user ID", ActorContext{UserID: "user-1"}, "user-1"},
		{"pinned token uses person ID", ActorContext{PersonID: "person-1"}, "person-1"},
		{"bare token uses scope and event", ActorContext{Scope: models.ScopeCoordinator, EventID: "evt-1"}, "coordinator:evt-1"},
	}
	for _, tt := range tests {
		if got := tt.actor.ActorLabel(); got != tt.want {
			t.Errorf("%s: ActorLabel() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
