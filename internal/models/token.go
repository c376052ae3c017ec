package models

import (
	"time"
)

// TokenScope is the capability level an access token grants within its event.
type TokenScope string

const (
	// ScopeHost grants full control over the event.
	ScopeHost TokenScope = "host"
	// ScopeCoordinator grants team-level coordination actions.
	ScopeCoordinator TokenScope = "coordinator"
)

// AccessToken is an opaque bearer capability bound to exactly one event and
// one scope, optionally pinned to a person or team. Possession is
// authorization at that scope; no separate login is required.
type AccessToken struct {
	ID        string     `json:"id"`
	TokenHash string     `json:"-"`
	EventID   string     `json:"event_id"`
	Scope     TokenScope `json:"scope"`
	PersonID  *string    `json:"person_id,omitempty"`
	TeamID    *string    `json:"team_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired reports whether the token has passed its expiry, if it has one.
func (t *AccessToken) IsExpired() bool {
	return t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt)
}
