package models

import (
	"time"
)

// Invite event types recorded in the audit trail.
const (
	InviteEventSendConfirmed  = "send_confirmed"
	InviteEventManualOverride = "manual_override"
	InviteEventNudgeSent      = "nudge_sent"
)

// InviteEvent is a best-effort audit row for invite lifecycle actions.
// Writing one must never block the user-facing action it is attached to.
type InviteEvent struct {
	ID       string            `json:"id"`
	EventID  string            `json:"event_id"`
	PersonID *string           `json:"person_id,omitempty"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// MagicLink is a single-use login link for host session bootstrap.
type MagicLink struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsValid reports whether the link can still be consumed.
func (m *MagicLink) IsValid() bool {
	return m.ConsumedAt == nil && time.Now().Before(m.ExpiresAt)
}
