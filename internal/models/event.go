// Package models provides data structures for the coordinator platform.
package models

import (
	"time"
)

// EventStatus represents the workflow state of an event plan.
type EventStatus string

const (
	// EventStatusDraft indicates the event has been created but not yet planned.
	EventStatusDraft EventStatus = "draft"
	// EventStatusPlanning indicates the host is actively building the plan.
	EventStatusPlanning EventStatus = "planning"
	// EventStatusConfirming indicates invites are out and responses are being collected.
	EventStatusConfirming EventStatus = "confirming"
	// EventStatusFrozen indicates the plan is locked from further edits.
	EventStatusFrozen EventStatus = "frozen"
)

// Event represents a multi-day group event owned by a host.
type Event struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	HostID string      `json:"host_id"`
	Status EventStatus `json:"status"`

	// Archived is a reversible soft-delete flag, orthogonal to Status.
	Archived bool `json:"archived"`

	// IsLegacy marks events grandfathered out of billing limits. Legacy
	// events stay editable regardless of the host's billing status.
	IsLegacy bool `json:"is_legacy"`

	// InviteSendConfirmedAt is stamped once when the host confirms invites
	// went out. First write wins; later confirmations do not move it.
	InviteSendConfirmedAt *time.Time `json:"invite_send_confirmed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanAdvanceFrom reports whether the event may attempt the transition out of
// the given status. Only confirming events are gate-checked into frozen.
func (e *Event) CanAdvanceFrom(status EventStatus) bool {
	return e.Status == status && !e.Archived
}

// Day represents one day of a multi-day event.
type Day struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	Date    time.Time `json:"date"`
	Label   string    `json:"label,omitempty"`
}
