package models

import (
	"time"
)

// Team groups related items within an event, optionally led by a coordinator.
type Team struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Name    string `json:"name"`

	// CoordinatorID references the Person coordinating this team, if any.
	CoordinatorID *string `json:"coordinator_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Item is a single duty or dish owned by a team. An item has at most one
// assignment and may be pinned to a specific day.
type Item struct {
	ID      string `json:"id"`
	TeamID  string `json:"team_id"`
	EventID string `json:"event_id"`
	Name    string `json:"name"`

	// DayID pins the item to a day of the event, if set.
	DayID *string `json:"day_id,omitempty"`

	// Critical items must be assigned (and confirmed) before the plan can freeze.
	Critical bool `json:"critical"`

	// AIGenerated marks auto-suggested content; UserConfirmed records that a
	// human reviewed and kept it.
	AIGenerated   bool `json:"ai_generated"`
	UserConfirmed bool `json:"user_confirmed"`

	// NeedsReview is set by the bulk mark-for-review operation.
	NeedsReview bool `json:"needs_review"`

	CreatedAt time.Time `json:"created_at"`
}

// ResponseStatus is an assignee's RSVP state for one assignment.
type ResponseStatus string

const (
	// ResponsePending indicates the assignee has not answered yet.
	ResponsePending ResponseStatus = "pending"
	// ResponseAccepted indicates the assignee accepted the assignment.
	ResponseAccepted ResponseStatus = "accepted"
	// ResponseDeclined indicates the assignee declined the assignment.
	ResponseDeclined ResponseStatus = "declined"
)

// ValidResponse reports whether s is a known response status.
func ValidResponse(s ResponseStatus) bool {
	switch s {
	case ResponsePending, ResponseAccepted, ResponseDeclined:
		return true
	}
	return false
}

// Assignment links one item to one person and carries the RSVP response.
type Assignment struct {
	ID       string         `json:"id"`
	ItemID   string         `json:"item_id"`
	EventID  string         `json:"event_id"`
	PersonID string         `json:"person_id"`
	Response ResponseStatus `json:"response"`

	RespondedAt *time.Time `json:"responded_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Person is a participant in an event. A person may hold assignments across
// multiple items and teams within the same event.
type Person struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`

	// InviteAnchorAt is the timestamp invite-response SLAs are measured from.
	// Set once when invites are confirmed sent; first write wins.
	InviteAnchorAt *time.Time `json:"invite_anchor_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
