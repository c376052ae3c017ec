package models

import (
	"time"
)

// ConflictSeverity orders detected conflicts for display and gating.
type ConflictSeverity string

const (
	// SeverityCritical conflicts block the gate check until resolved.
	SeverityCritical ConflictSeverity = "critical"
	// SeverityWarning conflicts surface as advisory warnings.
	SeverityWarning ConflictSeverity = "warning"
	// SeverityInfo conflicts are informational only.
	SeverityInfo ConflictSeverity = "info"
)

// SeverityRank returns a sort key with critical first.
func SeverityRank(s ConflictSeverity) int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// ConflictStatus is the lifecycle state of a detected conflict.
type ConflictStatus string

const (
	ConflictOpen         ConflictStatus = "open"
	ConflictAcknowledged ConflictStatus = "acknowledged"
	ConflictDelegated    ConflictStatus = "delegated"
	ConflictDismissed    ConflictStatus = "dismissed"
	ConflictResolved     ConflictStatus = "resolved"
)

// IsTerminal reports whether the status ends the conflict's lifecycle.
// Terminal conflicts are never reopened by the detector.
func (s ConflictStatus) IsTerminal() bool {
	return s == ConflictDismissed || s == ConflictResolved
}

// ResolutionClass indicates how a conflict can be resolved.
type ResolutionClass string

const (
	// ResolutionFixInPlan conflicts can be fixed by editing the plan, so the
	// UI offers an accept-suggestion action.
	ResolutionFixInPlan ResolutionClass = "fix_in_plan"
	// ResolutionManualOnly conflicts require out-of-band action by the host.
	ResolutionManualOnly ResolutionClass = "manual_only"
)

// Conflict types emitted by the detector.
const (
	ConflictTypeUnassignedCritical = "unassigned_critical_item"
	ConflictTypeDeclinedCritical   = "declined_critical_item"
	ConflictTypeDoubleBooked       = "double_booked_person"
	ConflictTypeUnconfirmedAI      = "unconfirmed_ai_item"
	ConflictTypeItemWithoutDay     = "item_without_day"
)

// Conflict is a detected inconsistency in an event plan requiring host
// attention or dismissal.
type Conflict struct {
	ID       string           `json:"id"`
	EventID  string           `json:"event_id"`
	Type     string           `json:"type"`
	Severity ConflictSeverity `json:"severity"`
	Status   ConflictStatus   `json:"status"`

	ResolutionClass ResolutionClass `json:"resolution_class"`
	CanDelegate     bool            `json:"can_delegate"`

	// AffectedItemIDs references the items implicated in the conflict.
	AffectedItemIDs []string `json:"affected_item_ids"`

	// Fingerprint identifies the underlying cause so repeated detector runs
	// reconcile against existing rows instead of duplicating them.
	Fingerprint string `json:"-"`

	SuggestedFix string `json:"suggested_fix,omitempty"`

	DelegatedTo *string    `json:"delegated_to,omitempty"`
	DelegatedAt *time.Time `json:"delegated_at,omitempty"`
	ResolvedBy  *string    `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AcknowledgementStatus marks which acknowledgement rows are authoritative.
type AcknowledgementStatus string

const (
	// AckActive acknowledgements answer "is this conflict acknowledged".
	AckActive AcknowledgementStatus = "active"
	// AckSuperseded acknowledgements were replaced by a later one.
	AckSuperseded AcknowledgementStatus = "superseded"
)

// Acknowledgement records who acknowledged a conflict and when. Multiple rows
// may exist per conflict; only active ones are authoritative.
type Acknowledgement struct {
	ID         string                `json:"id"`
	ConflictID string                `json:"conflict_id"`
	EventID    string                `json:"event_id"`
	Status     AcknowledgementStatus `json:"status"`
	AckedBy    string                `json:"acked_by"`
	AckedAt    time.Time             `json:"acked_at"`
}
