package models

import (
	"time"
)

// PlanSnapshot is the denormalized copy of an event plan embedded in a
// revision. The collections are owned value copies, never live references, so
// a revision stays intact even if the live rows are later deleted.
type PlanSnapshot struct {
	Teams            []Team            `json:"teams"`
	Items            []Item            `json:"items"`
	Days             []Day             `json:"days"`
	Conflicts        []Conflict        `json:"conflicts"`
	Acknowledgements []Acknowledgement `json:"acknowledgements"`
}

// PlanRevision is an immutable point-in-time snapshot of an event plan for
// audit and rollback viewing. Revision numbers are monotonic per event.
type PlanRevision struct {
	ID             string       `json:"id"`
	EventID        string       `json:"event_id"`
	RevisionNumber int          `json:"revision_number"`
	CreatedBy      string       `json:"created_by"`
	Reason         string       `json:"reason"`
	Snapshot       PlanSnapshot `json:"snapshot"`
	CreatedAt      time.Time    `json:"created_at"`
}
