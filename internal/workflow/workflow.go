// Package workflow implements the event plan workflow: conflict detection and
// lifecycle, freeze-readiness and gate-check evaluation, and plan revision
// snapshots.
package workflow

import (
	"errors"
)

// Errors shared across workflow services. Handlers map these onto the HTTP
// surface: not-found to 404, wrong-event to 403, invalid transitions to 400.
var (
	// ErrConflictNotFound is returned when the conflict does not exist.
	ErrConflictNotFound = errors.New("conflict not found")
	// ErrRevisionNotFound is returned when the revision does not exist.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrEventNotFound is returned when the event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrWrongEvent is returned when a resource exists but belongs to a
	// different event than the one the caller is operating on. This is a
	// 403, not a 404: the caller holds a valid credential for the wrong
	// event.
	ErrWrongEvent = errors.New("resource belongs to a different event")
	// ErrInvalidTransition is returned when a conflict state change violates
	// the lifecycle rules.
	ErrInvalidTransition = errors.New("invalid conflict transition")
	// ErrNotDelegatable is returned when delegating a conflict that does not
	// support delegation.
	ErrNotDelegatable = errors.New("conflict cannot be delegated")
	// ErrGateFailed is returned when an event transition is attempted while
	// the gate check reports blocks.
	ErrGateFailed = errors.New("gate check failed")
)
