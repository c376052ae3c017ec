// Package store provides database access interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
)

// EventStore defines operations for event management.
type EventStore interface {
	// Create creates a new event.
	Create(ctx context.Context, event *models.Event) error
	// Get retrieves an event by ID.
	Get(ctx context.Context, id string) (*models.Event, error)
	// List retrieves all events for a host, newest first.
	List(ctx context.Context, hostID string) ([]*models.Event, error)
	// ListByStatus retrieves all non-archived events in a workflow status.
	ListByStatus(ctx context.Context, status models.EventStatus) ([]*models.Event, error)
	// Update updates an event's mutable fields.
	Update(ctx context.Context, event *models.Event) error
	// SetArchived sets or clears the archived flag.
	SetArchived(ctx context.Context, id string, archived bool) error
	// SetStatus moves the event to a new workflow status.
	SetStatus(ctx context.Context, id string, status models.EventStatus) error
	// CountActive returns the host's non-legacy, non-archived event count.
	CountActive(ctx context.Context, hostID string) (int, error)
	// ConfirmInviteSend stamps invite_send_confirmed_at if not already set.
	// Returns true if this call performed the stamp.
	ConfirmInviteSend(ctx context.Context, id string, at time.Time) (bool, error)
}

// TeamStore defines operations for team management.
type TeamStore interface {
	// Create creates a new team.
	Create(ctx context.Context, team *models.Team) error
	// Get retrieves a team by ID.
	Get(ctx context.Context, id string) (*models.Team, error)
	// ListByEvent retrieves all teams for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Team, error)
	// Update updates a team.
	Update(ctx context.Context, team *models.Team) error
	// Delete removes a team and cascades to its items.
	// Returns the number of items deleted.
	Delete(ctx context.Context, id string) (int, error)
}

// ItemStore defines operations for item management.
type ItemStore interface {
	// Create creates a new item.
	Create(ctx context.Context, item *models.Item) error
	// Get retrieves an item by ID.
	Get(ctx context.Context, id string) (*models.Item, error)
	// ListByEvent retrieves all items for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Item, error)
	// ListByTeam retrieves all items for a team.
	ListByTeam(ctx context.Context, teamID string) ([]*models.Item, error)
	// Update updates an item.
	Update(ctx context.Context, item *models.Item) error
	// MarkForReview flags the given items in one atomic update and returns
	// the number of rows changed.
	MarkForReview(ctx context.Context, eventID string, itemIDs []string) (int, error)
	// Delete removes an item.
	Delete(ctx context.Context, id string) error
}

// DayStore defines operations for event day management.
type DayStore interface {
	// Create creates a new day.
	Create(ctx context.Context, day *models.Day) error
	// ListByEvent retrieves all days for an event ordered by date.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Day, error)
	// Delete removes a day.
	Delete(ctx context.Context, id string) error
}

// AssignmentStore defines operations for assignment management.
type AssignmentStore interface {
	// Create creates a new assignment.
	Create(ctx context.Context, a *models.Assignment) error
	// Get retrieves an assignment by ID.
	Get(ctx context.Context, id string) (*models.Assignment, error)
	// ListByEvent retrieves all assignments for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Assignment, error)
	// SetResponse records an assignee's response.
	SetResponse(ctx context.Context, id string, response models.ResponseStatus, at time.Time) error
	// OverrideResponses sets the response on all of a person's pending
	// assignments in the event in one atomic update. Returns the number of
	// assignments updated.
	OverrideResponses(ctx context.Context, eventID, personID string, response models.ResponseStatus, at time.Time) (int, error)
	// Delete removes an assignment.
	Delete(ctx context.Context, id string) error
}

// PersonStore defines operations for participant management.
type PersonStore interface {
	// Create creates a new person.
	Create(ctx context.Context, p *models.Person) error
	// Get retrieves a person by ID.
	Get(ctx context.Context, id string) (*models.Person, error)
	// ListByEvent retrieves all people for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Person, error)
	// SetInviteAnchors stamps invite_anchor_at on every person in the event
	// that does not have one yet. Returns the number of people stamped.
	SetInviteAnchors(ctx context.Context, eventID string, at time.Time) (int, error)
}

// ConflictStore defines operations for conflict management.
type ConflictStore interface {
	// Create creates a new conflict.
	Create(ctx context.Context, c *models.Conflict) error
	// Get retrieves a conflict by ID.
	Get(ctx context.Context, id string) (*models.Conflict, error)
	// ListByEvent retrieves all conflicts for an event, critical first then
	// by recency.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Conflict, error)
	// Update updates a conflict's status and stamp fields.
	Update(ctx context.Context, c *models.Conflict) error
}

// AcknowledgementStore defines operations for conflict acknowledgements.
type AcknowledgementStore interface {
	// Create creates a new acknowledgement.
	Create(ctx context.Context, a *models.Acknowledgement) error
	// SupersedeActive marks all active acknowledgements for a conflict as
	// superseded. Returns the number of rows changed.
	SupersedeActive(ctx context.Context, conflictID string) (int, error)
	// ListByEvent retrieves all acknowledgements for an event.
	ListByEvent(ctx context.Context, eventID string) ([]*models.Acknowledgement, error)
	// ListActiveByConflict retrieves the active acknowledgements for a conflict.
	ListActiveByConflict(ctx context.Context, conflictID string) ([]*models.Acknowledgement, error)
}

// RevisionStore defines operations for plan revision snapshots.
type RevisionStore interface {
	// Create persists a new revision. Returns ErrDuplicateRevision if the
	// (event, revision number) pair already exists.
	Create(ctx context.Context, r *models.PlanRevision) error
	// Get retrieves a revision by ID.
	Get(ctx context.Context, id string) (*models.PlanRevision, error)
	// MaxNumber returns the highest revision number for an event, 0 if none.
	MaxNumber(ctx context.Context, eventID string) (int, error)
	// ListByEvent retrieves revisions for an event, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]*models.PlanRevision, error)
}

// TokenStore defines operations for event access tokens.
type TokenStore interface {
	// Create creates a new access token.
	Create(ctx context.Context, t *models.AccessToken) error
	// GetByHash retrieves a token by its hash.
	GetByHash(ctx context.Context, hash string) (*models.AccessToken, error)
	// DeleteByEvent removes all tokens for an event.
	DeleteByEvent(ctx context.Context, eventID string) error
}

// UserStore defines operations for host account management.
type UserStore interface {
	// Create creates a new user with a hashed password.
	Create(ctx context.Context, email, password, name string) (*models.User, error)
	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Authenticate verifies credentials and returns the user.
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	// SetBillingStatus updates the user's billing status.
	SetBillingStatus(ctx context.Context, id string, status models.BillingStatus) error
}

// SubscriptionStore defines operations for the billing provider mirror.
type SubscriptionStore interface {
	// Upsert creates or replaces the subscription mirror for a user.
	Upsert(ctx context.Context, sub *models.Subscription) error
	// GetByUserID retrieves the subscription for a user.
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)
}

// InviteEventStore defines operations for the invite audit trail.
type InviteEventStore interface {
	// Create creates a new invite event row.
	Create(ctx context.Context, e *models.InviteEvent) error
	// ListByEvent retrieves the audit trail for an event, newest first.
	ListByEvent(ctx context.Context, eventID string) ([]*models.InviteEvent, error)
	// CountSince counts invite events of a type for a person since a time.
	CountSince(ctx context.Context, eventID, personID, eventType string, since time.Time) (int, error)
}

// MagicLinkStore defines operations for magic-link login.
type MagicLinkStore interface {
	// Create creates a new magic link.
	Create(ctx context.Context, m *models.MagicLink) error
	// GetByHash retrieves a magic link by its token hash.
	GetByHash(ctx context.Context, hash string) (*models.MagicLink, error)
	// Consume stamps consumed_at on an unconsumed link. Returns false if the
	// link was already consumed.
	Consume(ctx context.Context, id string, at time.Time) (bool, error)
	// CountRecent counts links created for an email since a time.
	CountRecent(ctx context.Context, email string, since time.Time) (int, error)
}

// SettingsStore defines operations for global configuration values, including
// encrypted provider credentials.
type SettingsStore interface {
	// Get retrieves a setting by key.
	Get(ctx context.Context, key string) (string, error)
	// Set sets a setting key-value pair.
	Set(ctx context.Context, key, value string) error
}

// Store is the main interface for database operations.
type Store interface {
	Events() EventStore
	Teams() TeamStore
	Items() ItemStore
	Days() DayStore
	Assignments() AssignmentStore
	People() PersonStore
	Conflicts() ConflictStore
	Acknowledgements() AcknowledgementStore
	Revisions() RevisionStore
	Tokens() TokenStore
	Users() UserStore
	Subscriptions() SubscriptionStore
	InviteEvents() InviteEventStore
	MagicLinks() MagicLinkStore
	Settings() SettingsStore

	// WithTx executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
