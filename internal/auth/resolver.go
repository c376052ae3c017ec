package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// Authorization errors.
var (
	// ErrUnauthorized means no valid credential was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means a valid credential lacks the required scope or is
	// bound to a different event.
	ErrForbidden = errors.New("forbidden")
)

// CredentialKind distinguishes the two resolution paths.
type CredentialKind string

const (
	// CredentialSession is a host session JWT.
	CredentialSession CredentialKind = "session"
	// CredentialEventToken is an opaque event-bound bearer token.
	CredentialEventToken CredentialKind = "event_token"
)

// ActorContext is the unified result of credential resolution: who is acting,
// at what scope, within which event.
type ActorContext struct {
	Kind    CredentialKind
	EventID string
	Scope   models.TokenScope

	// UserID is set for session credentials (the host account).
	UserID string
	// PersonID and TeamID are set when the event token is pinned to one.
	PersonID string
	TeamID   string
}

// ActorLabel returns a stable identifier for stamping actor fields.
func (a *ActorContext) ActorLabel() string {
	if a.UserID != "" {
		return a.UserID
	}
	if a.PersonID != "" {
		return a.PersonID
	}
	return string(a.Scope) + ":" + a.EventID
}

// Resolver maps opaque access tokens and session claims to actor contexts.
type Resolver struct {
	store  store.Store
	logger *slog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(st store.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, logger: logger}
}

// ResolveToken resolves an opaque event token. It fails softly: unknown or
// expired tokens return (nil, nil) and the caller converts that to 401.
func (r *Resolver) ResolveToken(ctx context.Context, raw string) (*ActorContext, error) {
	if raw == "" {
		return nil, nil
	}

	token, err := r.store.Tokens().GetByHash(ctx, HashToken(raw))
	if err != nil {
		return nil, err
	}
	if token == nil || token.IsExpired() {
		return nil, nil
	}

	actor := &ActorContext{
		Kind:    CredentialEventToken,
		EventID: token.EventID,
		Scope:   token.Scope,
	}
	if token.PersonID != nil {
		actor.PersonID = *token.PersonID
	}
	if token.TeamID != nil {
		actor.TeamID = *token.TeamID
	}
	return actor, nil
}

// ResolveSession resolves session claims to a host actor. A session holder is
// the host of any event they own, so the event binding happens at check time.
func (r *Resolver) ResolveSession(ctx context.Context, claims *Claims) (*ActorContext, error) {
	if claims == nil || claims.UserID == "" {
		return nil, nil
	}
	return &ActorContext{
		Kind:   CredentialSession,
		Scope:  models.ScopeHost,
		UserID: claims.UserID,
	}, nil
}

// RequireEventRole checks that the actor may act on the given event at one of
// the allowed scopes. A token minted for another event is rejected with
// ErrForbidden even if it is otherwise valid, so a capability for event A
// cannot be replayed against event B's routes.
func (r *Resolver) RequireEventRole(ctx context.Context, actor *ActorContext, eventID string, allowed ...models.TokenScope) error {
	if actor == nil {
		return ErrUnauthorized
	}

	switch actor.Kind {
	case CredentialEventToken:
		if actor.EventID != eventID {
			return ErrForbidden
		}
	case CredentialSession:
		event, err := r.store.Events().Get(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil || event.HostID != actor.UserID {
			return ErrForbidden
		}
		actor.EventID = eventID
	default:
		return ErrUnauthorized
	}

	for _, scope := range allowed {
		if actor.Scope == scope {
			return nil
		}
		// Host scope subsumes coordinator scope.
		if scope == models.ScopeCoordinator && actor.Scope == models.ScopeHost {
			return nil
		}
	}
	return ErrForbidden
}

// MintEventToken creates a new event-bound bearer token and returns the raw
// token value. Only the hash is persisted.
func (r *Resolver) MintEventToken(ctx context.Context, token *models.AccessToken) (string, error) {
	raw, err := GenerateOpaqueToken("evt")
	if err != nil {
		return "", err
	}
	token.TokenHash = HashToken(raw)
	if err := r.store.Tokens().Create(ctx, token); err != nil {
		return "", err
	}
	return raw, nil
}
