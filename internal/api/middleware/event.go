package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/auth"
	"github.com/gatherworks/coordinator/internal/models"
)

// RequireEventScope returns a middleware that binds the actor to the
// {eventID} route parameter at one of the allowed scopes. An event token
// minted for a different event is rejected with 403, not 404: the route may
// exist, the caller just may not touch it.
func RequireEventScope(resolver *auth.Resolver, logger *slog.Logger, allowed ...models.TokenScope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := GetActor(r.Context())
			eventID := chi.URLParam(r, "eventID")
			if eventID == "" {
				writeForbidden(w, "Access denied")
				return
			}

			err := resolver.RequireEventRole(r.Context(), actor, eventID, allowed...)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, auth.ErrUnauthorized):
				writeUnauthorized(w, "Authentication required")
			case errors.Is(err, auth.ErrForbidden):
				logger.Debug("event scope check failed",
					"event_id", eventID,
					"actor", actor.ActorLabel(),
				)
				writeForbidden(w, "Access denied")
			default:
				logger.Error("event scope check error", "error", err, "event_id", eventID)
				writeInternalError(w, "Authorization unavailable")
			}
		})
	}
}

// RequireHost is RequireEventScope fixed to host scope.
func RequireHost(resolver *auth.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireEventScope(resolver, logger, models.ScopeHost)
}

// RequireCoordinator allows coordinator scope and above.
func RequireCoordinator(resolver *auth.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return RequireEventScope(resolver, logger, models.ScopeCoordinator)
}

// RequireSession ensures the actor is a host session (not an event token).
// Used for account-level routes that have no event in the path.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := GetActor(r.Context())
		if actor == nil {
			writeUnauthorized(w, "Authentication required")
			return
		}
		if actor.Kind != auth.CredentialSession {
			writeForbidden(w, "Session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InternalAuth guards internal trigger endpoints with a shared secret header.
func InternalAuth(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Warn("internal endpoint called but no internal secret configured")
				writeForbidden(w, "Internal endpoints disabled")
				return
			}
			provided := r.Header.Get("X-Internal-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				writeUnauthorized(w, "Invalid internal secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
