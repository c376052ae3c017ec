package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gatherworks/coordinator/internal/auth"
)

// Context keys for actor information.
type contextKey string

const (
	// ActorKey is the context key for the resolved actor.
	ActorKey contextKey = "actor"
)

// GetActor extracts the resolved actor from the request context.
func GetActor(ctx context.Context) *auth.ActorContext {
	if v := ctx.Value(ActorKey); v != nil {
		return v.(*auth.ActorContext)
	}
	return nil
}

// AuthMiddleware resolves bearer credentials to actor contexts. Two kinds of
// credential share the Authorization header: opaque event tokens (evt_ prefix)
// and host session JWTs.
type AuthMiddleware struct {
	authService *auth.Service
	resolver    *auth.Resolver
	logger      *slog.Logger
}

// NewAuthMiddleware creates a new authentication middleware.
func NewAuthMiddleware(authService *auth.Service, resolver *auth.Resolver, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		resolver:    resolver,
		logger:      logger,
	}
}

// Authenticate validates the bearer credential and stores the actor in the
// request context. Requests with no resolvable credential get 401.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if raw == "" {
			writeUnauthorized(w, "Missing authentication")
			return
		}

		var actor *auth.ActorContext
		var err error

		if strings.HasPrefix(raw, "evt_") {
			actor, err = m.resolver.ResolveToken(r.Context(), raw)
			if err != nil {
				m.logger.Error("event token resolution failed", "error", err)
				writeInternalError(w, "Authentication unavailable")
				return
			}
			if actor == nil {
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
		} else {
			claims, err := m.authService.ValidateToken(raw)
			if err != nil {
				m.logger.Debug("session validation failed", "error", err)
				if err == auth.ErrExpiredToken {
					writeUnauthorized(w, "Session has expired")
					return
				}
				writeUnauthorized(w, "Invalid session")
				return
			}
			actor, err = m.resolver.ResolveSession(r.Context(), claims)
			if err != nil || actor == nil {
				writeUnauthorized(w, "Invalid session")
				return
			}
		}

		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"code":"UNAUTHORIZED","message":"` + escapeJSON(message) + `"}`))
}

func writeForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte(`{"code":"FORBIDDEN","message":"` + escapeJSON(message) + `"}`))
}

func writeInternalError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(`{"code":"INTERNAL_ERROR","message":"` + escapeJSON(message) + `"}`))
}

func escapeJSON(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
