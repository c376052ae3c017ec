package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/auth"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/store/postgres"
)

// AuthHandler handles registration, login, and magic-link flows.
type AuthHandler struct {
	store    store.Store
	auth     *auth.Service
	magic    *auth.MagicLinkService
	resolver *auth.Resolver
	logger   *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(st store.Store, authSvc *auth.Service, magic *auth.MagicLinkService, resolver *auth.Resolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		store:    st,
		auth:     authSvc,
		magic:    magic,
		resolver: resolver,
		logger:   logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new host account and returns a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteBadRequest(w, "A valid email is required")
		return
	}
	if len(req.Password) < 8 {
		WriteBadRequest(w, "Password must be at least 8 characters")
		return
	}

	user, err := h.store.Users().Create(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, postgres.ErrDuplicateKey) {
			WriteBadRequest(w, "An account with this email already exists")
			return
		}
		h.logger.Error("failed to create user", "error", err)
		WriteInternalError(w, "Failed to create account")
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		WriteInternalError(w, "Failed to create session")
		return
	}
	WriteJSON(w, http.StatusCreated, &sessionResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates with email and password and returns a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.store.Users().Authenticate(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCredentials) {
			WriteUnauthorized(w, "Invalid email or password")
			return
		}
		h.logger.Error("login failed", "error", err)
		WriteInternalError(w, "Login unavailable")
		return
	}

	token, err := h.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		WriteInternalError(w, "Failed to create session")
		return
	}
	WriteJSON(w, http.StatusOK, &sessionResponse{Token: token, User: user})
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

// MagicLinkRequest sends a login link. It always responds ok for a valid
// email shape, whether or not a link was actually created, so callers cannot
// probe which addresses have accounts or are rate-limited.
func (h *AuthHandler) MagicLinkRequest(w http.ResponseWriter, r *http.Request) {
	var req magicLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		WriteBadRequest(w, "A valid email is required")
		return
	}

	if err := h.magic.Request(r.Context(), email); err != nil {
		h.logger.Error("magic link request failed", "error", err)
		WriteInternalError(w, "Could not process request")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type magicLinkConsumeRequest struct {
	Token string `json:"token"`
}

// MagicLinkConsume exchanges a valid magic link for a session. The link is
// single-use; consuming a used or expired link fails with 401.
func (h *AuthHandler) MagicLinkConsume(w http.ResponseWriter, r *http.Request) {
	var req magicLinkConsumeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Token == "" {
		WriteBadRequest(w, "Token is required")
		return
	}

	email, err := h.magic.Consume(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrMagicLinkInvalid) || errors.Is(err, auth.ErrMagicLinkConsumed) {
			WriteUnauthorized(w, "Link is invalid or already used")
			return
		}
		h.logger.Error("magic link consume failed", "error", err)
		WriteInternalError(w, "Could not process request")
		return
	}

	user, err := h.store.Users().GetByEmail(r.Context(), email)
	if err != nil {
		WriteInternalError(w, "Login unavailable")
		return
	}
	if user == nil {
		// Valid link for an email without an account. Create one on the fly
		// so first login works from the invite email alone.
		user, err = h.store.Users().Create(r.Context(), email, "", "")
		if err != nil {
			h.logger.Error("failed to create user from magic link", "error", err)
			WriteInternalError(w, "Login unavailable")
			return
		}
	}

	token, err := h.auth.GenerateToken(user.ID, user.Email)
	if err != nil {
		WriteInternalError(w, "Failed to create session")
		return
	}
	WriteJSON(w, http.StatusOK, &sessionResponse{Token: token, User: user})
}

type mintTokenRequest struct {
	Scope     string  `json:"scope"`
	PersonID  *string `json:"person_id,omitempty"`
	TeamID    *string `json:"team_id,omitempty"`
	ExpiresIn string  `json:"expires_in,omitempty"`
}

type mintTokenResponse struct {
	Token       string              `json:"token"`
	AccessToken *models.AccessToken `json:"access_token"`
}

// MintToken creates an event-bound bearer token. The raw token appears only
// in this response; the server keeps just its hash.
func (h *AuthHandler) MintToken(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req mintTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	scope := models.TokenScope(req.Scope)
	if scope != models.ScopeHost && scope != models.ScopeCoordinator {
		WriteBadRequest(w, "Scope must be host or coordinator")
		return
	}

	token := &models.AccessToken{
		EventID:  eventID,
		Scope:    scope,
		PersonID: req.PersonID,
		TeamID:   req.TeamID,
	}
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d <= 0 {
			WriteBadRequest(w, "expires_in must be a positive duration")
			return
		}
		exp := time.Now().Add(d)
		token.ExpiresAt = &exp
	}

	raw, err := h.resolver.MintEventToken(r.Context(), token)
	if err != nil {
		h.logger.Error("failed to mint event token", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to create token")
		return
	}
	WriteJSON(w, http.StatusCreated, &mintTokenResponse{Token: raw, AccessToken: token})
}
