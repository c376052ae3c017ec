package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/billing"
	"github.com/gatherworks/coordinator/internal/entitlement"
)

// BillingHandler exposes billing status and the provider sync boundary.
type BillingHandler struct {
	sync        *billing.Sync
	entitlement *entitlement.Service
	logger      *slog.Logger
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(sync *billing.Sync, ent *entitlement.Service, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{sync: sync, entitlement: ent, logger: logger}
}

// Status returns the session user's billing status and subscription mirror.
func (h *BillingHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	status, err := h.sync.GetStatus(r.Context(), actor.UserID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// Sync applies a provider subscription update for the session user. The
// user binding comes from the session, never from the payload, so one host
// cannot rewrite another's subscription mirror.
func (h *BillingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	var update billing.ProviderUpdate
	if err := decodeJSON(r, &update); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	update.UserID = actor.UserID

	if err := h.sync.ApplyProviderUpdate(r.Context(), &update); err != nil {
		h.logger.Error("billing sync failed", "error", err, "user_id", actor.UserID)
		WriteDomainError(w, err)
		return
	}

	status, err := h.sync.GetStatus(r.Context(), actor.UserID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// CheckCreate reports whether the session user may create another event.
func (h *BillingHandler) CheckCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())

	ok, err := h.entitlement.CanCreateEvent(r.Context(), actor.UserID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"canCreate": ok})
}
