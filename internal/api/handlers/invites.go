package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/invitelog"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// InviteHandler handles invite-send confirmation and the audit trail.
type InviteHandler struct {
	store  store.Store
	audit  *invitelog.Logger
	logger *slog.Logger
}

// NewInviteHandler creates a new invite handler.
func NewInviteHandler(st store.Store, audit *invitelog.Logger, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{store: st, audit: audit, logger: logger}
}

// ConfirmSent records that invites went out. The event stamp and each
// person's invite anchor are first-write-wins: re-confirming later moves
// nothing, so response SLAs stay measured from the first send.
func (h *InviteHandler) ConfirmSent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	actor := middleware.GetActor(r.Context())

	event, err := h.store.Events().Get(r.Context(), eventID)
	if err != nil {
		WriteInternalError(w, "Failed to load event")
		return
	}
	if event == nil {
		WriteDomainError(w, workflow.ErrEventNotFound)
		return
	}

	now := time.Now()
	stamped, err := h.store.Events().ConfirmInviteSend(r.Context(), eventID, now)
	if err != nil {
		h.logger.Error("failed to confirm invite send", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to confirm invite send")
		return
	}

	anchored, err := h.store.People().SetInviteAnchors(r.Context(), eventID, now)
	if err != nil {
		h.logger.Error("failed to set invite anchors", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to confirm invite send")
		return
	}

	if stamped {
		h.audit.SendConfirmed(r.Context(), eventID, actor.ActorLabel())
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"confirmed":      true,
		"firstConfirm":   stamped,
		"peopleAnchored": anchored,
	})
}

// AuditTrail returns the event's invite audit rows, newest first.
func (h *InviteHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	entries, err := h.store.InviteEvents().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list invite events", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list invite events")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
