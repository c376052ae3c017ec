package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// ConflictHandler handles conflict detection and lifecycle actions.
type ConflictHandler struct {
	store     store.Store
	detector  *workflow.Detector
	lifecycle *workflow.Lifecycle
	logger    *slog.Logger
}

// NewConflictHandler creates a new conflict handler.
func NewConflictHandler(st store.Store, detector *workflow.Detector, lifecycle *workflow.Lifecycle, logger *slog.Logger) *ConflictHandler {
	return &ConflictHandler{
		store:     st,
		detector:  detector,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Detect runs a detection pass and returns the reconciled conflict set.
func (h *ConflictHandler) Detect(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	conflicts, err := h.detector.Detect(r.Context(), eventID)
	if err != nil {
		h.logger.Error("conflict detection failed", "error", err, "event_id", eventID)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// List returns the event's conflicts, critical first then by recency.
func (h *ConflictHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	conflicts, err := h.store.Conflicts().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list conflicts", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list conflicts")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

// Acknowledge records that the actor has seen the conflict.
func (h *ConflictHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	conflictID := chi.URLParam(r, "conflictID")
	actor := middleware.GetActor(r.Context())

	c, err := h.lifecycle.Acknowledge(r.Context(), eventID, conflictID, actor.ActorLabel())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

type delegateRequest struct {
	DelegateTo string `json:"delegate_to"`
}

// Delegate hands the conflict to someone to handle out of band.
func (h *ConflictHandler) Delegate(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	conflictID := chi.URLParam(r, "conflictID")
	actor := middleware.GetActor(r.Context())

	var req delegateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.DelegateTo == "" {
		WriteBadRequest(w, "delegate_to is required")
		return
	}

	c, err := h.lifecycle.Delegate(r.Context(), eventID, conflictID, actor.ActorLabel(), req.DelegateTo)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Dismiss marks the conflict as intentionally ignored.
func (h *ConflictHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	conflictID := chi.URLParam(r, "conflictID")
	actor := middleware.GetActor(r.Context())

	c, err := h.lifecycle.Dismiss(r.Context(), eventID, conflictID, actor.ActorLabel())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// Resolve marks the conflict as handled.
func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	conflictID := chi.URLParam(r, "conflictID")
	actor := middleware.GetActor(r.Context())

	c, err := h.lifecycle.Resolve(r.Context(), eventID, conflictID, actor.ActorLabel())
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}
