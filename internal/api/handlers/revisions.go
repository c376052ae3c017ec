package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// RevisionHandler exposes plan revision snapshots.
type RevisionHandler struct {
	snapshotter *workflow.Snapshotter
	logger      *slog.Logger
}

// NewRevisionHandler creates a new revision handler.
func NewRevisionHandler(snapshotter *workflow.Snapshotter, logger *slog.Logger) *RevisionHandler {
	return &RevisionHandler{snapshotter: snapshotter, logger: logger}
}

type createRevisionRequest struct {
	Reason string `json:"reason"`
}

// Create snapshots the event's current plan as a new revision.
func (h *RevisionHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	actor := middleware.GetActor(r.Context())

	var req createRevisionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual"
	}

	rev, err := h.snapshotter.CreateRevision(r.Context(), eventID, actor.ActorLabel(), reason)
	if err != nil {
		h.logger.Error("failed to create revision", "error", err, "event_id", eventID)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rev)
}

// List returns the event's revisions, newest first.
func (h *RevisionHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	revisions, err := h.snapshotter.ListRevisions(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list revisions", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list revisions")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"revisions": revisions})
}

// Get returns one revision. A revision under another event reads as 403, an
// absent one as 404.
func (h *RevisionHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	revisionID := chi.URLParam(r, "revisionID")

	rev, err := h.snapshotter.GetRevision(r.Context(), eventID, revisionID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rev)
}
