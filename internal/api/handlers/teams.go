package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/entitlement"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// TeamHandler handles team CRUD within an event.
type TeamHandler struct {
	store       store.Store
	entitlement *entitlement.Service
	logger      *slog.Logger
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(st store.Store, ent *entitlement.Service, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{store: st, entitlement: ent, logger: logger}
}

type createTeamRequest struct {
	Name          string  `json:"name"`
	CoordinatorID *string `json:"coordinator_id,omitempty"`
}

// Create adds a team to the event.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req createTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteBadRequest(w, "Name is required")
		return
	}

	team := &models.Team{
		EventID:       eventID,
		Name:          req.Name,
		CoordinatorID: req.CoordinatorID,
	}
	if err := h.store.Teams().Create(r.Context(), team); err != nil {
		h.logger.Error("failed to create team", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to create team")
		return
	}
	WriteJSON(w, http.StatusCreated, team)
}

// List returns the event's teams.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	teams, err := h.store.Teams().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list teams", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list teams")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

// Delete removes a team and its items. The response reports how many items
// went with it.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	teamID := chi.URLParam(r, "teamID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	team, err := h.store.Teams().Get(r.Context(), teamID)
	if err != nil {
		WriteInternalError(w, "Failed to load team")
		return
	}
	if team == nil {
		WriteNotFound(w, "Team not found")
		return
	}
	if team.EventID != eventID {
		WriteDomainError(w, workflow.ErrWrongEvent)
		return
	}

	itemsDeleted, err := h.store.Teams().Delete(r.Context(), teamID)
	if err != nil {
		h.logger.Error("failed to delete team", "error", err, "team_id", teamID)
		WriteInternalError(w, "Failed to delete team")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"itemsDeleted": itemsDeleted,
	})
}
