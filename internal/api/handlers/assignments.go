package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/entitlement"
	"github.com/gatherworks/coordinator/internal/invitelog"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// AssignmentHandler handles assignment CRUD, RSVP responses, and the bulk
// override operation.
type AssignmentHandler struct {
	store       store.Store
	entitlement *entitlement.Service
	audit       *invitelog.Logger
	logger      *slog.Logger
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(st store.Store, ent *entitlement.Service, audit *invitelog.Logger, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{store: st, entitlement: ent, audit: audit, logger: logger}
}

type createAssignmentRequest struct {
	ItemID   string `json:"item_id"`
	PersonID string `json:"person_id"`
}

// Create assigns an item to a person.
func (h *AssignmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req createAssignmentRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ItemID == "" || req.PersonID == "" {
		WriteBadRequest(w, "item_id and person_id are required")
		return
	}

	item, err := h.store.Items().Get(r.Context(), req.ItemID)
	if err != nil {
		WriteInternalError(w, "Failed to load item")
		return
	}
	if item == nil {
		WriteNotFound(w, "Item not found")
		return
	}
	if item.EventID != eventID {
		WriteDomainError(w, workflow.ErrWrongEvent)
		return
	}

	person, err := h.store.People().Get(r.Context(), req.PersonID)
	if err != nil {
		WriteInternalError(w, "Failed to load person")
		return
	}
	if person == nil {
		WriteNotFound(w, "Person not found")
		return
	}
	if person.EventID != eventID {
		WriteDomainError(w, workflow.ErrWrongEvent)
		return
	}

	a := &models.Assignment{
		ItemID:   req.ItemID,
		EventID:  eventID,
		PersonID: req.PersonID,
		Response: models.ResponsePending,
	}
	if err := h.store.Assignments().Create(r.Context(), a); err != nil {
		h.logger.Error("failed to create assignment", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to create assignment")
		return
	}
	WriteJSON(w, http.StatusCreated, a)
}

// List returns the event's assignments.
func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	assignments, err := h.store.Assignments().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list assignments", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list assignments")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

type respondRequest struct {
	Response string `json:"response"`
}

// Respond records an assignee's RSVP on one assignment.
func (h *AssignmentHandler) Respond(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	assignmentID := chi.URLParam(r, "assignmentID")

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	response := models.ResponseStatus(req.Response)
	if !models.ValidResponse(response) || response == models.ResponsePending {
		WriteBadRequest(w, "Response must be accepted or declined")
		return
	}

	a, err := h.store.Assignments().Get(r.Context(), assignmentID)
	if err != nil {
		WriteInternalError(w, "Failed to load assignment")
		return
	}
	if a == nil {
		WriteNotFound(w, "Assignment not found")
		return
	}
	if a.EventID != eventID {
		WriteDomainError(w, workflow.ErrWrongEvent)
		return
	}

	// A token pinned to a person may only answer for that person.
	actor := middleware.GetActor(r.Context())
	if actor != nil && actor.PersonID != "" && actor.PersonID != a.PersonID {
		WriteForbidden(w, "Access denied")
		return
	}

	now := time.Now()
	if err := h.store.Assignments().SetResponse(r.Context(), assignmentID, response, now); err != nil {
		h.logger.Error("failed to set response", "error", err, "assignment_id", assignmentID)
		WriteInternalError(w, "Failed to record response")
		return
	}
	a.Response = response
	a.RespondedAt = &now
	WriteJSON(w, http.StatusOK, a)
}

type overrideRequest struct {
	PersonID string `json:"person_id"`
	Response string `json:"response"`
}

// Override sets the response on all of a person's pending assignments in one
// atomic update. Answered assignments are left alone.
func (h *AssignmentHandler) Override(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var req overrideRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.PersonID == "" {
		WriteBadRequest(w, "person_id is required")
		return
	}
	response := models.ResponseStatus(req.Response)
	if !models.ValidResponse(response) || response == models.ResponsePending {
		WriteBadRequest(w, "Response must be accepted or declined")
		return
	}

	person, err := h.store.People().Get(r.Context(), req.PersonID)
	if err != nil {
		WriteInternalError(w, "Failed to load person")
		return
	}
	if person == nil {
		WriteNotFound(w, "Person not found")
		return
	}
	if person.EventID != eventID {
		WriteDomainError(w, workflow.ErrWrongEvent)
		return
	}

	updated, err := h.store.Assignments().OverrideResponses(r.Context(), eventID, req.PersonID, response, time.Now())
	if err != nil {
		h.logger.Error("failed to override responses", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to override responses")
		return
	}

	actor := middleware.GetActor(r.Context())
	h.audit.ManualOverride(r.Context(), eventID, req.PersonID, actor.ActorLabel(), updated)

	WriteJSON(w, http.StatusOK, map[string]any{"assignmentsUpdated": updated})
}
