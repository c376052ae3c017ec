package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/entitlement"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// PersonHandler handles participant management.
type PersonHandler struct {
	store       store.Store
	entitlement *entitlement.Service
	logger      *slog.Logger
}

// NewPersonHandler creates a new person handler.
func NewPersonHandler(st store.Store, ent *entitlement.Service, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{store: st, entitlement: ent, logger: logger}
}

type createPersonRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Create adds a participant to the event.
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req createPersonRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteBadRequest(w, "Name is required")
		return
	}

	person := &models.Person{
		EventID: eventID,
		Name:    req.Name,
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   strings.TrimSpace(req.Phone),
	}
	if err := h.store.People().Create(r.Context(), person); err != nil {
		h.logger.Error("failed to create person", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to create person")
		return
	}
	WriteJSON(w, http.StatusCreated, person)
}

// List returns the event's participants.
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	people, err := h.store.People().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list people", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list people")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"people": people})
}
