package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/entitlement"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/workflow"
)

// EventHandler handles event CRUD and workflow transitions.
type EventHandler struct {
	store       store.Store
	entitlement *entitlement.Service
	gate        *workflow.Gate
	logger      *slog.Logger
}

// NewEventHandler creates a new event handler.
func NewEventHandler(st store.Store, ent *entitlement.Service, gate *workflow.Gate, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		store:       st,
		entitlement: ent,
		gate:        gate,
		logger:      logger,
	}
}

// loadEditableEvent fetches the event and verifies the plan may be edited:
// the event exists, is not frozen, and the host's billing status allows
// editing (legacy events are exempt).
func loadEditableEvent(ctx context.Context, st store.Store, ent *entitlement.Service, eventID string) (*models.Event, error) {
	event, err := st.Events().Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, workflow.ErrEventNotFound
	}
	if event.Status == models.EventStatusFrozen {
		return nil, workflow.ErrInvalidTransition
	}
	if err := ent.RequireEditEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

type createEventRequest struct {
	Name string `json:"name"`
}

// Create creates a new event owned by the session user, subject to the
// billing entitlement check.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	if actor == nil || actor.UserID == "" {
		WriteForbidden(w, "Session required")
		return
	}

	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteBadRequest(w, "Name is required")
		return
	}

	if err := h.entitlement.RequireCreateEvent(r.Context(), actor.UserID); err != nil {
		WriteDomainError(w, err)
		return
	}

	event := &models.Event{
		Name:   req.Name,
		HostID: actor.UserID,
		Status: models.EventStatusDraft,
	}
	if err := h.store.Events().Create(r.Context(), event); err != nil {
		h.logger.Error("failed to create event", "error", err)
		WriteInternalError(w, "Failed to create event")
		return
	}
	WriteJSON(w, http.StatusCreated, event)
}

// List returns the session user's events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActor(r.Context())
	if actor == nil || actor.UserID == "" {
		WriteForbidden(w, "Session required")
		return
	}

	events, err := h.store.Events().List(r.Context(), actor.UserID)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

// Get returns one event.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	event, err := h.store.Events().Get(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to get event", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to load event")
		return
	}
	if event == nil {
		WriteNotFound(w, "Event not found")
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

type updateEventRequest struct {
	Name *string `json:"name,omitempty"`
}

// Update renames an event.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			WriteBadRequest(w, "Name cannot be empty")
			return
		}
		event.Name = name
	}

	if err := h.store.Events().Update(r.Context(), event); err != nil {
		h.logger.Error("failed to update event", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to update event")
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

// Archive soft-deletes an event. Reversible via Restore.
func (h *EventHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

// Restore clears the archived flag.
func (h *EventHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *EventHandler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	eventID := chi.URLParam(r, "eventID")
	if err := h.store.Events().SetArchived(r.Context(), eventID, archived); err != nil {
		WriteDomainError(w, err)
		return
	}
	event, err := h.store.Events().Get(r.Context(), eventID)
	if err != nil || event == nil {
		WriteInternalError(w, "Failed to load event")
		return
	}
	WriteJSON(w, http.StatusOK, event)
}

// Advance moves the event to its next workflow status. The confirming to
// frozen step is gate-checked; a refusal returns the blocks.
func (h *EventHandler) Advance(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	actor := middleware.GetActor(r.Context())

	event, gateResult, err := h.gate.Advance(r.Context(), eventID, actor.ActorLabel())
	if err != nil {
		if err == workflow.ErrGateFailed && gateResult != nil {
			WriteErrorWithDetails(w, http.StatusConflict, ErrCodeGateFailed,
				"Event is not ready to freeze", gateResult.Blocks)
			return
		}
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"event": event, "gate": gateResult})
}

type createDayRequest struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
}

// CreateDay adds a day to the event.
func (h *EventHandler) CreateDay(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req createDayRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		WriteBadRequest(w, "Date must be YYYY-MM-DD")
		return
	}

	day := &models.Day{
		EventID: eventID,
		Date:    date,
		Label:   strings.TrimSpace(req.Label),
	}
	if err := h.store.Days().Create(r.Context(), day); err != nil {
		h.logger.Error("failed to create day", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to create day")
		return
	}
	WriteJSON(w, http.StatusCreated, day)
}

// ListDays returns the event's days ordered by date.
func (h *EventHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	days, err := h.store.Days().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list days", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list days")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"days": days})
}
