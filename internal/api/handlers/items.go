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

// ItemHandler handles item CRUD and bulk review marking.
type ItemHandler struct {
	store       store.Store
	entitlement *entitlement.Service
	logger      *slog.Logger
}

// NewItemHandler creates a new item handler.
func NewItemHandler(st store.Store, ent *entitlement.Service, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{store: st, entitlement: ent, logger: logger}
}

type createItemRequest struct {
	TeamID      string  `json:"team_id"`
	Name        string  `json:"name"`
	DayID       *string `json:"day_id,omitempty"`
	Critical    bool    `json:"critical"`
	AIGenerated bool    `json:"ai_generated"`
}

// Create adds an item to a team in the event.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteBadRequest(w, "Name is required")
		return
	}

	team, err := h.store.Teams().Get(r.Context(), req.TeamID)
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

	item := &models.Item{
		TeamID:      req.TeamID,
		EventID:     eventID,
		Name:        req.Name,
		DayID:       req.DayID,
		Critical:    req.Critical,
		AIGenerated: req.AIGenerated,
	}
	if err := h.store.Items().Create(r.Context(), item); err != nil {
		h.logger.Error("failed to create item", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to create item")
		return
	}
	WriteJSON(w, http.StatusCreated, item)
}

// List returns the event's items.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	items, err := h.store.Items().ListByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list items", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to list items")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

type updateItemRequest struct {
	Name          *string `json:"name,omitempty"`
	DayID         *string `json:"day_id,omitempty"`
	ClearDay      bool    `json:"clear_day,omitempty"`
	Critical      *bool   `json:"critical,omitempty"`
	UserConfirmed *bool   `json:"user_confirmed,omitempty"`
}

// Update patches an item's mutable fields. Confirming an AI-suggested item
// happens here via user_confirmed.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	itemID := chi.URLParam(r, "itemID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	item, err := h.store.Items().Get(r.Context(), itemID)
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

	var req updateItemRequest
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
		item.Name = name
	}
	if req.ClearDay {
		item.DayID = nil
	} else if req.DayID != nil {
		item.DayID = req.DayID
	}
	if req.Critical != nil {
		item.Critical = *req.Critical
	}
	if req.UserConfirmed != nil {
		item.UserConfirmed = *req.UserConfirmed
		if item.UserConfirmed {
			item.NeedsReview = false
		}
	}

	if err := h.store.Items().Update(r.Context(), item); err != nil {
		h.logger.Error("failed to update item", "error", err, "item_id", itemID)
		WriteInternalError(w, "Failed to update item")
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

type markForReviewRequest struct {
	ItemIDs []string `json:"item_ids"`
}

// MarkForReview flags a batch of items in one atomic update. Items outside
// the event are not touched; the response reports how many rows changed.
func (h *ItemHandler) MarkForReview(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	var req markForReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if len(req.ItemIDs) == 0 {
		WriteBadRequest(w, "item_ids is required")
		return
	}

	updated, err := h.store.Items().MarkForReview(r.Context(), eventID, req.ItemIDs)
	if err != nil {
		h.logger.Error("failed to mark items for review", "error", err, "event_id", eventID)
		WriteInternalError(w, "Failed to mark items")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"itemsMarked": updated})
}

// Delete removes an item.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	itemID := chi.URLParam(r, "itemID")

	if _, err := loadEditableEvent(r.Context(), h.store, h.entitlement, eventID); err != nil {
		WriteDomainError(w, err)
		return
	}

	item, err := h.store.Items().Get(r.Context(), itemID)
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

	if err := h.store.Items().Delete(r.Context(), itemID); err != nil {
		h.logger.Error("failed to delete item", "error", err, "item_id", itemID)
		WriteInternalError(w, "Failed to delete item")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
