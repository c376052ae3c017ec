package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gatherworks/coordinator/internal/workflow"
)

// CheckHandler exposes the freeze-readiness and gate-check evaluators.
type CheckHandler struct {
	readiness *workflow.Readiness
	gate      *workflow.Gate
	logger    *slog.Logger
}

// NewCheckHandler creates a new check handler.
func NewCheckHandler(readiness *workflow.Readiness, gate *workflow.Gate, logger *slog.Logger) *CheckHandler {
	return &CheckHandler{readiness: readiness, gate: gate, logger: logger}
}

// FreezeCheck returns the advisory freeze-readiness report. Read-only.
func (h *CheckHandler) FreezeCheck(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	report, err := h.readiness.Check(r.Context(), eventID)
	if err != nil {
		h.logger.Error("freeze check failed", "error", err, "event_id", eventID)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// GateCheck returns the authoritative blocking checks. Read-only; the actual
// transition happens through the advance endpoint.
func (h *CheckHandler) GateCheck(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	result, err := h.gate.Check(r.Context(), eventID)
	if err != nil {
		h.logger.Error("gate check failed", "error", err, "event_id", eventID)
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
