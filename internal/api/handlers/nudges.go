package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gatherworks/coordinator/internal/nudge"
)

// NudgeHandler triggers nudge scheduler runs from the internal surface.
type NudgeHandler struct {
	scheduler *nudge.Scheduler
	logger    *slog.Logger
}

// NewNudgeHandler creates a new nudge handler.
func NewNudgeHandler(scheduler *nudge.Scheduler, logger *slog.Logger) *NudgeHandler {
	return &NudgeHandler{scheduler: scheduler, logger: logger}
}

// Run executes one nudge pass. Safe to call repeatedly; people nudged inside
// the repeat window are skipped.
func (h *NudgeHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.Run(r.Context())
	if err != nil {
		h.logger.Error("nudge run failed", "error", err)
		WriteInternalError(w, "Nudge run failed")
		return
	}
	WriteJSON(w, http.StatusOK, report)
}
