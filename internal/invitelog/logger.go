// Package invitelog records a best-effort audit trail of invite lifecycle
// actions. Writes never block or fail the action they are attached to; a
// failed write is logged and dropped.
package invitelog

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// Logger appends invite audit rows.
type Logger struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a new invite audit logger.
func New(st store.Store, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{store: st, logger: logger}
}

// Record appends one audit row. Errors are swallowed after logging so callers
// can fire and forget.
func (l *Logger) Record(ctx context.Context, eventID string, personID *string, eventType string, metadata map[string]string) {
	row := &models.InviteEvent{
		EventID:  eventID,
		PersonID: personID,
		Type:     eventType,
		Metadata: metadata,
	}
	if err := l.store.InviteEvents().Create(ctx, row); err != nil {
		l.logger.Warn("invite audit write failed",
			slog.String("event_id", eventID),
			slog.String("type", eventType),
			slog.String("error", err.Error()))
	}
}

// SendConfirmed records that the host confirmed invites went out.
func (l *Logger) SendConfirmed(ctx context.Context, eventID, actor string) {
	l.Record(ctx, eventID, nil, models.InviteEventSendConfirmed, map[string]string{"actor": actor})
}

// ManualOverride records a host overriding a person's pending responses.
func (l *Logger) ManualOverride(ctx context.Context, eventID, personID, actor string, updated int) {
	l.Record(ctx, eventID, &personID, models.InviteEventManualOverride, map[string]string{
		"actor":   actor,
		"updated": strconv.Itoa(updated),
	})
}

// NudgeSent records an SMS nudge going out to a person.
func (l *Logger) NudgeSent(ctx context.Context, eventID, personID string) {
	l.Record(ctx, eventID, &personID, models.InviteEventNudgeSent, nil)
}
