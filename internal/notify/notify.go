// Package notify defines the outbound message senders. Delivery providers
// live behind these interfaces; the default implementations only log, which
// keeps development and tests free of external calls.
package notify

import (
	"context"
	"log/slog"
)

// SMSSender delivers one SMS message.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, body string) error
}

// EmailSender delivers one email message.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// LogSender satisfies both sender interfaces by logging instead of sending.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs messages instead of delivering them.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendSMS(ctx context.Context, phone, body string) error {
	s.logger.Info("sms (not delivered)",
		slog.String("phone", phone),
		slog.String("body", body))
	return nil
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.logger.Info("email (not delivered)",
		slog.String("to", to),
		slog.String("subject", subject))
	return nil
}
