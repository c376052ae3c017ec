// Package nudge follows up on unanswered invites. A scheduler pass finds
// people with pending assignments whose invite has been out longer than the
// configured wait, sends each an SMS, and records the send in the invite
// audit trail. Passes are idempotent within the repeat window.
package nudge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatherworks/coordinator/internal/invitelog"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/notify"
	"github.com/gatherworks/coordinator/internal/store"
)

// RunReport summarizes one scheduler pass.
type RunReport struct {
	EventsScanned  int `json:"events_scanned"`
	PeopleEligible int `json:"people_eligible"`
	NudgesSent     int `json:"nudges_sent"`
	SendFailures   int `json:"send_failures"`
}

// Scheduler runs nudge passes. It holds no timer of its own; an external
// trigger (cron binary or the internal run endpoint) invokes Run.
type Scheduler struct {
	store  store.Store
	sms    notify.SMSSender
	audit  *invitelog.Logger
	policy Policy
	logger *slog.Logger
}

// NewScheduler creates a nudge scheduler with the given policy.
func NewScheduler(st store.Store, sms notify.SMSSender, audit *invitelog.Logger, policy Policy, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: st, sms: sms, audit: audit, policy: policy, logger: logger}
}

// Run executes one nudge pass over all confirming events. Re-running inside
// the repeat window sends nothing new: each person's last nudge is checked
// against the invite audit trail before sending.
func (s *Scheduler) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}
	now := time.Now()

	events, err := s.store.Events().ListByStatus(ctx, models.EventStatusConfirming)
	if err != nil {
		return nil, fmt.Errorf("listing confirming events: %w", err)
	}

	for _, event := range events {
		report.EventsScanned++
		if err := s.runEvent(ctx, event, now, report); err != nil {
			return report, err
		}
		if s.policy.MaxPerRun > 0 && report.NudgesSent >= s.policy.MaxPerRun {
			s.logger.Info("nudge run cap reached", slog.Int("cap", s.policy.MaxPerRun))
			break
		}
	}

	s.logger.Info("nudge run complete",
		slog.Int("events_scanned", report.EventsScanned),
		slog.Int("nudges_sent", report.NudgesSent),
		slog.Int("send_failures", report.SendFailures))
	return report, nil
}

func (s *Scheduler) runEvent(ctx context.Context, event *models.Event, now time.Time, report *RunReport) error {
	people, err := s.store.People().ListByEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	assignments, err := s.store.Assignments().ListByEvent(ctx, event.ID)
	if err != nil {
		return err
	}

	pending := make(map[string]bool)
	for _, a := range assignments {
		if a.Response == models.ResponsePending {
			pending[a.PersonID] = true
		}
	}

	for _, p := range people {
		if s.policy.MaxPerRun > 0 && report.NudgesSent >= s.policy.MaxPerRun {
			return nil
		}
		if !pending[p.ID] || p.Phone == "" {
			continue
		}
		if p.InviteAnchorAt == nil || now.Sub(*p.InviteAnchorAt) < s.policy.WaitAfterInvite {
			continue
		}

		recent, err := s.store.InviteEvents().CountSince(
			ctx, event.ID, p.ID, models.InviteEventNudgeSent, now.Add(-s.policy.RepeatWindow))
		if err != nil {
			return err
		}
		if recent > 0 {
			continue
		}

		report.PeopleEligible++
		body := fmt.Sprintf(s.policy.MessageTemplate, event.Name)
		if err := s.sms.SendSMS(ctx, p.Phone, body); err != nil {
			report.SendFailures++
			s.logger.Warn("nudge send failed",
				slog.String("event_id", event.ID),
				slog.String("person_id", p.ID),
				slog.String("error", err.Error()))
			continue
		}

		s.audit.NudgeSent(ctx, event.ID, p.ID)
		report.NudgesSent++
	}
	return nil
}
