package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
)

// Magic link errors.
var (
	ErrMagicLinkInvalid  = errors.New("magic link is invalid or expired")
	ErrMagicLinkConsumed = errors.New("magic link already used")
)

// Magic link policy.
const (
	// MagicLinkExpiry is how long a link stays valid.
	MagicLinkExpiry = 15 * time.Minute
	// magicLinkRateWindow and magicLinkRateLimit bound link creation per
	// email. Requests over the limit still return ok to the caller but
	// silently create no link, so the endpoint does not leak which emails
	// are being hammered.
	magicLinkRateWindow = 15 * time.Minute
	magicLinkRateLimit  = 3
)

// EmailSender delivers magic-link emails. Delivery is best-effort.
type EmailSender interface {
	SendMagicLink(ctx context.Context, email, link string) error
}

// MagicLinkService implements passwordless host login.
type MagicLinkService struct {
	store   store.Store
	sender  EmailSender
	baseURL string
	logger  *slog.Logger
}

// NewMagicLinkService creates a new magic link service.
func NewMagicLinkService(st store.Store, sender EmailSender, baseURL string, logger *slog.Logger) *MagicLinkService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MagicLinkService{
		store:   st,
		sender:  sender,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Request creates and sends a magic link for the email. Rate-limited
// silently: over-limit requests succeed without creating a link.
func (s *MagicLinkService) Request(ctx context.Context, email string) error {
	recent, err := s.store.MagicLinks().CountRecent(ctx, email, time.Now().Add(-magicLinkRateWindow))
	if err != nil {
		return err
	}
	if recent >= magicLinkRateLimit {
		s.logger.Info("magic link request rate-limited", "email", email)
		return nil
	}

	raw, err := GenerateOpaqueToken("mlk")
	if err != nil {
		return err
	}

	link := &models.MagicLink{
		Email:     email,
		TokenHash: HashToken(raw),
		ExpiresAt: time.Now().Add(MagicLinkExpiry),
	}
	if err := s.store.MagicLinks().Create(ctx, link); err != nil {
		return err
	}

	if s.sender != nil {
		url := s.baseURL + "/auth/magic-link/consume?token=" + raw
		if err := s.sender.SendMagicLink(ctx, email, url); err != nil {
			// Delivery failure must not fail the request; the user can retry.
			s.logger.Error("failed to send magic link email", "error", err)
		}
	}
	return nil
}

// Consume validates and single-uses a magic link, returning the email it was
// issued for. The caller exchanges that for a session.
func (s *MagicLinkService) Consume(ctx context.Context, raw string) (string, error) {
	link, err := s.store.MagicLinks().GetByHash(ctx, HashToken(raw))
	if err != nil {
		return "", err
	}
	if link == nil || !link.IsValid() {
		return "", ErrMagicLinkInvalid
	}

	ok, err := s.store.MagicLinks().Consume(ctx, link.ID, time.Now())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrMagicLinkConsumed
	}
	return link.Email, nil
}
