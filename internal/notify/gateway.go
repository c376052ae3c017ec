package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Credential names the vault stores delivery-provider settings under.
const (
	// CredentialGatewayURL is the message gateway's base URL.
	CredentialGatewayURL = "gateway_url"
	// CredentialGatewayKey is the gateway API key.
	CredentialGatewayKey = "gateway_api_key"
)

// CredentialSource provides provider credentials by name. Satisfied by the
// secrets vault.
type CredentialSource interface {
	Get(ctx context.Context, name string) (string, error)
}

// GatewaySender delivers messages through an HTTP message gateway. SMS posts
// to /v1/sms, email to /v1/email, both authenticated with a bearer API key.
type GatewaySender struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewGatewaySender creates a sender for the gateway at baseURL.
func NewGatewaySender(baseURL, apiKey string, logger *slog.Logger) *GatewaySender {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewaySender{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// NewGatewaySenderFromVault builds a gateway sender from vault-stored
// credentials. Returns the vault's ErrCredentialNotFound when the gateway
// has not been provisioned, so callers can fall back to the log sender.
func NewGatewaySenderFromVault(ctx context.Context, creds CredentialSource, logger *slog.Logger) (*GatewaySender, error) {
	baseURL, err := creds.Get(ctx, CredentialGatewayURL)
	if err != nil {
		return nil, err
	}
	apiKey, err := creds.Get(ctx, CredentialGatewayKey)
	if err != nil {
		return nil, err
	}
	return NewGatewaySender(baseURL, apiKey, logger), nil
}

func (s *GatewaySender) SendSMS(ctx context.Context, phone, body string) error {
	return s.post(ctx, "/v1/sms", map[string]string{
		"to":   phone,
		"body": body,
	})
}

func (s *GatewaySender) SendEmail(ctx context.Context, to, subject, body string) error {
	return s.post(ctx, "/v1/email", map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
}

func (s *GatewaySender) post(ctx context.Context, path string, payload map[string]string) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Error("gateway rejected message",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
