package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store/storetest"
)

// recordingSender captures magic-link emails instead of delivering them.
type recordingSender struct {
	links []string
}

func (s *recordingSender) SendMagicLink(ctx context.Context, email, link string) error {
	s.links = append(s.links, link)
	return nil
}

// lastToken pulls the raw token out of the most recently sent link.
func (s *recordingSender) lastToken(t *testing.T) string {
	t.Helper()
	if len(s.links) == 0 {
		t.Fatal("no magic link was sent")
	}
	link := s.links[len(s.links)-1]
	i := strings.Index(link, "token=")
	if i < 0 {
		t.Fatalf("link %q has no token parameter", link)
	}
	return link[i+len("token="):]
}

func TestMagicLinkRoundTrip(t *testing.T) {
	st := storetest.NewMemoryStore()
	sender := &recordingSender{}
	svc := NewMagicLinkService(st, sender, "https://app.example.com", nil)

	ctx := context.Background()
	if err := svc.Request(ctx, "host@example.com"); err != nil {
		t.Fatalf("Request: %v", err)
	}

	raw := sender.lastToken(t)
	if !strings.HasPrefix(raw, "mlk_") {
		t.Errorf("token %q missing mlk_ prefix", raw)
	}

	email, err := svc.Consume(ctx, raw)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if email != "host@example.com" {
		t.Errorf("email = %s, want host@example.com", email)
	}

	// Links are single-use.
	if _, err := svc.Consume(ctx, raw); !errors.Is(err, ErrMagicLinkInvalid) {
		t.Errorf("second consume err = %v, want ErrMagicLinkInvalid", err)
	}
}

func TestMagicLinkConsumeUnknownToken(t *testing.T) {
	st := storetest.NewMemoryStore()
	svc := NewMagicLinkService(st, nil, "https://app.example.com", nil)
	if _, err := svc.Consume(context.Background(), "mlk_never-issued"); !errors.Is(err, ErrMagicLinkInvalid) {
		t.Errorf("err = %v, want ErrMagicLinkInvalid", err)
	}
}

func TestMagicLinkConsumeExpired(t *testing.T) {
	st := storetest.NewMemoryStore()
	svc := NewMagicLinkService(st, nil, "https://app.example.com", nil)

	ctx := context.Background()
	raw, err := GenerateOpaqueToken("mlk")
	if err != nil {
		t.Fatalf("GenerateOpaqueToken: %v", err)
	}
	link := &models.MagicLink{
		Email:     "host@example.com",
		TokenHash: HashToken(raw),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := st.MagicLinks().Create(ctx, link); err != nil {
		t.Fatalf("creating link: %v", err)
	}

	if _, err := svc.Consume(ctx, raw); !errors.Is(err, ErrMagicLinkInvalid) {
		t.Errorf("err = %v, want ErrMagicLinkInvalid", err)
	}
}

func TestMagicLinkRequestRateLimitsSilently(t *testing.T) {
	st := storetest.NewMemoryStore()
	sender := &recordingSender{}
	svc := NewMagicLinkService(st, sender, "https://app.example.com", nil)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := svc.Request(ctx, "busy@example.com"); err != nil {
			t.Fatalf("Request #%d: %v", i+1, err)
		}
	}

	// Over-limit requests return ok but send nothing.
	if len(sender.links) != magicLinkRateLimit {
		t.Errorf("links sent = %d, want %d", len(sender.links), magicLinkRateLimit)
	}

	// Another address is unaffected.
	if err := svc.Request(ctx, "other@example.com"); err != nil {
		t.Fatalf("Request for other email: %v", err)
	}
	if len(sender.links) != magicLinkRateLimit+1 {
		t.Errorf("links sent = %d, want the other email delivered", len(sender.links))
	}
}
