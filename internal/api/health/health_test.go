package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func TestCheckReportsDatabase(t *testing.T) {
	pinger := &fakePinger{}
	c := NewChecker(pinger, "test")

	resp := c.Check(context.Background())
	if resp.Status != StatusHealthy {
		t.Errorf("status = %s, want healthy", resp.Status)
	}
	if resp.Components["database"].Status != StatusHealthy {
		t.Errorf("database = %s, want healthy", resp.Components["database"].Status)
	}

	pinger.err = errors.New("connection refused")
	resp = c.Check(context.Background())
	if resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy when the database is down", resp.Status)
	}
}

func TestDegradedCheckDoesNotFailTheService(t *testing.T) {
	c := NewChecker(&fakePinger{}, "test")
	c.RegisterDegraded("nudge_policy", func(context.Context) error {
		return errors.New("message_template: missing %s placeholder")
	})

	resp := c.Check(context.Background())
	if resp.Status != StatusDegraded {
		t.Errorf("status = %s, want degraded", resp.Status)
	}
	if resp.Components["nudge_policy"].Status != StatusDegraded {
		t.Errorf("nudge_policy = %s, want degraded", resp.Components["nudge_policy"].Status)
	}
	if resp.Components["database"].Status != StatusHealthy {
		t.Errorf("database = %s, want healthy", resp.Components["database"].Status)
	}
}

func TestHandlerStatusCodes(t *testing.T) {
	pinger := &fakePinger{}
	c := NewChecker(pinger, "test")
	c.RegisterDegraded("nudge_policy", func(context.Context) error { return errors.New("bad policy") })

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("degraded = %d, want 200", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != StatusDegraded {
		t.Errorf("reported status = %s, want degraded", resp.Status)
	}

	pinger.err = errors.New("connection refused")
	rec = httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy = %d, want 503", rec.Code)
	}
}
