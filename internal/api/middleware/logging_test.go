package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestLoggerIncludesEventID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Get("/v1/events/{eventID}/teams", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events/evt-1/teams", nil))

	line := buf.String()
	if !strings.Contains(line, `"event_id":"evt-1"`) {
		t.Errorf("log line missing event_id: %s", line)
	}
	if !strings.Contains(line, `"status":200`) {
		t.Errorf("log line missing status: %s", line)
	}
}

func TestRequestLoggerOmitsEventIDOffEventRoutes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if strings.Contains(buf.String(), "event_id") {
		t.Errorf("log line has event_id on a non-event route: %s", buf.String())
	}
}
