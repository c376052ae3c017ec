// Package health reports liveness of the coordinator's dependencies.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Status is the reported health of a component or of the service overall.
type Status string

const (
	// StatusHealthy indicates the component is fully operational.
	StatusHealthy Status = "healthy"
	// StatusDegraded indicates the component is operational but with issues.
	StatusDegraded Status = "degraded"
	// StatusUnhealthy indicates the component is not operational.
	StatusUnhealthy Status = "unhealthy"
)

// ComponentStatus is the health of one registered component.
type ComponentStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the /health payload.
type Response struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
}

// Pinger is satisfied by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckFunc checks one component. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

var errNoStore = errors.New("database connection not configured")

// Checker aggregates per-component checks into one health report. The
// database check is always registered; optional subsystems (nudge policy,
// credential vault) register themselves at wiring time.
type Checker struct {
	mu        sync.RWMutex
	checks    map[string]CheckFunc
	degraded  map[string]bool
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewChecker creates a checker with the database check registered.
func NewChecker(store Pinger, version string) *Checker {
	c := &Checker{
		checks:    make(map[string]CheckFunc),
		degraded:  make(map[string]bool),
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
	c.Register("database", func(ctx context.Context) error {
		if store == nil {
			return errNoStore
		}
		return store.Ping(ctx)
	})
	return c
}

// Register adds a component check. A failing check marks the service
// unhealthy.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// RegisterDegraded adds a check whose failure only degrades the service.
// Used for subsystems the API can run without, like the nudge policy file.
func (c *Checker) RegisterDegraded(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
	c.degraded[name] = true
}

// SetTimeout sets the per-report check timeout.
func (c *Checker) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Check runs each registered check and aggregates the results. Overall
// status is the worst component status.
func (c *Checker) Check(ctx context.Context) *Response {
	c.mu.RLock()
	timeout := c.timeout
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	degraded := make(map[string]bool, len(c.degraded))
	for name := range c.degraded {
		degraded[name] = true
	}
	c.mu.RUnlock()

	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	components := make(map[string]ComponentStatus, len(checks))
	overall := StatusHealthy
	for name, fn := range checks {
		status := ComponentStatus{Status: StatusHealthy, Message: "ok"}
		if err := fn(checkCtx); err != nil {
			status = ComponentStatus{Status: StatusUnhealthy, Message: err.Error()}
			if degraded[name] {
				status.Status = StatusDegraded
			}
		}
		components[name] = status

		switch status.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	return &Response{
		Status:     overall,
		Components: components,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
	}
}

// Handler serves the health report. Degraded still answers 200 so load
// balancers keep routing; only unhealthy answers 503.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if response.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(response)
	}
}
