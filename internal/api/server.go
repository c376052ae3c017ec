// Package api provides the HTTP API server for the coordinator.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gatherworks/coordinator/internal/api/handlers"
	"github.com/gatherworks/coordinator/internal/api/health"
	"github.com/gatherworks/coordinator/internal/api/middleware"
	"github.com/gatherworks/coordinator/internal/auth"
	"github.com/gatherworks/coordinator/internal/billing"
	"github.com/gatherworks/coordinator/internal/entitlement"
	"github.com/gatherworks/coordinator/internal/invitelog"
	"github.com/gatherworks/coordinator/internal/notify"
	"github.com/gatherworks/coordinator/internal/nudge"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/workflow"
	"github.com/gatherworks/coordinator/pkg/config"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// Server represents the HTTP API server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	store         store.Store
	auth          *auth.Service
	resolver      *auth.Resolver
	magic         *auth.MagicLinkService
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker

	entitlement *entitlement.Service
	detector    *workflow.Detector
	lifecycle   *workflow.Lifecycle
	readiness   *workflow.Readiness
	snapshotter *workflow.Snapshotter
	gate        *workflow.Gate
	audit       *invitelog.Logger
	billingSync *billing.Sync
	nudger      *nudge.Scheduler
}

// NewServer creates a new API server with the given dependencies.
func NewServer(cfg *config.Config, st store.Store, authSvc *auth.Service, sender notify.EmailSender, sms notify.SMSSender, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  st,
		auth:   authSvc,
		config: cfg,
		logger: logger,
	}

	s.healthChecker = health.NewChecker(st, Version)
	s.resolver = auth.NewResolver(st, logger)
	s.magic = auth.NewMagicLinkService(st, magicEmailSender{sender}, "", logger)

	s.entitlement = entitlement.NewService(st, cfg.FreeTierEventCap, logger)
	s.detector = workflow.NewDetector(st, logger)
	s.lifecycle = workflow.NewLifecycle(st, logger)
	s.readiness = workflow.NewReadiness(st, logger)
	s.snapshotter = workflow.NewSnapshotter(st, logger)
	s.gate = workflow.NewGate(st, s.snapshotter, logger)
	s.audit = invitelog.New(st, logger)
	s.billingSync = billing.NewSync(st, logger)

	policy := nudge.DefaultPolicy()
	if cfg.Nudge.PolicyPath != "" {
		loaded, err := nudge.LoadPolicy(cfg.Nudge.PolicyPath)
		if err != nil {
			logger.Error("failed to load nudge policy, using defaults", "error", err)
		} else {
			policy = loaded
		}
	}
	s.nudger = nudge.NewScheduler(st, sms, s.audit, policy, logger)
	s.healthChecker.RegisterDegraded("nudge_policy", func(context.Context) error {
		return policy.Validate()
	})

	s.setupRouter()
	return s
}

// magicEmailSender adapts the generic email sender to the magic-link service.
type magicEmailSender struct {
	sender notify.EmailSender
}

func (m magicEmailSender) SendMagicLink(ctx context.Context, email, link string) error {
	return m.sender.SendEmail(ctx, email, "Your sign-in link", link)
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Health check endpoint (no auth required)
	r.Get("/health", s.healthChecker.Handler())

	// Auth routes (no auth required)
	authHandler := handlers.NewAuthHandler(s.store, s.auth, s.magic, s.resolver, s.logger)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/magic-link/request", authHandler.MagicLinkRequest)
		r.Post("/magic-link/consume", authHandler.MagicLinkConsume)
	})

	// Internal trigger routes (shared secret, no session)
	nudgeHandler := handlers.NewNudgeHandler(s.nudger, s.logger)
	r.Route("/internal", func(r chi.Router) {
		r.Use(middleware.InternalAuth(s.config.InternalSecret, s.logger))
		r.Post("/nudges/run", nudgeHandler.Run)
	})

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		authMiddleware := middleware.NewAuthMiddleware(s.auth, s.resolver, s.logger)
		r.Use(authMiddleware.Authenticate)

		eventHandler := handlers.NewEventHandler(s.store, s.entitlement, s.gate, s.logger)
		billingHandler := handlers.NewBillingHandler(s.billingSync, s.entitlement, s.logger)

		// Account-level routes (session only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/events", eventHandler.Create)
			r.Get("/events", eventHandler.List)
			r.Get("/entitlements/check-create", billingHandler.CheckCreate)
			r.Get("/billing/status", billingHandler.Status)
			r.Post("/billing/sync", billingHandler.Sync)
		})

		// Event-scoped routes
		r.Route("/events/{eventID}", func(r chi.Router) {
			teamHandler := handlers.NewTeamHandler(s.store, s.entitlement, s.logger)
			itemHandler := handlers.NewItemHandler(s.store, s.entitlement, s.logger)
			personHandler := handlers.NewPersonHandler(s.store, s.entitlement, s.logger)
			assignmentHandler := handlers.NewAssignmentHandler(s.store, s.entitlement, s.audit, s.logger)
			conflictHandler := handlers.NewConflictHandler(s.store, s.detector, s.lifecycle, s.logger)
			checkHandler := handlers.NewCheckHandler(s.readiness, s.gate, s.logger)
			revisionHandler := handlers.NewRevisionHandler(s.snapshotter, s.logger)
			inviteHandler := handlers.NewInviteHandler(s.store, s.audit, s.logger)

			// Host-only surface
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireHost(s.resolver, s.logger))
				r.Patch("/", eventHandler.Update)
				r.Post("/archive", eventHandler.Archive)
				r.Post("/restore", eventHandler.Restore)
				r.Post("/advance", eventHandler.Advance)
				r.Post("/gate-check", checkHandler.GateCheck)
				r.Post("/tokens", authHandler.MintToken)
				r.Post("/revisions", revisionHandler.Create)
				r.Get("/revisions", revisionHandler.List)
				r.Get("/revisions/{revisionID}", revisionHandler.Get)
				r.Post("/invites/confirm-sent", inviteHandler.ConfirmSent)
				r.Get("/invites/audit", inviteHandler.AuditTrail)
				r.Post("/conflicts/{conflictID}/resolve", conflictHandler.Resolve)
				r.Post("/conflicts/{conflictID}/delegate", conflictHandler.Delegate)
			})

			// Coordinator-or-above surface
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCoordinator(s.resolver, s.logger))
				r.Get("/", eventHandler.Get)
				r.Get("/days", eventHandler.ListDays)
				r.Post("/days", eventHandler.CreateDay)
				r.Get("/teams", teamHandler.List)
				r.Post("/teams", teamHandler.Create)
				r.Delete("/teams/{teamID}", teamHandler.Delete)
				r.Get("/items", itemHandler.List)
				r.Post("/items", itemHandler.Create)
				r.Patch("/items/{itemID}", itemHandler.Update)
				r.Delete("/items/{itemID}", itemHandler.Delete)
				r.Post("/items/mark-for-review", itemHandler.MarkForReview)
				r.Get("/people", personHandler.List)
				r.Post("/people", personHandler.Create)
				r.Get("/assignments", assignmentHandler.List)
				r.Post("/assignments", assignmentHandler.Create)
				r.Post("/assignments/{assignmentID}/respond", assignmentHandler.Respond)
				r.Post("/assignments/override", assignmentHandler.Override)
				r.Get("/conflicts", conflictHandler.List)
				r.Post("/conflicts/detect", conflictHandler.Detect)
				r.Post("/conflicts/{conflictID}/acknowledge", conflictHandler.Acknowledge)
				r.Post("/conflicts/{conflictID}/dismiss", conflictHandler.Dismiss)
				r.Post("/freeze-check", checkHandler.FreezeCheck)
			})
		})
	})

	s.router = r
}

// Router returns the server's router, for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

// Start starts the HTTP server on the configured address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr, "version", Version)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// HTTPServer returns the underlying http.Server for shutdown registration.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
