// Package main provides the entry point for the API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/gatherworks/coordinator/internal/api"
	"github.com/gatherworks/coordinator/internal/auth"
	"github.com/gatherworks/coordinator/internal/notify"
	"github.com/gatherworks/coordinator/internal/secrets"
	"github.com/gatherworks/coordinator/internal/shutdown"
	pgstore "github.com/gatherworks/coordinator/internal/store/postgres"
	"github.com/gatherworks/coordinator/pkg/config"
	"github.com/gatherworks/coordinator/pkg/logger"
)

func main() {
	log := logger.New(slog.LevelInfo, true)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	storeCfg := pgstore.DefaultConfig(cfg.DatabaseDSN)
	store, err := pgstore.NewPostgresStore(storeCfg, log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Migrate(context.Background()); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	authService := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, log.Logger)

	// Delivery defaults to log-only; a vault-provisioned gateway upgrades
	// both channels to real delivery.
	logSender := notify.NewLogSender(log.Logger)
	var (
		email notify.EmailSender = logSender
		sms   notify.SMSSender   = logSender
	)
	if cfg.Vault.AgePrivateKey != "" {
		vault, err := secrets.NewVault(&secrets.Config{
			AgePublicKey:  cfg.Vault.AgePublicKey,
			AgePrivateKey: cfg.Vault.AgePrivateKey,
		}, store, log.Logger)
		if err != nil {
			log.Error("failed to open credential vault", "error", err)
			os.Exit(1)
		}
		gateway, err := notify.NewGatewaySenderFromVault(context.Background(), vault, log.Logger)
		switch {
		case errors.Is(err, secrets.ErrCredentialNotFound):
			log.Warn("message gateway not provisioned, delivery is log-only")
		case err != nil:
			log.Error("failed to load gateway credentials", "error", err)
			os.Exit(1)
		default:
			email, sms = gateway, gateway
		}
	}

	server := api.NewServer(cfg, store, authService, email, sms, log.Logger)

	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.Register(shutdown.NewCloserComponent("store", store))
	coordinator.Register(shutdown.NewFuncComponent("http", server.Shutdown))

	go coordinator.WaitForSignal()

	log.Info("starting API server", "host", cfg.APIHost, "port", cfg.APIPort)
	if err := server.Start(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	coordinator.Wait()
	log.Info("server stopped")
	os.Exit(coordinator.ExitCode())
}
