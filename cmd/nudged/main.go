// Package main provides the nudge scheduler binary, intended to run on a
// cron-style schedule. Each invocation performs one pass and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/gatherworks/coordinator/internal/invitelog"
	"github.com/gatherworks/coordinator/internal/notify"
	"github.com/gatherworks/coordinator/internal/nudge"
	"github.com/gatherworks/coordinator/internal/secrets"
	pgstore "github.com/gatherworks/coordinator/internal/store/postgres"
	"github.com/gatherworks/coordinator/pkg/config"
	"github.com/gatherworks/coordinator/pkg/logger"
)

func main() {
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum run duration")
	flag.Parse()

	log := logger.New(slog.LevelInfo, true)

	cfg := config.LoadWithDefaults()

	storeCfg := pgstore.DefaultConfig(cfg.DatabaseDSN)
	store, err := pgstore.NewPostgresStore(storeCfg, log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	policy := nudge.DefaultPolicy()
	if cfg.Nudge.PolicyPath != "" {
		policy, err = nudge.LoadPolicy(cfg.Nudge.PolicyPath)
		if err != nil {
			log.Error("failed to load nudge policy", "error", err)
			os.Exit(1)
		}
	}

	var sms notify.SMSSender = notify.NewLogSender(log.Logger)
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
			log.Warn("message gateway not provisioned, nudges are log-only")
		case err != nil:
			log.Error("failed to load gateway credentials", "error", err)
			os.Exit(1)
		default:
			sms = gateway
		}
	}

	audit := invitelog.New(store, log.Logger)
	scheduler := nudge.NewScheduler(store, sms, audit, policy, log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := scheduler.Run(ctx)
	if err != nil {
		log.Error("nudge run failed", "error", err)
		os.Exit(1)
	}
	log.Info("nudge run finished",
		"events_scanned", report.EventsScanned,
		"nudges_sent", report.NudgesSent,
		"send_failures", report.SendFailures,
	)
}
