// Package main provides a small operator tool for minting event-bound access
// tokens and generating encryption key pairs for the credential vault.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gatherworks/coordinator/internal/auth"
	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/secrets"
	pgstore "github.com/gatherworks/coordinator/internal/store/postgres"
)

func main() {
	eventID := flag.String("event", "", "Event ID the token is bound to")
	scope := flag.String("scope", "coordinator", "Token scope: host or coordinator")
	personID := flag.String("person", "", "Optional person ID to pin the token to")
	teamID := flag.String("team", "", "Optional team ID to pin the token to")
	expiry := flag.Duration("expiry", 0, "Token expiry duration (default: never expires)")
	dsn := flag.String("dsn", "", "Database connection string (or set DATABASE_URL env var)")
	keypair := flag.Bool("keypair", false, "Generate an age key pair for the credential vault and exit")
	flag.Parse()

	if *keypair {
		publicKey, privateKey, err := secrets.GenerateKeyPair()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating key pair: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("VAULT_AGE_PUBLIC_KEY=%s\n", publicKey)
		fmt.Printf("VAULT_AGE_PRIVATE_KEY=%s\n", privateKey)
		return
	}

	if *eventID == "" {
		fmt.Fprintln(os.Stderr, "Error: event ID required. Use -event flag")
		fmt.Fprintln(os.Stderr, "Example: go run ./cmd/gentoken -event <uuid> -scope coordinator")
		os.Exit(1)
	}

	tokenScope := models.TokenScope(*scope)
	if tokenScope != models.ScopeHost && tokenScope != models.ScopeCoordinator {
		fmt.Fprintln(os.Stderr, "Error: scope must be host or coordinator")
		os.Exit(1)
	}

	connStr := *dsn
	if connStr == "" {
		connStr = os.Getenv("DATABASE_URL")
	}
	if connStr == "" {
		fmt.Fprintln(os.Stderr, "Error: database connection required. Use -dsn flag or set DATABASE_URL env var")
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := pgstore.NewPostgresStore(pgstore.DefaultConfig(connStr), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	token := &models.AccessToken{
		EventID: *eventID,
		Scope:   tokenScope,
	}
	if *personID != "" {
		token.PersonID = personID
	}
	if *teamID != "" {
		token.TeamID = teamID
	}
	if *expiry > 0 {
		expiresAt := time.Now().Add(*expiry)
		token.ExpiresAt = &expiresAt
	}

	resolver := auth.NewResolver(store, logger)
	raw, err := resolver.MintEventToken(context.Background(), token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error minting token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(raw)
}
