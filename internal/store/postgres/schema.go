package postgres

import (
	"context"
	"fmt"
)

// schema holds the DDL applied by Migrate. Statements are idempotent so
// Migrate is safe to run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		billing_status TEXT NOT NULL DEFAULT 'free',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
		provider_customer_id TEXT NOT NULL DEFAULT '',
		provider_subscription_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		trial_ends_at TIMESTAMPTZ,
		period_start TIMESTAMPTZ,
		period_end TIMESTAMPTZ,
		canceled_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		host_id UUID NOT NULL REFERENCES users(id),
		status TEXT NOT NULL DEFAULT 'draft',
		archived BOOLEAN NOT NULL DEFAULT FALSE,
		is_legacy BOOLEAN NOT NULL DEFAULT FALSE,
		invite_send_confirmed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS days (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		label TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS people (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		invite_anchor_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		coordinator_id UUID REFERENCES people(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY,
		team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		day_id UUID REFERENCES days(id) ON DELETE SET NULL,
		critical BOOLEAN NOT NULL DEFAULT FALSE,
		ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
		user_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
		needs_review BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		id UUID PRIMARY KEY,
		item_id UUID NOT NULL UNIQUE REFERENCES items(id) ON DELETE CASCADE,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		person_id UUID NOT NULL REFERENCES people(id) ON DELETE CASCADE,
		response TEXT NOT NULL DEFAULT 'pending',
		responded_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS conflicts (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		resolution_class TEXT NOT NULL,
		can_delegate BOOLEAN NOT NULL DEFAULT FALSE,
		affected_item_ids TEXT[] NOT NULL DEFAULT '{}',
		fingerprint TEXT NOT NULL,
		suggested_fix TEXT NOT NULL DEFAULT '',
		delegated_to UUID,
		delegated_at TIMESTAMPTZ,
		resolved_by TEXT,
		resolved_at TIMESTAMPTZ,
		dismissed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS conflicts_event_fingerprint_idx
		ON conflicts (event_id, fingerprint)`,
	`CREATE TABLE IF NOT EXISTS acknowledgements (
		id UUID PRIMARY KEY,
		conflict_id UUID NOT NULL REFERENCES conflicts(id) ON DELETE CASCADE,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'active',
		acked_by TEXT NOT NULL,
		acked_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS plan_revisions (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		revision_number INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		snapshot JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (event_id, revision_number)
	)`,
	`CREATE TABLE IF NOT EXISTS access_tokens (
		id UUID PRIMARY KEY,
		token_hash TEXT NOT NULL UNIQUE,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		scope TEXT NOT NULL,
		person_id UUID REFERENCES people(id) ON DELETE CASCADE,
		team_id UUID REFERENCES teams(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invite_events (
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		person_id UUID,
		type TEXT NOT NULL,
		metadata JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS magic_links (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		consumed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS magic_links_email_created_idx
		ON magic_links (email, created_at)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Safe to call on every startup.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	s.logger.Info("database schema up to date")
	return nil
}
