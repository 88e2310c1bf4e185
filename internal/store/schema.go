package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Documents are stored as JSONB so new fields need no migration; only the
// columns used for locking and uniqueness are broken out.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		doc JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_balance ON users (((doc->>'balance')::bigint) DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_users_xp ON users (((doc->>'xp')::bigint) DESC)`,
	`CREATE TABLE IF NOT EXISTS inventories (
		id BIGINT PRIMARY KEY,
		doc JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS marriages (
		id TEXT PRIMARY KEY,
		proposer BIGINT NOT NULL,
		proposee BIGINT NOT NULL,
		accepted BOOLEAN NOT NULL DEFAULT FALSE,
		divorced BOOLEAN NOT NULL DEFAULT FALSE,
		proposed_at TIMESTAMPTZ NOT NULL,
		doc JSONB NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_marriages_pending_pair
		ON marriages (proposer, proposee) WHERE NOT accepted`,
	`CREATE INDEX IF NOT EXISTS idx_marriages_active
		ON marriages (proposer, proposee) WHERE accepted AND NOT divorced`,
}

// Migrate applies the schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("Database schema applied")
	return nil
}
