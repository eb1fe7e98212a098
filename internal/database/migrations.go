package database

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS checkout_attempts (
		id              UUID PRIMARY KEY,
		order_id        BIGINT NOT NULL UNIQUE,
		user_id         BIGINT NOT NULL,
		amount          NUMERIC(12, 2) NOT NULL,
		idempotency_key UUID NOT NULL UNIQUE,
		status          VARCHAR(20) NOT NULL,
		transaction_id  VARCHAR(100) NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_checkout_attempts_status_updated
		ON checkout_attempts (status, updated_at)`,
}

// Migrate creates the checkout ledger schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
