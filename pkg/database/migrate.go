package database

import (
	"context"
	"fmt"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS audit`,
	`CREATE TABLE IF NOT EXISTS audit.decision_records (
		run_id            TEXT PRIMARY KEY,
		symbol            TEXT NOT NULL,
		name              TEXT NOT NULL DEFAULT '',
		rating            TEXT NOT NULL,
		composite_score   DOUBLE PRECISION NOT NULL,
		rating_confidence DOUBLE PRECISION NOT NULL,
		config_hash       TEXT NOT NULL DEFAULT '',
		record            JSONB NOT NULL,
		decided_at        TIMESTAMPTZ NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decision_records_symbol
		ON audit.decision_records (symbol, decided_at DESC)`,
}

// Migrate creates the audit schema
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
