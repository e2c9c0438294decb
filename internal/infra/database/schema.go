// internal/infra/database/schema.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the tables and indexes the service needs. Every statement is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS mothers (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL DEFAULT '',
		must_reset_password BOOLEAN NOT NULL DEFAULT FALSE,
		full_name TEXT NOT NULL,
		phone_number TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS babies (
		id UUID PRIMARY KEY,
		mother_id UUID NOT NULL REFERENCES mothers(id),
		name TEXT NOT NULL,
		date_of_birth DATE NOT NULL,
		gender TEXT NOT NULL CHECK (gender IN ('male', 'female')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_baby_name_per_mother UNIQUE (mother_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS vaccination_schedules (
		id SERIAL PRIMARY KEY,
		age TEXT NOT NULL,
		vaccine TEXT NOT NULL,
		protection_against TEXT NOT NULL DEFAULT '',
		CONSTRAINT unique_age_vaccine UNIQUE (age, vaccine)
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		id BIGSERIAL PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('weekly', 'daily')),
		mother_id UUID NOT NULL REFERENCES mothers(id),
		baby_id UUID NOT NULL REFERENCES babies(id),
		vaccine TEXT NOT NULL,
		vaccination_date DATE NOT NULL,
		scheduled_at TIMESTAMPTZ NOT NULL,
		sent BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS pending_reminders ON reminders (scheduled_at, sent)`,
	`CREATE INDEX IF NOT EXISTS reminders_by_baby ON reminders (mother_id, baby_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS unique_unsent_reminder
		ON reminders (mother_id, baby_id, vaccine, vaccination_date, type)
		WHERE sent = FALSE`,
}

// EnsureSchema applies schemaStatements in a single transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	txn, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer txn.Rollback()

	for i, stmt := range schemaStatements {
		if _, err := txn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema statement %d: %w", i, err)
		}
	}
	return txn.Commit()
}
