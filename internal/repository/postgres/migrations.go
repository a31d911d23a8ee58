package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"mould-rental-backend/internal/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS equipment_types (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		quantity    INTEGER NOT NULL DEFAULT 0,
		available   INTEGER NOT NULL DEFAULT 0,
		created_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT equipment_types_name_key UNIQUE (name),
		CONSTRAINT equipment_types_name_check CHECK (name <> ''),
		CONSTRAINT equipment_types_available_check CHECK (available >= 0 AND available <= quantity)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id                   TEXT PRIMARY KEY,
		full_name            TEXT NOT NULL,
		contact_number       TEXT NOT NULL,
		id_card_number       TEXT NOT NULL,
		id_card_collected    BOOLEAN NOT NULL DEFAULT FALSE,
		id_card_collected_at TIMESTAMPTZ,
		created_on           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT customers_id_card_number_key UNIQUE (id_card_number)
	)`,
	`CREATE TABLE IF NOT EXISTS rentals (
		id                       TEXT PRIMARY KEY,
		receipt_number           TEXT NOT NULL,
		customer_id              TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		status                   TEXT NOT NULL DEFAULT 'ACTIVE',
		pickup_at                TIMESTAMPTZ NOT NULL,
		return_at                TIMESTAMPTZ,
		deposit_cents            BIGINT NOT NULL,
		daily_rate_cents         BIGINT NOT NULL,
		days_used                INTEGER,
		total_charge_cents       BIGINT,
		refund_cents             BIGINT,
		additional_payment_cents BIGINT,
		created_by               TEXT,
		created_on               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_on               TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT rentals_receipt_number_key UNIQUE (receipt_number),
		CONSTRAINT rentals_status_check CHECK (status IN ('ACTIVE', 'RETURNED')),
		CONSTRAINT rentals_amounts_check CHECK (deposit_cents >= 0 AND daily_rate_cents >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS rental_items (
		id                TEXT PRIMARY KEY,
		rental_id         TEXT NOT NULL REFERENCES rentals(id) ON DELETE CASCADE,
		equipment_type_id TEXT NOT NULL REFERENCES equipment_types(id),
		quantity          INTEGER NOT NULL CHECK (quantity >= 1)
	)`,
	`CREATE INDEX IF NOT EXISTS rental_items_equipment_type_idx ON rental_items (equipment_type_id)`,
	`CREATE INDEX IF NOT EXISTS rentals_status_idx ON rentals (status)`,
	`CREATE INDEX IF NOT EXISTS rentals_customer_idx ON rentals (customer_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer rollback(tx, "Migrate")

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	logger.Info("Database schema is up to date", "statements", len(schema))
	return nil
}
