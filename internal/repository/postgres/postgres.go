package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"

	"github.com/lib/pq"
)

// SQLSTATE 23505
const uniqueViolation = "23505"

const (
	receiptNumberConstraint = "rentals_receipt_number_key"
	equipmentNameConstraint = "equipment_types_name_key"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the unit counter
// statements can run alone or inside a rental's transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.EquipmentRepository
	repository.RentalRepository
	repository.CustomerRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                  db,
		EquipmentRepository: NewEquipmentRepository(db),
		RentalRepository:    NewRentalRepository(db),
		CustomerRepository:  NewCustomerRepository(db),
	}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// isUniqueViolation reports whether err is a unique constraint failure on
// the named constraint (any constraint when constraint is empty).
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func rollback(tx *sql.Tx, operation string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("Rollback failed", "operation", operation, "error", err)
	}
}
