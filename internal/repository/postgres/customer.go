package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository"

	"github.com/google/uuid"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, full_name, contact_number, id_card_number, id_card_collected, id_card_collected_at, created_on`

func (r *customerRepository) FindOrCreate(ctx context.Context, c *domain.Customer) error {
	id := uuid.New().String()
	now := time.Now()
	var collectedAt *time.Time
	if c.IDCardCollected {
		collectedAt = &now
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `INSERT INTO customers (id, full_name, contact_number, id_card_number, id_card_collected, id_card_collected_at, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (id_card_number) DO UPDATE SET id_card_number = EXCLUDED.id_card_number
	          RETURNING ` + customerColumns
	return r.db.QueryRowContext(ctx, query, id, c.FullName, c.ContactNumber, c.IDCardNumber, c.IDCardCollected, collectedAt, now).
		Scan(&c.ID, &c.FullName, &c.ContactNumber, &c.IDCardNumber, &c.IDCardCollected, &c.IDCardCollectedAt, &c.CreatedOn)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c := &domain.Customer{}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.FullName, &c.ContactNumber, &c.IDCardNumber, &c.IDCardCollected, &c.IDCardCollectedAt, &c.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM customers WHERE id = $1
	          AND NOT EXISTS (SELECT 1 FROM rentals WHERE customer_id = $1 AND status = 'ACTIVE')`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrCustomerHasActiveRentals
}
