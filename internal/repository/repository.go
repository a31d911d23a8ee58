package repository

import (
	"context"
	"time"

	"mould-rental-backend/internal/domain"
)

// EquipmentRepository owns the equipment_types rows. Reserve, Release and
// SetQuantity are single atomic conditional updates: the availability check
// and the write are never split across two round trips.
type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.EquipmentType) error
	GetByID(ctx context.Context, id string) (*domain.EquipmentType, error)
	List(ctx context.Context) ([]domain.EquipmentType, error)

	// Reserve decrements available by qty if at least qty units are free and
	// returns the new available count. Otherwise nothing changes and an
	// *domain.InsufficientAvailabilityError is returned.
	Reserve(ctx context.Context, id string, qty int32) (int32, error)
	// Release increments available by qty. An increment that would exceed
	// quantity is refused with *domain.ConsistencyViolationError.
	Release(ctx context.Context, id string, qty int32) (int32, error)
	// SetQuantity changes the owned quantity and shifts available by the same
	// delta. Refused if units out on rental exceed the new quantity.
	SetQuantity(ctx context.Context, id string, quantity int32) (*domain.EquipmentType, error)
	// Reconcile recomputes available as quantity minus the units held by
	// ACTIVE rentals, writing it back when it differs.
	Reconcile(ctx context.Context, id string) (*domain.ReconcileReport, error)
}

type RentalRepository interface {
	// Create reserves the units of every item and persists the rental with
	// its items in one transaction. Too few units yield
	// *domain.InsufficientAvailabilityError and a taken receipt number
	// domain.ErrDuplicateReceipt; either way nothing is left behind.
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error)
	// MarkReturned stores the settlement and releases the rental's units in
	// one transaction, only if the rental is still ACTIVE, otherwise
	// domain.ErrRentalNotActive.
	MarkReturned(ctx context.Context, rental *domain.Rental) error
	// Delete removes the rental with its items and reports the status it had
	// at the moment it was removed. Units of an ACTIVE rental are released in
	// the same transaction.
	Delete(ctx context.Context, id string) (domain.RentalStatus, error)
	// MaxReceiptSuffix is the largest numeric suffix among receipt numbers
	// carrying prefix. Non-numeric suffixes are ignored; 0 when there are none.
	MaxReceiptSuffix(ctx context.Context, prefix string) (int64, error)

	CountActive(ctx context.Context) (int32, error)
	ActivePickupTimes(ctx context.Context) ([]time.Time, error)
	SumRevenueSince(ctx context.Context, since time.Time) (int64, error)
}

type CustomerRepository interface {
	// FindOrCreate returns the customer with c.IDCardNumber, creating it from
	// c when there is none. c is filled in with the stored row either way.
	FindOrCreate(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// Delete removes a customer with no ACTIVE rentals, cascading its
	// returned rentals.
	Delete(ctx context.Context, id string) error
}
