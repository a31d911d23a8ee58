package service

import (
	"context"
	"time"

	"mould-rental-backend/internal/domain"
)

// Clock returns the current instant. Services default to time.Now.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// InventoryLedger keeps each equipment type's available count in step with
// the units held by ACTIVE rentals.
type InventoryLedger interface {
	Reserve(ctx context.Context, equipmentTypeID string, quantity int32) (int32, error)
	Release(ctx context.Context, equipmentTypeID string, quantity int32) (int32, error)
	// ReserveAll reserves every item or none of them.
	ReserveAll(ctx context.Context, items []domain.RentalItem) error
	// ReleaseAll releases every item, reconciling the types whose release
	// failed. The failures are returned joined.
	ReleaseAll(ctx context.Context, items []domain.RentalItem) error
	Reconcile(ctx context.Context, equipmentTypeID string) (*domain.ReconcileReport, error)
	ReconcileAll(ctx context.Context) ([]domain.ReconcileReport, error)
}

// ReceiptSequencer hands out receipt numbers that are unique across all
// rentals.
type ReceiptSequencer interface {
	// Next is the number the next issue would try first.
	Next(ctx context.Context) (string, error)
	// Issue calls commit with candidate numbers until one commits or the
	// attempt bound is reached. commit must return domain.ErrDuplicateReceipt
	// when the number is taken and must leave nothing behind in that case.
	Issue(ctx context.Context, commit func(ctx context.Context, receipt string) error) (string, error)
}

type RentalService interface {
	CreateRental(ctx context.Context, req *domain.CreateRentalRequest) (*domain.RentalView, error)
	ReturnRental(ctx context.Context, id string, returnAt time.Time) (*domain.RentalView, error)
	DeleteRental(ctx context.Context, id string) error
	GetRental(ctx context.Context, id string) (*domain.RentalView, error)
	ListRentals(ctx context.Context, filter domain.RentalFilter) ([]domain.RentalView, error)
	PreviewCharges(ctx context.Context, id string, at time.Time) (*domain.Charges, error)
}

type EquipmentService interface {
	CreateEquipmentType(ctx context.Context, name string, quantity int32) (*domain.EquipmentType, error)
	ListEquipmentTypes(ctx context.Context) ([]domain.EquipmentType, error)
	GetEquipmentType(ctx context.Context, id string) (*domain.EquipmentType, error)
	SetQuantity(ctx context.Context, id string, quantity int32) (*domain.EquipmentType, error)
	SeedEquipmentTypes(ctx context.Context) (int, error)
}

type CustomerService interface {
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type StatsService interface {
	GetDashboardStats(ctx context.Context, now time.Time) (*domain.DashboardStats, error)
}
