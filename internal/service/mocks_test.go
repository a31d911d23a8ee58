package service_test

import (
	"context"
	"time"

	"mould-rental-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) MarkReturned(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) Delete(ctx context.Context, id string) (domain.RentalStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.RentalStatus), args.Error(1)
}
func (m *MockRentalRepo) MaxReceiptSuffix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockRentalRepo) CountActive(ctx context.Context) (int32, error) {
	args := m.Called(ctx)
	return args.Get(0).(int32), args.Error(1)
}
func (m *MockRentalRepo) ActivePickupTimes(ctx context.Context) ([]time.Time, error) {
	args := m.Called(ctx)
	return args.Get(0).([]time.Time), args.Error(1)
}
func (m *MockRentalRepo) SumRevenueSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}
