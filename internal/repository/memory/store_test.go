package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"mould-rental-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store, name string, quantity int32) *domain.EquipmentType {
	t.Helper()
	e := &domain.EquipmentType{Name: name, Quantity: quantity, Available: quantity}
	require.NoError(t, s.EquipmentRepository.Create(context.Background(), e))
	return e
}

func customer(t *testing.T, s *Store, card string) *domain.Customer {
	t.Helper()
	c := &domain.Customer{FullName: "Ama Mensah", ContactNumber: "0240000000", IDCardNumber: card}
	require.NoError(t, s.CustomerRepository.FindOrCreate(context.Background(), c))
	return c
}

func TestEquipment_ReserveRelease(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := seed(t, s, "Stone", 5)

	available, err := s.EquipmentRepository.Reserve(ctx, e.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), available)

	_, err = s.EquipmentRepository.Reserve(ctx, e.ID, 3)
	var insufficient *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int32(1), insufficient.Shortfall())

	available, err = s.EquipmentRepository.Release(ctx, e.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), available)

	_, err = s.EquipmentRepository.Release(ctx, e.ID, 1)
	assert.ErrorIs(t, err, domain.ErrConsistencyViolation)

	_, err = s.EquipmentRepository.Reserve(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEquipment_DuplicateName(t *testing.T) {
	s := New()
	seed(t, s, "Stone", 1)
	err := s.EquipmentRepository.Create(context.Background(), &domain.EquipmentType{Name: "Stone"})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestEquipment_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := seed(t, s, "Stone", 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.EquipmentRepository.Reserve(ctx, e.ID, 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.EquipmentRepository.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.Available)
}

func TestRental_CreateAndReceiptUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := seed(t, s, "Stone", 5)
	c := customer(t, s, "GHA-1")

	rt := &domain.Rental{
		ReceiptNumber: "MRT-000001",
		CustomerID:    c.ID,
		Status:        domain.RentalStatusActive,
		PickupAt:      time.Now(),
		Items:         []domain.RentalItem{{EquipmentTypeID: e.ID, Quantity: 2}},
	}
	require.NoError(t, s.RentalRepository.Create(ctx, rt))

	dup := *rt
	dup.ID = ""
	assert.ErrorIs(t, s.RentalRepository.Create(ctx, &dup), domain.ErrDuplicateReceipt)

	got, err := s.RentalRepository.GetByID(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ama Mensah", got.Customer.FullName)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Stone", got.Items[0].EquipmentType.Name)
}

func TestRental_MaxReceiptSuffix(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := customer(t, s, "GHA-1")

	for _, receipt := range []string{"MRT-000003", "MRT-000010", "MRT-abc", "MRT-+99", "OTHER-000500"} {
		require.NoError(t, s.RentalRepository.Create(ctx, &domain.Rental{
			ReceiptNumber: receipt, CustomerID: c.ID, Status: domain.RentalStatusActive,
		}))
	}

	max, err := s.RentalRepository.MaxReceiptSuffix(ctx, "MRT-")
	require.NoError(t, err)
	assert.Equal(t, int64(10), max)

	max, err = s.RentalRepository.MaxReceiptSuffix(ctx, "NONE-")
	require.NoError(t, err)
	assert.Equal(t, int64(0), max)
}

func TestRental_MarkReturnedOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := customer(t, s, "GHA-1")
	rt := &domain.Rental{ReceiptNumber: "MRT-000001", CustomerID: c.ID, Status: domain.RentalStatusActive}
	require.NoError(t, s.RentalRepository.Create(ctx, rt))

	rt.Settle(time.Now(), domain.Charges{DaysUsed: 2, TotalChargeCents: 20000, RefundCents: 80000})
	require.NoError(t, s.RentalRepository.MarkReturned(ctx, rt))
	assert.ErrorIs(t, s.RentalRepository.MarkReturned(ctx, rt), domain.ErrRentalNotActive)

	revenue, err := s.RentalRepository.SumRevenueSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), revenue)

	status, err := s.RentalRepository.Delete(ctx, rt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RentalStatusReturned, status)

	_, err = s.RentalRepository.GetByID(ctx, rt.ID)
	assert.ErrorIs(t, err, domain.ErrRentalNotFound)
}

func TestRental_ListSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	ama := customer(t, s, "GHA-1")
	kofi := &domain.Customer{FullName: "Kofi Boateng", ContactNumber: "0550000000", IDCardNumber: "GHA-2"}
	require.NoError(t, s.CustomerRepository.FindOrCreate(ctx, kofi))

	require.NoError(t, s.RentalRepository.Create(ctx, &domain.Rental{ReceiptNumber: "MRT-000001", CustomerID: ama.ID, Status: domain.RentalStatusActive}))
	require.NoError(t, s.RentalRepository.Create(ctx, &domain.Rental{ReceiptNumber: "MRT-000002", CustomerID: kofi.ID, Status: domain.RentalStatusActive}))

	all, err := s.RentalRepository.List(ctx, domain.RentalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "MRT-000002", all[0].ReceiptNumber)

	found, err := s.RentalRepository.List(ctx, domain.RentalFilter{Search: "KOFI"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, kofi.ID, found[0].CustomerID)

	found, err = s.RentalRepository.List(ctx, domain.RentalFilter{Search: "000001"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ama.ID, found[0].CustomerID)
}

func TestCustomer_FindOrCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	first := customer(t, s, "GHA-1")

	again := &domain.Customer{FullName: "Someone Else", IDCardNumber: "GHA-1"}
	require.NoError(t, s.CustomerRepository.FindOrCreate(ctx, again))
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Ama Mensah", again.FullName)

	rt := &domain.Rental{ReceiptNumber: "MRT-000001", CustomerID: first.ID, Status: domain.RentalStatusActive}
	require.NoError(t, s.RentalRepository.Create(ctx, rt))
	assert.ErrorIs(t, s.CustomerRepository.Delete(ctx, first.ID), domain.ErrCustomerHasActiveRentals)

	rt.Settle(time.Now(), domain.Charges{})
	require.NoError(t, s.RentalRepository.MarkReturned(ctx, rt))
	require.NoError(t, s.CustomerRepository.Delete(ctx, first.ID))

	_, err := s.RentalRepository.GetByID(ctx, rt.ID)
	assert.ErrorIs(t, err, domain.ErrRentalNotFound)
	assert.ErrorIs(t, s.CustomerRepository.Delete(ctx, first.ID), domain.ErrCustomerNotFound)
}

func TestEquipment_Reconcile(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := seed(t, s, "Stone", 10)
	c := customer(t, s, "GHA-1")
	require.NoError(t, s.RentalRepository.Create(ctx, &domain.Rental{
		ReceiptNumber: "MRT-000001", CustomerID: c.ID, Status: domain.RentalStatusActive,
		Items: []domain.RentalItem{{EquipmentTypeID: e.ID, Quantity: 4}},
	}))

	// A stray release puts back units the rental still holds.
	_, err := s.EquipmentRepository.Release(ctx, e.ID, 2)
	require.NoError(t, err)

	report, err := s.EquipmentRepository.Reconcile(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(4), report.Committed)
	assert.Equal(t, int32(8), report.OldAvailable)
	assert.Equal(t, int32(6), report.NewAvailable)
	assert.Equal(t, int32(-2), report.Delta)

	report, err = s.EquipmentRepository.Reconcile(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, report.Drifted())
}

func TestRental_UnitsMoveWithTheRental(t *testing.T) {
	ctx := context.Background()
	s := New()
	stone := seed(t, s, "Stone", 5)
	compass := seed(t, s, "Compass", 2)
	c := customer(t, s, "GHA-1")
	availableOf := func(id string) int32 {
		e, err := s.EquipmentRepository.GetByID(ctx, id)
		require.NoError(t, err)
		return e.Available
	}
	newRental := func(receipt string, items ...domain.RentalItem) *domain.Rental {
		return &domain.Rental{ReceiptNumber: receipt, CustomerID: c.ID, Status: domain.RentalStatusActive, Items: items}
	}

	first := newRental("MRT-000001",
		domain.RentalItem{EquipmentTypeID: stone.ID, Quantity: 2},
		domain.RentalItem{EquipmentTypeID: compass.ID, Quantity: 1},
	)
	require.NoError(t, s.RentalRepository.Create(ctx, first))
	assert.Equal(t, int32(3), availableOf(stone.ID))
	assert.Equal(t, int32(1), availableOf(compass.ID))

	t.Run("Refused create holds nothing", func(t *testing.T) {
		// The two compass lines together want more than is free.
		err := s.RentalRepository.Create(ctx, newRental("MRT-000002",
			domain.RentalItem{EquipmentTypeID: stone.ID, Quantity: 3},
			domain.RentalItem{EquipmentTypeID: compass.ID, Quantity: 1},
			domain.RentalItem{EquipmentTypeID: compass.ID, Quantity: 1},
		))
		var insufficient *domain.InsufficientAvailabilityError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, compass.ID, insufficient.EquipmentTypeID)
		assert.Equal(t, int32(1), insufficient.Shortfall())
		assert.Equal(t, int32(3), availableOf(stone.ID))
		assert.Equal(t, int32(1), availableOf(compass.ID))

		dup := newRental("MRT-000001", domain.RentalItem{EquipmentTypeID: stone.ID, Quantity: 1})
		assert.ErrorIs(t, s.RentalRepository.Create(ctx, dup), domain.ErrDuplicateReceipt)
		assert.Equal(t, int32(3), availableOf(stone.ID))
	})

	t.Run("Return releases", func(t *testing.T) {
		first.Settle(time.Now(), domain.Charges{})
		require.NoError(t, s.RentalRepository.MarkReturned(ctx, first))
		assert.Equal(t, int32(5), availableOf(stone.ID))
		assert.Equal(t, int32(2), availableOf(compass.ID))

		_, err := s.RentalRepository.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(5), availableOf(stone.ID))
	})

	t.Run("Deleting an active rental releases", func(t *testing.T) {
		rt := newRental("MRT-000003", domain.RentalItem{EquipmentTypeID: stone.ID, Quantity: 4})
		require.NoError(t, s.RentalRepository.Create(ctx, rt))
		assert.Equal(t, int32(1), availableOf(stone.ID))

		status, err := s.RentalRepository.Delete(ctx, rt.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusActive, status)
		assert.Equal(t, int32(5), availableOf(stone.ID))
	})
}
