package service_test

import (
	"context"
	"testing"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository/memory"
	"mould-rental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquipmentService_CreateEquipmentType(t *testing.T) {
	ctx := context.Background()
	svc := service.NewEquipmentService(memory.New().EquipmentRepository)

	e, err := svc.CreateEquipmentType(ctx, "  Royal Ashler Bold 1 ", 12)
	require.NoError(t, err)
	assert.Equal(t, "Royal Ashler Bold 1", e.Name)
	assert.Equal(t, int32(12), e.Available)

	_, err = svc.CreateEquipmentType(ctx, "Royal Ashler Bold 1", 3)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	_, err = svc.CreateEquipmentType(ctx, "", 3)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.CreateEquipmentType(ctx, "Y wood", -1)
	assert.True(t, domain.IsValidation(err))
}

func TestEquipmentService_SetQuantity(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := service.NewEquipmentService(store.EquipmentRepository)
	ledger := service.NewInventoryLedger(store.EquipmentRepository, 0)

	e, err := svc.CreateEquipmentType(ctx, "Stone", 10)
	require.NoError(t, err)
	_, err = ledger.Reserve(ctx, e.ID, 6)
	require.NoError(t, err)

	t.Run("Grow", func(t *testing.T) {
		updated, err := svc.SetQuantity(ctx, e.ID, 15)
		require.NoError(t, err)
		assert.Equal(t, int32(15), updated.Quantity)
		assert.Equal(t, int32(9), updated.Available)
	})

	t.Run("Shrink to rented units", func(t *testing.T) {
		updated, err := svc.SetQuantity(ctx, e.ID, 6)
		require.NoError(t, err)
		assert.Equal(t, int32(0), updated.Available)
	})

	t.Run("Below rented units", func(t *testing.T) {
		_, err := svc.SetQuantity(ctx, e.ID, 5)
		var insufficient *domain.InsufficientAvailabilityError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int32(1), insufficient.Shortfall())
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := svc.SetQuantity(ctx, e.ID, -1)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestEquipmentService_SeedEquipmentTypes(t *testing.T) {
	ctx := context.Background()
	svc := service.NewEquipmentService(memory.New().EquipmentRepository)

	_, err := svc.CreateEquipmentType(ctx, "Stone", 4)
	require.NoError(t, err)

	created, err := svc.SeedEquipmentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(domain.DefaultMouldNames)-1, created)

	again, err := svc.SeedEquipmentTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again)

	types, err := svc.ListEquipmentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, len(domain.DefaultMouldNames))
	for _, e := range types {
		if e.Name == "Stone" {
			assert.Equal(t, int32(4), e.Quantity)
		}
	}
}
