package jobs

import (
	"context"
	"testing"

	"mould-rental-backend/internal/config"
	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository/memory"
	"mould-rental-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickingLedger struct {
	service.InventoryLedger
}

func (panickingLedger) ReconcileAll(context.Context) ([]domain.ReconcileReport, error) {
	panic("boom")
}

type failingLedger struct {
	service.InventoryLedger
}

func (failingLedger) ReconcileAll(context.Context) ([]domain.ReconcileReport, error) {
	return nil, assert.AnError
}

func TestReconcileInventory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	e := &domain.EquipmentType{Name: "Stone", Quantity: 5, Available: 5}
	require.NoError(t, store.EquipmentRepository.Create(ctx, e))
	// Units taken without a rental to hold them.
	_, err := store.EquipmentRepository.Reserve(ctx, e.ID, 2)
	require.NoError(t, err)

	runner := NewJobRunner(&Services{Ledger: service.NewInventoryLedger(store.EquipmentRepository, 2)}, &config.Config{})
	runner.ReconcileInventory()

	got, err := store.EquipmentRepository.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.Available)
}

func TestRunWithRecovery(t *testing.T) {
	t.Run("Panic is contained", func(t *testing.T) {
		runner := NewJobRunner(&Services{Ledger: panickingLedger{}}, &config.Config{})
		assert.NotPanics(t, runner.ReconcileInventory)
	})

	t.Run("Error is returned", func(t *testing.T) {
		runner := NewJobRunner(&Services{Ledger: failingLedger{}}, &config.Config{})
		err := runner.runWithRecovery("ReconcileInventory", runner.reconcileInventory)
		assert.ErrorIs(t, err, assert.AnError)
	})
}
