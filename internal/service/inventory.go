package service

import (
	"context"
	"errors"
	"fmt"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

const defaultReconcileConcurrency = 4

type inventoryLedger struct {
	equipmentRepo repository.EquipmentRepository
	concurrency   int
}

// NewInventoryLedger builds the ledger over the equipment store. concurrency
// bounds how many types ReconcileAll works on at once.
func NewInventoryLedger(equipmentRepo repository.EquipmentRepository, concurrency int) InventoryLedger {
	if concurrency <= 0 {
		concurrency = defaultReconcileConcurrency
	}
	return &inventoryLedger{equipmentRepo: equipmentRepo, concurrency: concurrency}
}

func validateQuantity(quantity int32) error {
	if quantity < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}
	return nil
}

func (l *inventoryLedger) Reserve(ctx context.Context, equipmentTypeID string, quantity int32) (int32, error) {
	if err := validateQuantity(quantity); err != nil {
		return 0, err
	}
	available, err := l.equipmentRepo.Reserve(ctx, equipmentTypeID, quantity)
	if err != nil {
		return 0, err
	}
	logger.Debug("Units reserved", "equipment_type_id", equipmentTypeID, "quantity", quantity, "available", available)
	return available, nil
}

func (l *inventoryLedger) Release(ctx context.Context, equipmentTypeID string, quantity int32) (int32, error) {
	if err := validateQuantity(quantity); err != nil {
		return 0, err
	}
	available, err := l.equipmentRepo.Release(ctx, equipmentTypeID, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrConsistencyViolation) {
			logger.Error("Release refused, ledger has drifted",
				"equipment_type_id", equipmentTypeID, "quantity", quantity, "available", available, "error", err)
		}
		return available, err
	}
	logger.Debug("Units released", "equipment_type_id", equipmentTypeID, "quantity", quantity, "available", available)
	return available, nil
}

func (l *inventoryLedger) ReserveAll(ctx context.Context, items []domain.RentalItem) error {
	for _, it := range items {
		if err := validateQuantity(it.Quantity); err != nil {
			return err
		}
	}

	reserved := make([]domain.RentalItem, 0, len(items))
	for _, it := range items {
		if _, err := l.Reserve(ctx, it.EquipmentTypeID, it.Quantity); err != nil {
			if len(reserved) > 0 {
				// Undo the partial reservation before surfacing the failure,
				// even when the failure was ctx itself ending.
				if undoErr := l.ReleaseAll(context.WithoutCancel(ctx), reserved); undoErr != nil {
					logger.Error("Failed to undo partial reservation", "error", undoErr)
				}
			}
			return err
		}
		reserved = append(reserved, it)
	}
	return nil
}

func (l *inventoryLedger) ReleaseAll(ctx context.Context, items []domain.RentalItem) error {
	var errs []error
	for _, it := range items {
		if _, err := l.Release(ctx, it.EquipmentTypeID, it.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", it.EquipmentTypeID, err))
			if _, recErr := l.Reconcile(ctx, it.EquipmentTypeID); recErr != nil {
				logger.Error("Reconcile after failed release failed",
					"equipment_type_id", it.EquipmentTypeID, "error", recErr)
			}
		}
	}
	return errors.Join(errs...)
}

func (l *inventoryLedger) Reconcile(ctx context.Context, equipmentTypeID string) (*domain.ReconcileReport, error) {
	report, err := l.equipmentRepo.Reconcile(ctx, equipmentTypeID)
	if err != nil {
		return nil, err
	}
	l.logReport(report)
	return report, nil
}

func (l *inventoryLedger) logReport(r *domain.ReconcileReport) {
	if r.Committed > r.Quantity || r.OldAvailable > r.Quantity || r.OldAvailable < 0 {
		logger.Error("Inventory consistency violation",
			"equipment_type_id", r.EquipmentTypeID,
			"name", r.Name,
			"quantity", r.Quantity,
			"committed", r.Committed,
			"old_available", r.OldAvailable,
			"new_available", r.NewAvailable)
	}
	if r.Drifted() {
		logger.InventoryDrift(r.EquipmentTypeID, r.OldAvailable, r.NewAvailable, "name", r.Name)
	}
}

func (l *inventoryLedger) ReconcileAll(ctx context.Context) ([]domain.ReconcileReport, error) {
	logger.EnterMethod("inventoryLedger.ReconcileAll")

	types, err := l.equipmentRepo.List(ctx)
	if err != nil {
		logger.ExitMethodWithError("inventoryLedger.ReconcileAll", err)
		return nil, err
	}

	reports := make([]domain.ReconcileReport, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i := range types {
		id := types[i].ID
		g.Go(func() error {
			report, err := l.Reconcile(gctx, id)
			if errors.Is(err, domain.ErrEquipmentTypeNotFound) {
				// Removed since the listing; nothing left to correct.
				reports[i] = domain.ReconcileReport{EquipmentTypeID: id, Name: types[i].Name}
				return nil
			}
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", id, err)
			}
			reports[i] = *report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.ExitMethodWithError("inventoryLedger.ReconcileAll", err)
		return nil, err
	}

	drifted := 0
	for _, r := range reports {
		if r.Drifted() {
			drifted++
		}
	}
	logger.ExitMethod("inventoryLedger.ReconcileAll", "types", len(reports), "drifted", drifted)
	return reports, nil
}
