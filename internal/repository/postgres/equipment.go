package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"

	"github.com/google/uuid"
)

type equipmentRepository struct {
	db *sql.DB
}

func NewEquipmentRepository(db *sql.DB) repository.EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, name, quantity, available, created_on, updated_on`

func scanEquipment(row interface{ Scan(...any) error }, e *domain.EquipmentType) error {
	return row.Scan(&e.ID, &e.Name, &e.Quantity, &e.Available, &e.CreatedOn, &e.UpdatedOn)
}

func (r *equipmentRepository) Create(ctx context.Context, e *domain.EquipmentType) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now()
	query := `INSERT INTO equipment_types (id, name, quantity, available, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	logger.DatabaseCall("CreateEquipmentType", query, "name", e.Name)
	_, err := r.db.ExecContext(ctx, query, e.ID, e.Name, e.Quantity, e.Available, now, now)
	if isUniqueViolation(err, equipmentNameConstraint) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateName, e.Name)
	}
	if err != nil {
		return err
	}
	e.CreatedOn, e.UpdatedOn = now, now
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.EquipmentType, error) {
	return getEquipment(ctx, r.db, id)
}

func getEquipment(ctx context.Context, q querier, id string) (*domain.EquipmentType, error) {
	e := &domain.EquipmentType{}
	query := `SELECT ` + equipmentColumns + ` FROM equipment_types WHERE id = $1`
	err := scanEquipment(q.QueryRowContext(ctx, query, id), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEquipmentTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *equipmentRepository) List(ctx context.Context) ([]domain.EquipmentType, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment_types ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []domain.EquipmentType{}
	for rows.Next() {
		var e domain.EquipmentType
		if err := scanEquipment(rows, &e); err != nil {
			return nil, err
		}
		types = append(types, e)
	}
	return types, rows.Err()
}

func (r *equipmentRepository) Reserve(ctx context.Context, id string, qty int32) (int32, error) {
	return reserveUnits(ctx, r.db, id, qty)
}

func (r *equipmentRepository) Release(ctx context.Context, id string, qty int32) (int32, error) {
	return releaseUnits(ctx, r.db, id, qty)
}

// reserveUnits takes qty units with one guarded update. Inside a transaction
// the row stays locked until commit.
func reserveUnits(ctx context.Context, q querier, id string, qty int32) (int32, error) {
	query := `UPDATE equipment_types SET available = available - $1, updated_on = $2
	          WHERE id = $3 AND available >= $1 RETURNING available`
	logger.DatabaseCall("Reserve", query, "equipment_type_id", id, "quantity", qty)

	var available int32
	err := q.QueryRowContext(ctx, query, qty, time.Now(), id).Scan(&available)
	if err == nil {
		logger.DatabaseResult("Reserve", 1, nil, "available", available)
		return available, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("Reserve", 0, err)
		return 0, err
	}

	// The guarded update matched nothing: either the type is gone or there
	// are not enough units. This read only shapes the error.
	current, err := getEquipment(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return 0, &domain.InsufficientAvailabilityError{
		EquipmentTypeID: id,
		Name:            current.Name,
		Requested:       qty,
		Available:       current.Available,
	}
}

func releaseUnits(ctx context.Context, q querier, id string, qty int32) (int32, error) {
	query := `UPDATE equipment_types SET available = available + $1, updated_on = $2
	          WHERE id = $3 AND available + $1 <= quantity RETURNING available`
	logger.DatabaseCall("Release", query, "equipment_type_id", id, "quantity", qty)

	var available int32
	err := q.QueryRowContext(ctx, query, qty, time.Now(), id).Scan(&available)
	if err == nil {
		logger.DatabaseResult("Release", 1, nil, "available", available)
		return available, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		logger.DatabaseResult("Release", 0, err)
		return 0, err
	}

	current, err := getEquipment(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return current.Available, &domain.ConsistencyViolationError{
		EquipmentTypeID: id,
		Quantity:        current.Quantity,
		Available:       current.Available,
		Message:         fmt.Sprintf("releasing %d units would exceed quantity", qty),
	}
}

func (r *equipmentRepository) SetQuantity(ctx context.Context, id string, quantity int32) (*domain.EquipmentType, error) {
	query := `UPDATE equipment_types
	          SET available = available + ($1 - quantity), quantity = $1, updated_on = $2
	          WHERE id = $3 AND available + ($1 - quantity) >= 0
	          RETURNING ` + equipmentColumns
	logger.DatabaseCall("SetQuantity", query, "equipment_type_id", id, "quantity", quantity)

	e := &domain.EquipmentType{}
	err := scanEquipment(r.db.QueryRowContext(ctx, query, quantity, time.Now(), id), e)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &domain.InsufficientAvailabilityError{
		EquipmentTypeID: id,
		Name:            current.Name,
		Requested:       current.Rented(),
		Available:       quantity,
	}
}

func (r *equipmentRepository) Reconcile(ctx context.Context, id string) (*domain.ReconcileReport, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer rollback(tx, "Reconcile")

	report, err := reconcileUnits(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return report, nil
}

// reconcileUnits must run inside a transaction. The row lock makes it wait
// for any rental transaction that has reserved or released units of this
// type, so the ACTIVE sum it reads matches the counter it overwrites.
func reconcileUnits(ctx context.Context, tx querier, id string) (*domain.ReconcileReport, error) {
	report := &domain.ReconcileReport{EquipmentTypeID: id}

	err := tx.QueryRowContext(ctx,
		`SELECT name, quantity, available FROM equipment_types WHERE id = $1 FOR UPDATE`, id).
		Scan(&report.Name, &report.Quantity, &report.OldAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEquipmentTypeNotFound
	}
	if err != nil {
		return nil, err
	}

	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ri.quantity), 0) FROM rental_items ri
		 JOIN rentals r ON r.id = ri.rental_id
		 WHERE ri.equipment_type_id = $1 AND r.status = 'ACTIVE'`, id).
		Scan(&report.Committed)
	if err != nil {
		return nil, err
	}

	report.NewAvailable = report.Quantity - report.Committed
	if report.NewAvailable < 0 {
		// More units out than owned; the counter cannot go below zero.
		report.NewAvailable = 0
	}
	report.Delta = report.NewAvailable - report.OldAvailable

	if report.Delta != 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE equipment_types SET available = $1, updated_on = $2 WHERE id = $3`,
			report.NewAvailable, time.Now(), id)
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}
