package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `r.id, r.receipt_number, r.customer_id, r.status, r.pickup_at, r.return_at,
	r.deposit_cents, r.daily_rate_cents, r.days_used, r.total_charge_cents, r.refund_cents,
	r.additional_payment_cents, COALESCE(r.created_by, ''), r.created_on, r.updated_on,
	c.full_name, c.contact_number, c.id_card_number, c.id_card_collected, c.id_card_collected_at, c.created_on`

const rentalFrom = ` FROM rentals r JOIN customers c ON c.id = r.customer_id`

func scanRental(row interface{ Scan(...any) error }) (*domain.Rental, error) {
	rt := &domain.Rental{Customer: &domain.Customer{}}
	err := row.Scan(&rt.ID, &rt.ReceiptNumber, &rt.CustomerID, &rt.Status, &rt.PickupAt, &rt.ReturnAt,
		&rt.DepositCents, &rt.DailyRateCents, &rt.DaysUsed, &rt.TotalChargeCents, &rt.RefundCents,
		&rt.AdditionalPaymentCents, &rt.CreatedBy, &rt.CreatedOn, &rt.UpdatedOn,
		&rt.Customer.FullName, &rt.Customer.ContactNumber, &rt.Customer.IDCardNumber,
		&rt.Customer.IDCardCollected, &rt.Customer.IDCardCollectedAt, &rt.Customer.CreatedOn)
	if err != nil {
		return nil, err
	}
	rt.Customer.ID = rt.CustomerID
	return rt, nil
}

// unitsByType folds items into one line per equipment type, ordered by id so
// that concurrent transactions lock equipment rows in the same order.
func unitsByType(items []domain.RentalItem) []domain.RentalItem {
	index := make(map[string]int, len(items))
	units := make([]domain.RentalItem, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.EquipmentTypeID]; ok {
			units[i].Quantity += it.Quantity
			continue
		}
		index[it.EquipmentTypeID] = len(units)
		units = append(units, domain.RentalItem{EquipmentTypeID: it.EquipmentTypeID, Quantity: it.Quantity})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].EquipmentTypeID < units[j].EquipmentTypeID })
	return units
}

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	now := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx, "CreateRental")

	for _, u := range unitsByType(rt.Items) {
		if _, err := reserveUnits(ctx, tx, u.EquipmentTypeID, u.Quantity); err != nil {
			return err
		}
	}

	query := `INSERT INTO rentals (id, receipt_number, customer_id, status, pickup_at, deposit_cents, daily_rate_cents, created_by, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("CreateRental", query, "receipt_number", rt.ReceiptNumber)
	_, err = tx.ExecContext(ctx, query, rt.ID, rt.ReceiptNumber, rt.CustomerID, rt.Status, rt.PickupAt,
		rt.DepositCents, rt.DailyRateCents, rt.CreatedBy, now, now)
	if isUniqueViolation(err, receiptNumberConstraint) {
		return domain.ErrDuplicateReceipt
	}
	if err != nil {
		return err
	}

	itemQuery := `INSERT INTO rental_items (id, rental_id, equipment_type_id, quantity) VALUES ($1, $2, $3, $4)`
	for i := range rt.Items {
		it := &rt.Items[i]
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.RentalID = rt.ID
		if _, err := tx.ExecContext(ctx, itemQuery, it.ID, it.RentalID, it.EquipmentTypeID, it.Quantity); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	rt.CreatedOn, rt.UpdatedOn = now, now
	return nil
}

func loadItemUnits(ctx context.Context, tx querier, rentalID string) ([]domain.RentalItem, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT equipment_type_id, quantity FROM rental_items WHERE rental_id = $1`, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RentalItem
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.EquipmentTypeID, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// releaseItems gives a rental's units back inside its transaction. A release
// the counter cannot take is repaired by reconciling that type in place.
func releaseItems(ctx context.Context, tx querier, rentalID string, items []domain.RentalItem) error {
	for _, u := range unitsByType(items) {
		_, err := releaseUnits(ctx, tx, u.EquipmentTypeID, u.Quantity)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrConsistencyViolation) {
			return err
		}
		logger.Error("Release refused, ledger has drifted", "rental_id", rentalID,
			"equipment_type_id", u.EquipmentTypeID, "quantity", u.Quantity, "error", err)
		report, err := reconcileUnits(ctx, tx, u.EquipmentTypeID)
		if err != nil {
			return err
		}
		logger.InventoryDrift(report.EquipmentTypeID, report.OldAvailable, report.NewAvailable, "name", report.Name)
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + rentalFrom + ` WHERE r.id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRentalNotFound
	}
	if err != nil {
		return nil, err
	}

	rentals := []domain.Rental{*rt}
	if err := r.attachItems(ctx, rentals); err != nil {
		return nil, err
	}
	return &rentals[0], nil
}

func (r *rentalRepository) List(ctx context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + rentalFrom + ` WHERE 1 = 1`
	var args []interface{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND r.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.CustomerID != "" {
		query += fmt.Sprintf(" AND r.customer_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += fmt.Sprintf(" AND (c.full_name ILIKE $%d OR c.contact_number ILIKE $%d OR r.receipt_number ILIKE $%d)", argIdx, argIdx, argIdx)
		args = append(args, "%"+search+"%")
		argIdx++
	}
	query += " ORDER BY r.created_on DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, rentals); err != nil {
		return nil, err
	}
	return rentals, nil
}

// attachItems loads the line items of all given rentals in one query.
func (r *rentalRepository) attachItems(ctx context.Context, rentals []domain.Rental) error {
	if len(rentals) == 0 {
		return nil
	}
	ids := make([]string, len(rentals))
	index := make(map[string]int, len(rentals))
	for i := range rentals {
		ids[i] = rentals[i].ID
		index[rentals[i].ID] = i
		rentals[i].Items = []domain.RentalItem{}
	}

	query := `SELECT ri.id, ri.rental_id, ri.equipment_type_id, ri.quantity,
	                 e.name, e.quantity, e.available, e.created_on, e.updated_on
	          FROM rental_items ri JOIN equipment_types e ON e.id = ri.equipment_type_id
	          WHERE ri.rental_id = ANY($1) ORDER BY e.name ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.RentalItem
		e := &domain.EquipmentType{}
		if err := rows.Scan(&it.ID, &it.RentalID, &it.EquipmentTypeID, &it.Quantity,
			&e.Name, &e.Quantity, &e.Available, &e.CreatedOn, &e.UpdatedOn); err != nil {
			return err
		}
		e.ID = it.EquipmentTypeID
		it.EquipmentType = e
		if i, ok := index[it.RentalID]; ok {
			rentals[i].Items = append(rentals[i].Items, it)
		}
	}
	return rows.Err()
}

func (r *rentalRepository) MarkReturned(ctx context.Context, rt *domain.Rental) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer rollback(tx, "MarkReturned")

	query := `UPDATE rentals SET status = $1, return_at = $2, days_used = $3, total_charge_cents = $4,
	          refund_cents = $5, additional_payment_cents = $6, updated_on = $7
	          WHERE id = $8 AND status = 'ACTIVE'`
	logger.DatabaseCall("MarkReturned", query, "rental_id", rt.ID)
	now := time.Now()
	result, err := tx.ExecContext(ctx, query, domain.RentalStatusReturned, rt.ReturnAt, rt.DaysUsed,
		rt.TotalChargeCents, rt.RefundCents, rt.AdditionalPaymentCents, now, rt.ID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	logger.DatabaseResult("MarkReturned", n, nil)
	if n == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rentals WHERE id = $1)`, rt.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrRentalNotFound
		}
		return domain.ErrRentalNotActive
	}

	items, err := loadItemUnits(ctx, tx, rt.ID)
	if err != nil {
		return err
	}
	if err := releaseItems(ctx, tx, rt.ID, items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	rt.UpdatedOn = now
	return nil
}

func (r *rentalRepository) Delete(ctx context.Context, id string) (domain.RentalStatus, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer rollback(tx, "DeleteRental")

	items, err := loadItemUnits(ctx, tx, id)
	if err != nil {
		return "", err
	}

	query := `DELETE FROM rentals WHERE id = $1 RETURNING status`
	logger.DatabaseCall("DeleteRental", query, "rental_id", id)
	var status domain.RentalStatus
	err = tx.QueryRowContext(ctx, query, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrRentalNotFound
	}
	if err != nil {
		return "", err
	}

	// Only an ACTIVE rental still holds units.
	if status == domain.RentalStatusActive {
		if err := releaseItems(ctx, tx, id, items); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return status, nil
}

func (r *rentalRepository) MaxReceiptSuffix(ctx context.Context, prefix string) (int64, error) {
	query := `SELECT COALESCE(MAX(CASE WHEN substring(receipt_number FROM length($1) + 1) ~ '^[0-9]{1,18}$'
	                                   THEN CAST(substring(receipt_number FROM length($1) + 1) AS BIGINT) END), 0)
	          FROM rentals WHERE left(receipt_number, length($1)) = $1`
	var max int64
	err := r.db.QueryRowContext(ctx, query, prefix).Scan(&max)
	return max, err
}

func (r *rentalRepository) CountActive(ctx context.Context) (int32, error) {
	var count int32
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM rentals WHERE status = 'ACTIVE'`).Scan(&count)
	return count, err
}

func (r *rentalRepository) ActivePickupTimes(ctx context.Context) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT pickup_at FROM rentals WHERE status = 'ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pickups []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		pickups = append(pickups, t)
	}
	return pickups, rows.Err()
}

func (r *rentalRepository) SumRevenueSince(ctx context.Context, since time.Time) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(total_charge_cents), 0) FROM rentals WHERE status = 'RETURNED' AND return_at >= $1`
	err := r.db.QueryRowContext(ctx, query, since).Scan(&total)
	return total, err
}
