package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"
	"mould-rental-backend/internal/utils"
)

// RentalDefaults are the prices used when a request leaves them out.
type RentalDefaults struct {
	DepositCents   int64
	DailyRateCents int64
}

type rentalService struct {
	rentalRepo   repository.RentalRepository
	customerRepo repository.CustomerRepository
	receipts     ReceiptSequencer
	billing      *utils.BillingCalculator
	defaults     RentalDefaults
	clock        Clock
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	customerRepo repository.CustomerRepository,
	receipts ReceiptSequencer,
	billing *utils.BillingCalculator,
	defaults RentalDefaults,
	clock Clock,
) RentalService {
	if billing == nil {
		billing = utils.NewBillingCalculator(nil, 0)
	}
	return &rentalService{
		rentalRepo:   rentalRepo,
		customerRepo: customerRepo,
		receipts:     receipts,
		billing:      billing,
		defaults:     defaults,
		clock:        clock,
	}
}

// mergeItems validates the requested lines and folds repeated equipment
// types into one line, keeping first-seen order.
func mergeItems(items []domain.ItemRequest) ([]domain.RentalItem, error) {
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}
	merged := make([]domain.RentalItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.EquipmentTypeID)
		if id == "" {
			return nil, domain.NewValidationError("items.equipment_type_id", "is required")
		}
		if it.Quantity < 1 {
			return nil, domain.NewValidationError("items.quantity", "must be at least 1")
		}
		if i, ok := index[id]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, domain.RentalItem{EquipmentTypeID: id, Quantity: it.Quantity})
	}
	return merged, nil
}

func validateCustomer(c domain.CustomerDetails) (domain.CustomerDetails, error) {
	c.FullName = strings.TrimSpace(c.FullName)
	c.ContactNumber = strings.TrimSpace(c.ContactNumber)
	c.IDCardNumber = strings.TrimSpace(c.IDCardNumber)
	switch {
	case c.FullName == "":
		return c, domain.NewValidationError("customer.full_name", "is required")
	case c.ContactNumber == "":
		return c, domain.NewValidationError("customer.contact_number", "is required")
	case c.IDCardNumber == "":
		return c, domain.NewValidationError("customer.id_card_number", "is required")
	}
	return c, nil
}

func amountOrDefault(field string, v *int64, def int64) (int64, error) {
	if v == nil {
		return def, nil
	}
	if *v < 0 {
		return 0, domain.NewValidationError(field, "must not be negative")
	}
	return *v, nil
}

// rentalDraft is a creation request after validation and defaulting.
type rentalDraft struct {
	customer domain.CustomerDetails
	items    []domain.RentalItem
	deposit  int64
	rate     int64
}

func (s *rentalService) validateCreate(req *domain.CreateRentalRequest) (*rentalDraft, error) {
	if req == nil {
		return nil, domain.NewValidationError("", "request is required")
	}
	d := &rentalDraft{}
	var err error
	if d.customer, err = validateCustomer(req.Customer); err != nil {
		return nil, err
	}
	if d.items, err = mergeItems(req.Items); err != nil {
		return nil, err
	}
	if d.deposit, err = amountOrDefault("deposit_cents", req.DepositCents, s.defaults.DepositCents); err != nil {
		return nil, err
	}
	if d.rate, err = amountOrDefault("daily_rate_cents", req.DailyRateCents, s.defaults.DailyRateCents); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *rentalService) CreateRental(ctx context.Context, req *domain.CreateRentalRequest) (*domain.RentalView, error) {
	logger.EnterMethod("rentalService.CreateRental")

	draft, err := s.validateCreate(req)
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}
	pickup := req.PickupAt
	if pickup.IsZero() {
		pickup = s.clock.now()
	}

	customer := &domain.Customer{
		FullName:        draft.customer.FullName,
		ContactNumber:   draft.customer.ContactNumber,
		IDCardNumber:    draft.customer.IDCardNumber,
		IDCardCollected: draft.customer.IDCardCollected,
	}
	if err := s.customerRepo.FindOrCreate(ctx, customer); err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err)
		return nil, err
	}

	rental := &domain.Rental{
		CustomerID:     customer.ID,
		Status:         domain.RentalStatusActive,
		PickupAt:       pickup,
		DepositCents:   draft.deposit,
		DailyRateCents: draft.rate,
		Items:          draft.items,
		CreatedBy:      req.CreatedBy,
	}
	// Each attempt reserves the units and inserts the rental in one
	// transaction, so a refused attempt holds nothing.
	_, err = s.receipts.Issue(ctx, func(ctx context.Context, receipt string) error {
		rental.ReceiptNumber = receipt
		return s.rentalRepo.Create(ctx, rental)
	})
	if err != nil {
		logger.ExitMethodWithError("rentalService.CreateRental", err, "customer_id", customer.ID)
		return nil, err
	}

	logger.Info("Rental created",
		"rental_id", rental.ID,
		"receipt_number", rental.ReceiptNumber,
		"customer_id", customer.ID,
		"units", rental.TotalUnits())

	created, err := s.rentalRepo.GetByID(ctx, rental.ID)
	if err != nil {
		// Committed already; fall back to what we wrote.
		rental.Customer = customer
		created = rental
	}
	view := s.view(*created, s.clock.now())
	logger.ExitMethod("rentalService.CreateRental", "rental_id", rental.ID)
	return &view, nil
}

func (s *rentalService) ReturnRental(ctx context.Context, id string, returnAt time.Time) (*domain.RentalView, error) {
	logger.EnterMethod("rentalService.ReturnRental", "rental_id", id)

	if returnAt.IsZero() {
		returnAt = s.clock.now()
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.ReturnRental", err, "rental_id", id)
		return nil, err
	}
	if !rental.IsActive() {
		logger.ExitMethodWithError("rentalService.ReturnRental", domain.ErrRentalNotActive, "rental_id", id)
		return nil, domain.ErrRentalNotActive
	}
	if returnAt.Before(rental.PickupAt) {
		err := domain.NewValidationError("return_at", "must not be before pickup")
		logger.ExitMethodWithError("rentalService.ReturnRental", err, "rental_id", id)
		return nil, err
	}

	charges := s.billing.Charges(rental.PickupAt, returnAt, rental.DepositCents, rental.DailyRateCents)
	rental.Settle(returnAt, charges)
	// Settlement and the release of the units commit together.
	if err := s.rentalRepo.MarkReturned(ctx, rental); err != nil {
		logger.ExitMethodWithError("rentalService.ReturnRental", err, "rental_id", id)
		return nil, err
	}

	logger.Info("Rental returned",
		"rental_id", id,
		"receipt_number", rental.ReceiptNumber,
		"days_used", charges.DaysUsed,
		"total_charge_cents", charges.TotalChargeCents,
		"refund_cents", charges.RefundCents,
		"additional_payment_cents", charges.AdditionalPaymentCents)

	view := s.view(*rental, returnAt)
	logger.ExitMethod("rentalService.ReturnRental", "rental_id", id)
	return &view, nil
}

func (s *rentalService) DeleteRental(ctx context.Context, id string) error {
	logger.EnterMethod("rentalService.DeleteRental", "rental_id", id)

	// The store releases the units only if the rental was ACTIVE when it was
	// removed, so a return racing this delete cannot release them twice.
	status, err := s.rentalRepo.Delete(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("rentalService.DeleteRental", err, "rental_id", id)
		return err
	}

	logger.Info("Rental deleted", "rental_id", id, "status", status)
	logger.ExitMethod("rentalService.DeleteRental", "rental_id", id)
	return nil
}

func (s *rentalService) GetRental(ctx context.Context, id string) (*domain.RentalView, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.view(*rental, s.clock.now())
	return &view, nil
}

func (s *rentalService) ListRentals(ctx context.Context, filter domain.RentalFilter) ([]domain.RentalView, error) {
	overdueOnly := false
	switch {
	case filter.Status == "":
	case filter.Status == domain.RentalStatusOverdue:
		overdueOnly = true
		filter.Status = domain.RentalStatusActive
	case !filter.Status.Stored():
		return nil, domain.NewValidationError("status", "unknown status "+string(filter.Status))
	}

	rentals, err := s.rentalRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock.now()
	views := make([]domain.RentalView, 0, len(rentals))
	for _, rt := range rentals {
		v := s.view(rt, now)
		if overdueOnly && !v.Overdue {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *rentalService) PreviewCharges(ctx context.Context, id string, at time.Time) (*domain.Charges, error) {
	if at.IsZero() {
		at = s.clock.now()
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rental.IsActive() {
		return nil, domain.ErrRentalNotActive
	}
	if at.Before(rental.PickupAt) {
		return nil, domain.NewValidationError("at", "must not be before pickup")
	}
	charges := s.billing.Charges(rental.PickupAt, at, rental.DepositCents, rental.DailyRateCents)
	return &charges, nil
}

func (s *rentalService) view(rt domain.Rental, now time.Time) domain.RentalView {
	v := domain.RentalView{Rental: rt}
	if rt.IsActive() {
		v.Overdue = s.billing.IsOverdue(rt.PickupAt, now)
		v.DaysUntilOverdue = s.billing.DaysUntilOverdue(rt.PickupAt, now)
	}
	return v
}

// IsRetryable reports whether a failed creation may succeed if repeated
// unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrExhaustedRetries)
}
