// Package memory is a mutex-guarded repository implementation with the same
// observable semantics as the postgres store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository"

	"github.com/google/uuid"
)

type rentalRecord struct {
	rental domain.Rental
	seq    int64
}

type data struct {
	mu sync.RWMutex

	equipment map[string]*domain.EquipmentType
	names     map[string]string

	rentals  map[string]*rentalRecord
	receipts map[string]string
	seq      int64

	customers map[string]*domain.Customer
	idCards   map[string]string
}

type Store struct {
	repository.EquipmentRepository
	repository.RentalRepository
	repository.CustomerRepository
}

func New() *Store {
	d := &data{
		equipment: make(map[string]*domain.EquipmentType),
		names:     make(map[string]string),
		rentals:   make(map[string]*rentalRecord),
		receipts:  make(map[string]string),
		customers: make(map[string]*domain.Customer),
		idCards:   make(map[string]string),
	}
	return &Store{
		EquipmentRepository: &equipmentStore{d},
		RentalRepository:    &rentalStore{d},
		CustomerRepository:  &customerStore{d},
	}
}

// Equipment

type equipmentStore struct{ *data }

func (s *equipmentStore) Create(_ context.Context, e *domain.EquipmentType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.names[e.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateName, e.Name)
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now()
	e.CreatedOn, e.UpdatedOn = now, now

	stored := *e
	s.equipment[e.ID] = &stored
	s.names[e.Name] = e.ID
	return nil
}

func (s *equipmentStore) GetByID(_ context.Context, id string) (*domain.EquipmentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.equipment[id]
	if !ok {
		return nil, domain.ErrEquipmentTypeNotFound
	}
	out := *e
	return &out, nil
}

func (s *equipmentStore) List(_ context.Context) ([]domain.EquipmentType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]domain.EquipmentType, 0, len(s.equipment))
	for _, e := range s.equipment {
		types = append(types, *e)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types, nil
}

func (s *equipmentStore) Reserve(_ context.Context, id string, qty int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserveLocked(id, qty)
}

func (s *equipmentStore) Release(_ context.Context, id string, qty int32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(id, qty)
}

func (d *data) reserveLocked(id string, qty int32) (int32, error) {
	e, ok := d.equipment[id]
	if !ok {
		return 0, domain.ErrEquipmentTypeNotFound
	}
	if e.Available < qty {
		return 0, &domain.InsufficientAvailabilityError{
			EquipmentTypeID: id,
			Name:            e.Name,
			Requested:       qty,
			Available:       e.Available,
		}
	}
	e.Available -= qty
	e.UpdatedOn = time.Now()
	return e.Available, nil
}

func (d *data) releaseLocked(id string, qty int32) (int32, error) {
	e, ok := d.equipment[id]
	if !ok {
		return 0, domain.ErrEquipmentTypeNotFound
	}
	if e.Available+qty > e.Quantity {
		return e.Available, &domain.ConsistencyViolationError{
			EquipmentTypeID: id,
			Quantity:        e.Quantity,
			Available:       e.Available,
			Message:         fmt.Sprintf("releasing %d units would exceed quantity", qty),
		}
	}
	e.Available += qty
	e.UpdatedOn = time.Now()
	return e.Available, nil
}

// releaseItemsLocked gives a rental's units back, reconciling any type whose
// counter refuses the release.
func (d *data) releaseItemsLocked(items []domain.RentalItem) {
	for _, it := range items {
		if _, err := d.releaseLocked(it.EquipmentTypeID, it.Quantity); err != nil {
			d.reconcileLocked(it.EquipmentTypeID)
		}
	}
}

func (s *equipmentStore) SetQuantity(_ context.Context, id string, quantity int32) (*domain.EquipmentType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.equipment[id]
	if !ok {
		return nil, domain.ErrEquipmentTypeNotFound
	}
	available := e.Available + (quantity - e.Quantity)
	if available < 0 {
		return nil, &domain.InsufficientAvailabilityError{
			EquipmentTypeID: id,
			Name:            e.Name,
			Requested:       e.Rented(),
			Available:       quantity,
		}
	}
	e.Quantity = quantity
	e.Available = available
	e.UpdatedOn = time.Now()
	out := *e
	return &out, nil
}

func (s *equipmentStore) Reconcile(_ context.Context, id string) (*domain.ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcileLocked(id)
}

func (d *data) reconcileLocked(id string) (*domain.ReconcileReport, error) {
	e, ok := d.equipment[id]
	if !ok {
		return nil, domain.ErrEquipmentTypeNotFound
	}

	var committed int32
	for _, rec := range d.rentals {
		if !rec.rental.IsActive() {
			continue
		}
		for _, it := range rec.rental.Items {
			if it.EquipmentTypeID == id {
				committed += it.Quantity
			}
		}
	}

	report := &domain.ReconcileReport{
		EquipmentTypeID: id,
		Name:            e.Name,
		Quantity:        e.Quantity,
		Committed:       committed,
		OldAvailable:    e.Available,
		NewAvailable:    max(e.Quantity-committed, 0),
	}
	report.Delta = report.NewAvailable - report.OldAvailable
	if report.Delta != 0 {
		e.Available = report.NewAvailable
		e.UpdatedOn = time.Now()
	}
	return report, nil
}

// Rentals

type rentalStore struct{ *data }

func (s *rentalStore) Create(_ context.Context, rt *domain.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.receipts[rt.ReceiptNumber]; taken {
		return domain.ErrDuplicateReceipt
	}
	if _, ok := s.customers[rt.CustomerID]; !ok {
		return domain.ErrCustomerNotFound
	}
	// Check every line before taking any units so a refusal changes nothing.
	need := make(map[string]int32, len(rt.Items))
	for _, it := range rt.Items {
		e, ok := s.equipment[it.EquipmentTypeID]
		if !ok {
			return domain.ErrEquipmentTypeNotFound
		}
		need[it.EquipmentTypeID] += it.Quantity
		if e.Available < need[it.EquipmentTypeID] {
			return &domain.InsufficientAvailabilityError{
				EquipmentTypeID: e.ID,
				Name:            e.Name,
				Requested:       need[it.EquipmentTypeID],
				Available:       e.Available,
			}
		}
	}
	for _, it := range rt.Items {
		if _, err := s.reserveLocked(it.EquipmentTypeID, it.Quantity); err != nil {
			return err
		}
	}

	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	for i := range rt.Items {
		if rt.Items[i].ID == "" {
			rt.Items[i].ID = uuid.New().String()
		}
		rt.Items[i].RentalID = rt.ID
	}
	now := time.Now()
	rt.CreatedOn, rt.UpdatedOn = now, now

	stored := *rt
	stored.Customer = nil
	stored.Items = make([]domain.RentalItem, len(rt.Items))
	for i, it := range rt.Items {
		it.EquipmentType = nil
		stored.Items[i] = it
	}

	s.seq++
	s.rentals[rt.ID] = &rentalRecord{rental: stored, seq: s.seq}
	s.receipts[rt.ReceiptNumber] = rt.ID
	return nil
}

// view returns a detached copy of a stored rental with its customer and
// equipment types joined in. Callers hold the lock.
func (s *rentalStore) view(rec *rentalRecord) domain.Rental {
	rt := rec.rental
	if c, ok := s.customers[rt.CustomerID]; ok {
		cust := *c
		cust.Rentals = nil
		rt.Customer = &cust
	}
	rt.Items = make([]domain.RentalItem, len(rec.rental.Items))
	for i, it := range rec.rental.Items {
		if e, ok := s.equipment[it.EquipmentTypeID]; ok {
			et := *e
			it.EquipmentType = &et
		}
		rt.Items[i] = it
	}
	sort.SliceStable(rt.Items, func(i, j int) bool {
		return itemName(rt.Items[i]) < itemName(rt.Items[j])
	})
	return rt
}

func itemName(it domain.RentalItem) string {
	if it.EquipmentType == nil {
		return ""
	}
	return it.EquipmentType.Name
}

func (s *rentalStore) GetByID(_ context.Context, id string) (*domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.rentals[id]
	if !ok {
		return nil, domain.ErrRentalNotFound
	}
	rt := s.view(rec)
	return &rt, nil
}

func (s *rentalStore) List(_ context.Context, filter domain.RentalFilter) ([]domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	matched := make([]*rentalRecord, 0)
	for _, rec := range s.rentals {
		rt := &rec.rental
		if filter.Status != "" && rt.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && rt.CustomerID != filter.CustomerID {
			continue
		}
		if search != "" && !s.matches(rt, search) {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })

	rentals := make([]domain.Rental, 0, len(matched))
	for _, rec := range matched {
		rentals = append(rentals, s.view(rec))
	}
	return rentals, nil
}

func (s *rentalStore) matches(rt *domain.Rental, search string) bool {
	if strings.Contains(strings.ToLower(rt.ReceiptNumber), search) {
		return true
	}
	c, ok := s.customers[rt.CustomerID]
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(c.FullName), search) ||
		strings.Contains(strings.ToLower(c.ContactNumber), search)
}

func (s *rentalStore) MarkReturned(_ context.Context, rt *domain.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rentals[rt.ID]
	if !ok {
		return domain.ErrRentalNotFound
	}
	if !rec.rental.IsActive() {
		return domain.ErrRentalNotActive
	}

	stored := &rec.rental
	stored.Status = domain.RentalStatusReturned
	stored.ReturnAt = rt.ReturnAt
	stored.DaysUsed = rt.DaysUsed
	stored.TotalChargeCents = rt.TotalChargeCents
	stored.RefundCents = rt.RefundCents
	stored.AdditionalPaymentCents = rt.AdditionalPaymentCents
	stored.UpdatedOn = time.Now()
	rt.UpdatedOn = stored.UpdatedOn
	s.releaseItemsLocked(stored.Items)
	return nil
}

func (s *rentalStore) Delete(_ context.Context, id string) (domain.RentalStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rentals[id]
	if !ok {
		return "", domain.ErrRentalNotFound
	}
	delete(s.rentals, id)
	delete(s.receipts, rec.rental.ReceiptNumber)
	if rec.rental.IsActive() {
		s.releaseItemsLocked(rec.rental.Items)
	}
	return rec.rental.Status, nil
}

func (s *rentalStore) MaxReceiptSuffix(_ context.Context, prefix string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var highest int64
	for receipt := range s.receipts {
		if n, ok := domain.ParseReceiptSuffix(prefix, receipt); ok {
			highest = max(highest, n)
		}
	}
	return highest, nil
}

func (s *rentalStore) CountActive(_ context.Context) (int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int32
	for _, rec := range s.rentals {
		if rec.rental.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *rentalStore) ActivePickupTimes(_ context.Context) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pickups []time.Time
	for _, rec := range s.rentals {
		if rec.rental.IsActive() {
			pickups = append(pickups, rec.rental.PickupAt)
		}
	}
	return pickups, nil
}

func (s *rentalStore) SumRevenueSince(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, rec := range s.rentals {
		rt := &rec.rental
		if rt.Status != domain.RentalStatusReturned || rt.ReturnAt == nil || rt.ReturnAt.Before(since) {
			continue
		}
		if rt.TotalChargeCents != nil {
			total += *rt.TotalChargeCents
		}
	}
	return total, nil
}

// Customers

type customerStore struct{ *data }

func (s *customerStore) FindOrCreate(_ context.Context, c *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.idCards[c.IDCardNumber]; ok {
		*c = *s.customers[id]
		return nil
	}

	c.ID = uuid.New().String()
	c.CreatedOn = time.Now()
	c.IDCardCollectedAt = nil
	if c.IDCardCollected {
		at := c.CreatedOn
		c.IDCardCollectedAt = &at
	}
	stored := *c
	stored.Rentals = nil
	s.customers[c.ID] = &stored
	s.idCards[c.IDCardNumber] = c.ID
	return nil
}

func (s *customerStore) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	out := *c
	return &out, nil
}

func (s *customerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	for _, rec := range s.rentals {
		if rec.rental.CustomerID == id && rec.rental.IsActive() {
			return domain.ErrCustomerHasActiveRentals
		}
	}
	for rid, rec := range s.rentals {
		if rec.rental.CustomerID == id {
			delete(s.rentals, rid)
			delete(s.receipts, rec.rental.ReceiptNumber)
		}
	}
	delete(s.customers, id)
	delete(s.idCards, c.IDCardNumber)
	return nil
}
