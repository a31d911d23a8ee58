package domain

import "time"

type RentalStatus string

const (
	RentalStatusActive   RentalStatus = "ACTIVE"
	RentalStatusReturned RentalStatus = "RETURNED"

	// RentalStatusOverdue is only ever a query filter. It is derived from the
	// billing rule at read time and is never written to storage.
	RentalStatusOverdue RentalStatus = "OVERDUE"
)

// Stored reports whether s is a status a rental row may carry.
func (s RentalStatus) Stored() bool {
	return s == RentalStatusActive || s == RentalStatusReturned
}

type RentalItem struct {
	ID              string         `json:"id"`
	RentalID        string         `json:"rental_id"`
	EquipmentTypeID string         `json:"equipment_type_id"`
	EquipmentType   *EquipmentType `json:"equipment_type,omitempty"`
	Quantity        int32          `json:"quantity"`
}

type Rental struct {
	ID             string       `json:"id"`
	ReceiptNumber  string       `json:"receipt_number"`
	CustomerID     string       `json:"customer_id"`
	Customer       *Customer    `json:"customer,omitempty"`
	Status         RentalStatus `json:"status"`
	PickupAt       time.Time    `json:"pickup_at"`
	ReturnAt       *time.Time   `json:"return_at,omitempty"`
	DepositCents   int64        `json:"deposit_cents"`
	DailyRateCents int64        `json:"daily_rate_cents"`
	// Settlement fields stay nil until the rental is returned.
	DaysUsed               *int32       `json:"days_used,omitempty"`
	TotalChargeCents       *int64       `json:"total_charge_cents,omitempty"`
	RefundCents            *int64       `json:"refund_cents,omitempty"`
	AdditionalPaymentCents *int64       `json:"additional_payment_cents,omitempty"`
	Items                  []RentalItem `json:"items"`
	CreatedBy              string       `json:"created_by,omitempty"`
	CreatedOn              time.Time    `json:"created_on"`
	UpdatedOn              time.Time    `json:"updated_on"`
}

// IsActive reports whether the rental still holds units.
func (r *Rental) IsActive() bool {
	return r.Status == RentalStatusActive
}

// TotalUnits sums the line item quantities.
func (r *Rental) TotalUnits() int32 {
	var n int32
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}

// Settle copies the computed charges onto the rental and marks it returned.
func (r *Rental) Settle(returnAt time.Time, c Charges) {
	days := c.DaysUsed
	total := c.TotalChargeCents
	refund := c.RefundCents
	extra := c.AdditionalPaymentCents

	r.ReturnAt = &returnAt
	r.Status = RentalStatusReturned
	r.DaysUsed = &days
	r.TotalChargeCents = &total
	r.RefundCents = &refund
	r.AdditionalPaymentCents = &extra
}

// Charges is the settlement of a rental at return time.
type Charges struct {
	DaysUsed               int32 `json:"days_used"`
	TotalChargeCents       int64 `json:"total_charge_cents"`
	RefundCents            int64 `json:"refund_cents"`
	AdditionalPaymentCents int64 `json:"additional_payment_cents"`
}

// RentalView decorates a rental with the derived overdue state.
type RentalView struct {
	Rental
	Overdue          bool  `json:"overdue"`
	DaysUntilOverdue int32 `json:"days_until_overdue"`
}

// RentalFilter narrows rental listings. Search matches the customer's name,
// contact number or the receipt number.
type RentalFilter struct {
	Status     RentalStatus
	Search     string
	CustomerID string
}

// ItemRequest is one requested (type, quantity) pair.
type ItemRequest struct {
	EquipmentTypeID string `json:"equipment_type_id"`
	Quantity        int32  `json:"quantity"`
}

// CreateRentalRequest carries everything needed to open a rental.
type CreateRentalRequest struct {
	Customer       CustomerDetails `json:"customer"`
	PickupAt       time.Time       `json:"pickup_at"`
	DepositCents   *int64          `json:"deposit_cents,omitempty"`
	DailyRateCents *int64          `json:"daily_rate_cents,omitempty"`
	Items          []ItemRequest   `json:"items"`
	CreatedBy      string          `json:"created_by,omitempty"`
}
