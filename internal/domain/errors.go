package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrEquipmentTypeNotFound    = fmt.Errorf("equipment type %w", ErrNotFound)
	ErrRentalNotFound           = fmt.Errorf("rental %w", ErrNotFound)
	ErrCustomerNotFound         = fmt.Errorf("customer %w", ErrNotFound)
	ErrRentalNotActive          = errors.New("rental is not active")
	ErrDuplicateReceipt         = errors.New("receipt number already taken")
	ErrDuplicateName            = errors.New("equipment type name already exists")
	ErrCustomerHasActiveRentals = errors.New("customer has active rentals")
	ErrExhaustedRetries         = errors.New("receipt number retries exhausted")
	ErrConsistencyViolation     = errors.New("inventory consistency violation")
)

// ValidationError is returned before any mutation when the caller's input is
// unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientAvailabilityError reports a reservation that would take the
// available count below zero.
type InsufficientAvailabilityError struct {
	EquipmentTypeID string
	Name            string
	Requested       int32
	Available       int32
}

// Shortfall is how many more units would have been needed.
func (e *InsufficientAvailabilityError) Shortfall() int32 {
	return e.Requested - e.Available
}

func (e *InsufficientAvailabilityError) Error() string {
	name := e.Name
	if name == "" {
		name = e.EquipmentTypeID
	}
	return fmt.Sprintf("insufficient availability for %s: requested %d, available %d (short by %d)",
		name, e.Requested, e.Available, e.Shortfall())
}

// ExhaustedRetriesError means no unique receipt number could be committed
// within the attempt bound.
type ExhaustedRetriesError struct {
	Attempts      int
	LastCandidate string
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%v after %d attempts (last candidate %s)", ErrExhaustedRetries, e.Attempts, e.LastCandidate)
}

func (e *ExhaustedRetriesError) Is(target error) bool {
	return target == ErrExhaustedRetries
}

// ConsistencyViolationError means the stored available count contradicts the
// quantity bounds. It is always repaired by reconciliation.
type ConsistencyViolationError struct {
	EquipmentTypeID string
	Quantity        int32
	Available       int32
	Message         string
}

func (e *ConsistencyViolationError) Error() string {
	return fmt.Sprintf("%v on %s: %s (quantity %d, available %d)",
		ErrConsistencyViolation, e.EquipmentTypeID, e.Message, e.Quantity, e.Available)
}

func (e *ConsistencyViolationError) Is(target error) bool {
	return target == ErrConsistencyViolation
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
