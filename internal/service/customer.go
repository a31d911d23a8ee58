package service

import (
	"context"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"
)

type customerService struct {
	customerRepo repository.CustomerRepository
	rentalRepo   repository.RentalRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository, rentalRepo repository.RentalRepository) CustomerService {
	return &customerService{customerRepo: customerRepo, rentalRepo: rentalRepo}
}

// GetCustomer returns the customer with their rentals, newest first.
func (s *customerService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rentals, err := s.rentalRepo.List(ctx, domain.RentalFilter{CustomerID: id})
	if err != nil {
		return nil, err
	}
	for i := range rentals {
		rentals[i].Customer = nil
	}
	c.Rentals = rentals
	return c, nil
}

// DeleteCustomer is refused while the customer holds units. Returned rentals
// go with the customer and have no inventory effect.
func (s *customerService) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.customerRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Customer deleted", "customer_id", id)
	return nil
}
