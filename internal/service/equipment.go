package service

import (
	"context"
	"errors"
	"strings"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/logger"
	"mould-rental-backend/internal/repository"
)

type equipmentService struct {
	equipmentRepo repository.EquipmentRepository
}

func NewEquipmentService(equipmentRepo repository.EquipmentRepository) EquipmentService {
	return &equipmentService{equipmentRepo: equipmentRepo}
}

func (s *equipmentService) CreateEquipmentType(ctx context.Context, name string, quantity int32) (*domain.EquipmentType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if quantity < 0 {
		return nil, domain.NewValidationError("quantity", "must not be negative")
	}

	e := &domain.EquipmentType{Name: name, Quantity: quantity, Available: quantity}
	if err := s.equipmentRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	logger.Info("Equipment type created", "equipment_type_id", e.ID, "name", e.Name, "quantity", quantity)
	return e, nil
}

func (s *equipmentService) ListEquipmentTypes(ctx context.Context) ([]domain.EquipmentType, error) {
	return s.equipmentRepo.List(ctx)
}

func (s *equipmentService) GetEquipmentType(ctx context.Context, id string) (*domain.EquipmentType, error) {
	return s.equipmentRepo.GetByID(ctx, id)
}

func (s *equipmentService) SetQuantity(ctx context.Context, id string, quantity int32) (*domain.EquipmentType, error) {
	if quantity < 0 {
		return nil, domain.NewValidationError("quantity", "must not be negative")
	}
	e, err := s.equipmentRepo.SetQuantity(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	logger.Info("Equipment quantity changed",
		"equipment_type_id", id, "quantity", e.Quantity, "available", e.Available)
	return e, nil
}

// SeedEquipmentTypes creates the default catalogue with no units. Names that
// already exist are left alone.
func (s *equipmentService) SeedEquipmentTypes(ctx context.Context) (int, error) {
	created := 0
	for _, name := range domain.DefaultMouldNames {
		err := s.equipmentRepo.Create(ctx, &domain.EquipmentType{Name: name})
		if errors.Is(err, domain.ErrDuplicateName) {
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	logger.Info("Equipment catalogue seeded", "created", created)
	return created, nil
}
