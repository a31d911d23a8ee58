package service

import (
	"context"
	"fmt"
	"time"

	"mould-rental-backend/internal/domain"
	"mould-rental-backend/internal/repository"
	"mould-rental-backend/internal/utils"
)

type statsService struct {
	rentalRepo repository.RentalRepository
	billing    *utils.BillingCalculator
}

func NewStatsService(rentalRepo repository.RentalRepository, billing *utils.BillingCalculator) StatsService {
	if billing == nil {
		billing = utils.NewBillingCalculator(nil, 0)
	}
	return &statsService{rentalRepo: rentalRepo, billing: billing}
}

func (s *statsService) GetDashboardStats(ctx context.Context, now time.Time) (*domain.DashboardStats, error) {
	active, err := s.rentalRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active rentals: %w", err)
	}

	pickups, err := s.rentalRepo.ActivePickupTimes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rentals: %w", err)
	}
	var overdue int32
	for _, p := range pickups {
		if s.billing.IsOverdue(p, now) {
			overdue++
		}
	}

	stats := &domain.DashboardStats{ActiveRentals: active, OverdueRentals: overdue}
	periods := []struct {
		since time.Time
		dst   *int64
	}{
		{s.billing.StartOfDay(now), &stats.DailyRevenueCents},
		{s.billing.StartOfWeek(now), &stats.WeeklyRevenueCents},
		{s.billing.StartOfMonth(now), &stats.MonthlyRevenueCents},
	}
	for _, p := range periods {
		if *p.dst, err = s.rentalRepo.SumRevenueSince(ctx, p.since); err != nil {
			return nil, fmt.Errorf("failed to sum revenue: %w", err)
		}
	}
	return stats, nil
}
