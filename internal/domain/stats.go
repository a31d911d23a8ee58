package domain

// DashboardStats summarises the shop floor.
type DashboardStats struct {
	ActiveRentals       int32 `json:"active_rentals"`
	OverdueRentals      int32 `json:"overdue_rentals"`
	DailyRevenueCents   int64 `json:"daily_revenue_cents"`
	WeeklyRevenueCents  int64 `json:"weekly_revenue_cents"`
	MonthlyRevenueCents int64 `json:"monthly_revenue_cents"`
}
