package utils

import (
	"time"

	"mould-rental-backend/internal/domain"
)

const (
	// NoonHour is the cutoff that decides whether the pickup and return days
	// are billed.
	NoonHour = 12

	DefaultOverdueAfterDays int32 = 10
)

// Date is a calendar date with no time-of-day or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of the week for the date.
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

// AddDays moves the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

// Before reports whether d is an earlier calendar date than other.
func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

// IsSunday reports whether the date falls on a Sunday. Sundays are never billed.
func (d Date) IsSunday() bool {
	return d.Weekday() == time.Sunday
}

func isBeforeNoon(t time.Time) bool {
	return t.Hour() < NoonHour
}

// countsAsPickupDay: picked up before noon on a working day.
func countsAsPickupDay(pickup time.Time) bool {
	return isBeforeNoon(pickup) && !DateOf(pickup).IsSunday()
}

// countsAsReturnDay: brought back at or after noon on a working day.
func countsAsReturnDay(ret time.Time) bool {
	return !isBeforeNoon(ret) && !DateOf(ret).IsSunday()
}

// CalculateBillableDays counts the billable days between pickup and return.
// Both instants are read in their own location, so callers convert them to
// the shop's zone first. The caller guarantees ret is not before pickup.
func CalculateBillableDays(pickup, ret time.Time) int32 {
	pickupDate := DateOf(pickup)
	returnDate := DateOf(ret)
	countPickup := countsAsPickupDay(pickup)
	countReturn := countsAsReturnDay(ret)

	if pickupDate == returnDate {
		if countPickup && countReturn {
			return 1
		}
		return 0
	}

	var days int32
	if countPickup {
		days++
	}
	for d := pickupDate.AddDays(1); d.Before(returnDate); d = d.AddDays(1) {
		if !d.IsSunday() {
			days++
		}
	}
	if countReturn {
		days++
	}
	return days
}

// CalculateRentalCharges settles a rental against its deposit. Exactly one of
// refund and additional payment is non-zero unless the charge equals the
// deposit, in which case both are zero.
func CalculateRentalCharges(pickup, ret time.Time, depositCents, dailyRateCents int64) domain.Charges {
	days := CalculateBillableDays(pickup, ret)
	total := int64(days) * dailyRateCents

	c := domain.Charges{
		DaysUsed:         days,
		TotalChargeCents: total,
	}
	if total <= depositCents {
		c.RefundCents = depositCents - total
	} else {
		c.AdditionalPaymentCents = total - depositCents
	}
	return c
}

// BillingCalculator applies the billing rule in the shop's time zone.
type BillingCalculator struct {
	loc              *time.Location
	overdueAfterDays int32
}

// NewBillingCalculator returns a calculator for loc. A nil loc means UTC and a
// non-positive threshold falls back to DefaultOverdueAfterDays.
func NewBillingCalculator(loc *time.Location, overdueAfterDays int32) *BillingCalculator {
	if loc == nil {
		loc = time.UTC
	}
	if overdueAfterDays <= 0 {
		overdueAfterDays = DefaultOverdueAfterDays
	}
	return &BillingCalculator{loc: loc, overdueAfterDays: overdueAfterDays}
}

func (c *BillingCalculator) Location() *time.Location {
	return c.loc
}

func (c *BillingCalculator) OverdueAfterDays() int32 {
	return c.overdueAfterDays
}

func (c *BillingCalculator) BillableDays(pickup, ret time.Time) int32 {
	return CalculateBillableDays(pickup.In(c.loc), ret.In(c.loc))
}

func (c *BillingCalculator) Charges(pickup, ret time.Time, depositCents, dailyRateCents int64) domain.Charges {
	return CalculateRentalCharges(pickup.In(c.loc), ret.In(c.loc), depositCents, dailyRateCents)
}

// IsOverdue is derived on read: a rental is overdue once it has accrued more
// billable days than the threshold.
func (c *BillingCalculator) IsOverdue(pickup, now time.Time) bool {
	return c.BillableDays(pickup, now) > c.overdueAfterDays
}

// DaysUntilOverdue is negative once the rental is overdue.
func (c *BillingCalculator) DaysUntilOverdue(pickup, now time.Time) int32 {
	return c.overdueAfterDays - c.BillableDays(pickup, now)
}

// StartOfDay returns midnight of t's date in the calculator's zone.
func (c *BillingCalculator) StartOfDay(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}

// StartOfWeek returns midnight of the most recent Sunday.
func (c *BillingCalculator) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	y, m, d := day.Date()
	return time.Date(y, m, d-int(day.Weekday()), 0, 0, 0, 0, c.loc)
}

func (c *BillingCalculator) StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.In(c.loc).Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, c.loc)
}
