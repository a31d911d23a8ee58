package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// January 2024: the 1st, 8th, 15th and 22nd are Mondays; the 7th, 14th and
// 21st are Sundays.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

func TestCalculateBillableDays(t *testing.T) {
	tests := []struct {
		name     string
		pickup   time.Time
		ret      time.Time
		expected int32
	}{
		{"Same day morning to morning", at(15, 9, 0), at(15, 9, 0), 0},
		{"Same day morning to noon", at(15, 9, 0), at(15, 12, 0), 1},
		{"Same day just before noon to afternoon", at(15, 11, 59), at(15, 17, 30), 1},
		{"Same day afternoon to evening", at(15, 13, 0), at(15, 18, 0), 0},
		{"Same day Sunday", at(14, 8, 0), at(14, 16, 0), 0},
		{"Monday afternoon to Wednesday morning", at(15, 14, 0), at(17, 10, 0), 1},
		{"Monday morning to Wednesday afternoon", at(15, 9, 0), at(17, 15, 0), 3},
		{"Saturday morning to Monday afternoon skips Sunday", at(13, 9, 0), at(15, 13, 0), 2},
		{"Sunday pickup before noon is not billed", at(14, 9, 0), at(15, 13, 0), 1},
		{"Sunday return after noon is not billed", at(13, 9, 0), at(14, 15, 0), 1},
		{"Full week", at(15, 9, 0), at(22, 13, 0), 7},
		{"Overnight before noon both ends", at(15, 9, 0), at(16, 9, 0), 1},
		{"Across month boundary", at(31, 9, 0), time.Date(2024, time.February, 2, 12, 0, 0, 0, time.UTC), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateBillableDays(tt.pickup, tt.ret))
		})
	}
}

func TestCalculateBillableDays_SundaysNeverCounted(t *testing.T) {
	// Monday morning to Saturday afternoon bills the whole working week.
	base := CalculateBillableDays(at(8, 9, 0), at(13, 13, 0))
	assert.Equal(t, int32(6), base)

	// Keeping the moulds over Sunday adds nothing.
	assert.Equal(t, base, CalculateBillableDays(at(8, 9, 0), at(14, 9, 0)))
	assert.Equal(t, base, CalculateBillableDays(at(8, 9, 0), at(14, 18, 0)))

	// Ranges including Sundays count exactly the non-Sunday days.
	assert.Equal(t, int32(12), CalculateBillableDays(at(1, 9, 0), at(15, 9, 0)))
}

func TestCalculateRentalCharges(t *testing.T) {
	t.Run("Additional payment when charge exceeds deposit", func(t *testing.T) {
		// 12 billable days: Jan 1 through Jan 13 minus the Sunday on the 7th.
		c := CalculateRentalCharges(at(1, 9, 0), at(13, 13, 0), 100000, 10000)
		assert.Equal(t, int32(12), c.DaysUsed)
		assert.Equal(t, int64(120000), c.TotalChargeCents)
		assert.Equal(t, int64(20000), c.AdditionalPaymentCents)
		assert.Equal(t, int64(0), c.RefundCents)
	})

	t.Run("Refund when charge is within deposit", func(t *testing.T) {
		c := CalculateRentalCharges(at(15, 9, 0), at(17, 15, 0), 100000, 10000)
		assert.Equal(t, int32(3), c.DaysUsed)
		assert.Equal(t, int64(30000), c.TotalChargeCents)
		assert.Equal(t, int64(70000), c.RefundCents)
		assert.Equal(t, int64(0), c.AdditionalPaymentCents)
	})

	t.Run("Charge equal to deposit", func(t *testing.T) {
		c := CalculateRentalCharges(at(15, 9, 0), at(17, 15, 0), 30000, 10000)
		assert.Equal(t, int64(0), c.RefundCents)
		assert.Equal(t, int64(0), c.AdditionalPaymentCents)
	})

	t.Run("Zero days refunds the whole deposit", func(t *testing.T) {
		c := CalculateRentalCharges(at(15, 9, 0), at(15, 10, 0), 100000, 10000)
		assert.Equal(t, int32(0), c.DaysUsed)
		assert.Equal(t, int64(100000), c.RefundCents)
	})

	t.Run("Total is always days times rate and never both refund and extra", func(t *testing.T) {
		pickup := at(1, 10, 0)
		for h := 0; h < 24*30; h += 7 {
			ret := pickup.Add(time.Duration(h) * time.Hour)
			c := CalculateRentalCharges(pickup, ret, 50000, 7500)
			assert.Equal(t, int64(c.DaysUsed)*7500, c.TotalChargeCents)
			assert.False(t, c.RefundCents > 0 && c.AdditionalPaymentCents > 0)
		}
	})
}

func TestBillingCalculator(t *testing.T) {
	t.Run("Evaluates the noon cutoff in the configured zone", func(t *testing.T) {
		zone := time.FixedZone("UTC+3", 3*60*60)
		calc := NewBillingCalculator(zone, 10)

		// 10:00Z is 13:00 local, so a same-day 08:00 local pickup is billed.
		pickup := time.Date(2024, time.January, 15, 5, 0, 0, 0, time.UTC)
		ret := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, int32(1), calc.BillableDays(pickup, ret))
		assert.Equal(t, int32(0), CalculateBillableDays(pickup, ret))
	})

	t.Run("Overdue after the threshold", func(t *testing.T) {
		calc := NewBillingCalculator(time.UTC, 10)
		pickup := at(1, 9, 0)

		assert.False(t, calc.IsOverdue(pickup, at(11, 10, 0)))
		assert.Equal(t, int32(1), calc.DaysUntilOverdue(pickup, at(11, 10, 0)))

		assert.True(t, calc.IsOverdue(pickup, at(13, 13, 0)))
		assert.Equal(t, int32(-2), calc.DaysUntilOverdue(pickup, at(13, 13, 0)))
	})

	t.Run("Defaults", func(t *testing.T) {
		calc := NewBillingCalculator(nil, 0)
		assert.Equal(t, time.UTC, calc.Location())
		assert.Equal(t, DefaultOverdueAfterDays, calc.OverdueAfterDays())
	})

	t.Run("Period starts", func(t *testing.T) {
		calc := NewBillingCalculator(time.UTC, 10)
		now := at(17, 15, 30) // Wednesday
		assert.Equal(t, at(17, 0, 0), calc.StartOfDay(now))
		assert.Equal(t, at(14, 0, 0), calc.StartOfWeek(now))
		assert.Equal(t, at(1, 0, 0), calc.StartOfMonth(now))
	})
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "1000.00", FormatCents(100000))
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "0.00", FormatCents(0))
	assert.Equal(t, "-12.30", FormatCents(-1230))
}
