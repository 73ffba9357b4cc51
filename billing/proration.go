package billing

import "github.com/shopspring/decimal"

// =============================================================================
// PRORATION - Partial first charge for mid-month move-ins
// =============================================================================

// Grace given on a prorated charge. Deliberately short: a mid-month charge is
// unplanned and should be settled quickly, separate from the schedule's own
// window.
const (
	prorationDueOffsetDays = 3
	prorationWindowDays    = 3

	// Move-ins on or before this day of the month join the normal cycle
	// without a partial charge.
	prorationFreeDays = 5
)

// ProratedCharge is the computed partial first charge for a tenancy starting
// mid-month. It stands alone from any schedule and becomes a manual payment.
type ProratedCharge struct {
	Amount      decimal.Decimal
	DueDate     Date
	WindowEnd   Date
	PeriodStart Date
	PeriodEnd   Date
}

// Prorate computes the partial first charge for a move-in date. Returns
// (nil, false) when the tenant moves in early enough (day <= 5) that no
// partial charge applies.
//
// The move-in day itself is counted:
//
//	amount = round(monthlyRent / daysInMonth * remainingDays, 2)
func Prorate(monthlyRent decimal.Decimal, moveIn Date) (*ProratedCharge, bool) {
	if moveIn.Day() <= prorationFreeDays {
		return nil, false
	}

	days := moveIn.DaysInMonth()
	remaining := days - moveIn.Day() + 1

	amount := monthlyRent.
		Div(decimal.NewFromInt(int64(days))).
		Mul(decimal.NewFromInt(int64(remaining))).
		Round(2)

	due := moveIn.AddDays(prorationDueOffsetDays)
	return &ProratedCharge{
		Amount:      amount,
		DueDate:     due,
		WindowEnd:   due.AddDays(prorationWindowDays),
		PeriodStart: moveIn,
		PeriodEnd:   moveIn.EndOfMonth(),
	}, true
}
