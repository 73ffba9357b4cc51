/*
Package billing implements the rent payment scheduling and status engine.

PURPOSE:
  Given a tenant's recurring billing schedule, the engine computes billing
  periods, prorates partial first months, generates at most one open payment
  per period (idempotently, however often it is invoked), and advances each
  payment through a time-driven status lifecycle as calendar dates pass.

KEY CONCEPTS IN THIS FILE (types.go):
  - Schedule: The recurring billing rule for one tenancy (amount, frequency,
    due day, payment window, start date)
  - Payment: One concrete billable instance derived from a schedule or
    created manually
  - Status: Closed payment lifecycle enum with explicit transition functions
  - Tenant: The payer; gates generation via its active flag

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for money, never float math
  2. Determinism: All date logic flows from an injected Clock (date.go)
  3. Idempotency: One payment per (schedule, period start), enforced both by
     a generator pre-check and a store-level uniqueness constraint
  4. Monotonicity: Finalized payments (on_time, late, waived) are never
     touched by time-based transitions

SEE ALSO:
  - period.go: Billing period calculation
  - proration.go: Mid-month move-in charges
  - generator.go: Payment generation and the batch driver
  - transition.go: Time-driven status updates
  - store.go: Persistence interfaces
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TenantID string
type ScheduleID string
type PaymentID string

// =============================================================================
// FREQUENCY - Months per billing period
// =============================================================================

type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyBiMonthly Frequency = "bi_monthly" // every 2 months
	FrequencyQuarterly Frequency = "quarterly"  // every 3 months
)

// Months returns the number of calendar months one period spans.
func (f Frequency) Months() int {
	switch f {
	case FrequencyBiMonthly:
		return 2
	case FrequencyQuarterly:
		return 3
	default:
		return 1
	}
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyBiMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// =============================================================================
// STATUS - Payment lifecycle
// =============================================================================

type Status string

const (
	StatusUpcoming  Status = "upcoming"  // before the due date
	StatusPending   Status = "pending"   // inside the payment window
	StatusOnTime    Status = "on_time"   // paid within the window
	StatusLate      Status = "late"      // paid after the window
	StatusOverdue   Status = "overdue"   // unpaid past the window
	StatusWaived    Status = "waived"    // landlord forgave the payment
	StatusVerifying Status = "verifying" // tenant-reported, awaiting landlord approval
)

// Terminal reports whether the status is final. Terminal payments are never
// touched again, neither by time nor by payment actions.
func (s Status) Terminal() bool {
	return s == StatusOnTime || s == StatusLate || s == StatusWaived
}

// TimeDriven reports whether elapsed calendar time alone can move this
// status forward. Verifying is excluded: it waits on an explicit approval.
func (s Status) TimeDriven() bool {
	return s == StatusUpcoming || s == StatusPending || s == StatusOverdue
}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusPending, StatusOnTime, StatusLate,
		StatusOverdue, StatusWaived, StatusVerifying:
		return true
	}
	return false
}

// =============================================================================
// SCHEDULE - Recurring billing rule (one active per tenancy)
// =============================================================================

type Schedule struct {
	ID       ScheduleID
	TenantID TenantID

	Amount     decimal.Decimal // charge per period
	Frequency  Frequency
	DueDay     int  // day-of-month (1-28) the due date falls on
	WindowDays int  // days after the due date payment still counts on time
	StartDate  Date // anchors period boundaries
	IsActive   bool

	CreatedAt Date
	UpdatedAt Date
}

// =============================================================================
// PAYMENT - One billable instance
// =============================================================================

type Payment struct {
	ID         PaymentID
	TenantID   TenantID
	ScheduleID ScheduleID // empty for manual/prorated charges

	// Inclusive calendar range the charge covers.
	PeriodStart Date
	PeriodEnd   Date

	AmountDue decimal.Decimal
	DueDate   Date
	WindowEnd Date // last day of on-time payment

	Status    Status
	PaidDate  Date   // set on transition into on_time/late/verifying
	Reference string // bank receipt / transaction reference
	Notes     string

	IsManual bool // true for prorated and one-off charges

	CreatedAt Date
	UpdatedAt Date
}

// InWindow reports whether a payment made on the given date counts on time.
func (p *Payment) InWindow(paid Date) bool {
	return paid.BeforeOrEqual(p.WindowEnd)
}

// =============================================================================
// TENANT - The payer
// =============================================================================

type Tenant struct {
	ID         TenantID
	Name       string
	Email      string
	Phone      string
	MoveInDate Date
	IsActive   bool
	Notes      string

	CreatedAt Date
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
