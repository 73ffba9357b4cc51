/*
store.go - Persistence interfaces for schedules, payments and tenants

PURPOSE:
  Defines the boundary between the billing engine and the database. The
  engine reads and writes through these interfaces and owns none of the
  storage mechanics; implementations may use SQLite, PostgreSQL, or memory.

IDEMPOTENCY CONTRACT:
  InsertPayment MUST fail with ErrDuplicatePeriod when a payment already
  exists for the same (schedule, period start) pair. The generator checks
  before inserting, but the store-level constraint is the backstop that makes
  concurrent generation for one schedule safe.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - billing/store/memory.go: In-memory for testing
*/
package billing

import "context"

// =============================================================================
// SCHEDULE STORE
// =============================================================================

type ScheduleStore interface {
	// SaveSchedule inserts or replaces a schedule.
	SaveSchedule(ctx context.Context, s Schedule) error

	// GetSchedule returns nil when no schedule has the ID.
	GetSchedule(ctx context.Context, id ScheduleID) (*Schedule, error)

	// GetScheduleByTenant returns the tenant's active schedule, or nil.
	GetScheduleByTenant(ctx context.Context, tenantID TenantID) (*Schedule, error)

	// ListActiveSchedules returns all schedules with IsActive set.
	ListActiveSchedules(ctx context.Context) ([]Schedule, error)
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

type PaymentStore interface {
	// InsertPayment persists a new payment. Returns ErrDuplicatePeriod when
	// the (schedule, period start) pair is already taken.
	InsertPayment(ctx context.Context, p Payment) error

	// UpdatePayment replaces an existing payment's mutable fields.
	UpdatePayment(ctx context.Context, p Payment) error

	// GetPayment returns nil when no payment has the ID.
	GetPayment(ctx context.Context, id PaymentID) (*Payment, error)

	// LatestForSchedule returns the schedule's most recent payment ordered by
	// period end descending, or nil when none exists.
	LatestForSchedule(ctx context.Context, scheduleID ScheduleID) (*Payment, error)

	// FindByPeriodStart returns the schedule's payment for an exact period
	// start, or nil.
	FindByPeriodStart(ctx context.Context, scheduleID ScheduleID, start Date) (*Payment, error)

	// ListByStatus returns all payments in any of the given statuses.
	ListByStatus(ctx context.Context, statuses ...Status) ([]Payment, error)

	// ListByTenant returns a tenant's payments ordered by due date descending.
	ListByTenant(ctx context.Context, tenantID TenantID) ([]Payment, error)

	// ListPayments returns every payment ordered by due date descending.
	ListPayments(ctx context.Context) ([]Payment, error)
}

// =============================================================================
// TENANT STORE
// =============================================================================

type TenantStore interface {
	SaveTenant(ctx context.Context, t Tenant) error

	// GetTenant returns nil when no tenant has the ID.
	GetTenant(ctx context.Context, id TenantID) (*Tenant, error)

	ListTenants(ctx context.Context) ([]Tenant, error)
}
