/*
errors.go - Centralized error types for the billing engine

ERROR CATEGORIES:
  1. Transition errors - Illegal payment status moves
  2. Store errors - Persistence-level failures
  3. Not-found errors - Missing schedules/payments/tenants

Nothing-due, period-already-exists and inactive-schedule conditions are NOT
errors: the generator reports them as skip outcomes (see generator.go).

USAGE:
  if errors.Is(err, billing.ErrDuplicatePeriod) {
      // another run already created this period; safe to ignore
  }
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicatePeriod is returned when a payment already exists for a
	// (schedule, period start) pair. The store's uniqueness constraint raises
	// it as a backstop behind the generator's pre-check.
	ErrDuplicatePeriod = errors.New("payment already exists for period")

	// ErrIllegalTransition is returned when a payment action is applied to a
	// status it cannot legally leave.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrPaymentNotFound is returned when a referenced payment doesn't exist.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrScheduleNotFound is returned when a referenced schedule doesn't exist.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrTenantNotFound is returned when a referenced tenant doesn't exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrScheduleExists is returned when creating a schedule for a tenant
	// that already has an active one.
	ErrScheduleExists = errors.New("tenant already has an active schedule")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IllegalTransitionError details a rejected payment action.
type IllegalTransitionError struct {
	PaymentID PaymentID
	From      Status
	Action    string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s payment %s in status %q", e.Action, e.PaymentID, e.From)
}

func (e *IllegalTransitionError) Unwrap() error { return ErrIllegalTransition }

// DuplicatePeriodError details which period collided.
type DuplicatePeriodError struct {
	ScheduleID  ScheduleID
	PeriodStart Date
	ExistingID  PaymentID
}

func (e *DuplicatePeriodError) Error() string {
	return fmt.Sprintf("payment %s already covers period starting %s for schedule %s",
		e.ExistingID, e.PeriodStart, e.ScheduleID)
}

func (e *DuplicatePeriodError) Unwrap() error { return ErrDuplicatePeriod }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// rather than a system failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrScheduleExists)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrTenantNotFound)
}
