/*
generator.go - Payment generation

PURPOSE:
  Decides, per schedule, whether the next billing period needs a payment and
  creates it with the correct initial status. Safe to invoke repeatedly
  (e.g. daily) without external "already ran" tracking: the generator
  pre-checks the (schedule, period start) pair and the store's uniqueness
  constraint backstops it.

GENERATION RULE (per schedule):
  1. Inactive schedules never generate.
  2. With no prior payment, the candidate period starts from the schedule's
     start date.
  3. With a prior payment, generate only when it is finalized (on_time, late,
     waived) or its period has lapsed; the candidate follows the prior period.
  4. Never generate more than two frequency-periods ahead of today
     (anti-runaway guard for schedules with a future start date).
  5. Never generate a period that already has a payment.

Force mode (administrative backfill) skips only rule 3's due gate.
*/
package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/rent-engine/metrics"
)

// maxFuturePeriods caps how far ahead of today a generated period may start,
// in frequency-periods.
const maxFuturePeriods = 2

// =============================================================================
// PER-SCHEDULE RESULT
// =============================================================================

// SkipReason explains why a schedule produced no payment. Skips are normal
// outcomes, not errors.
type SkipReason string

const (
	SkipInactiveSchedule SkipReason = "schedule_inactive"
	SkipInactiveTenant   SkipReason = "tenant_inactive"
	SkipTenantMissing    SkipReason = "tenant_missing"
	SkipNotDue           SkipReason = "not_due"
	SkipTooFarAhead      SkipReason = "too_far_ahead"
	SkipPeriodExists     SkipReason = "period_exists"
)

// GenerationResult is the per-schedule outcome of a batch run. Exactly one of
// Payment, Skip, or Err is meaningful.
type GenerationResult struct {
	ScheduleID ScheduleID
	TenantID   TenantID
	Payment    *Payment
	Skip       SkipReason
	Err        error
}

func (r GenerationResult) Generated() bool { return r.Payment != nil }

// =============================================================================
// INITIAL STATUS
// =============================================================================

// InitialStatus places a newly created payment on the lifecycle according to
// where today falls relative to its due date and window.
func InitialStatus(dueDate, windowEnd, today Date) Status {
	switch {
	case today.Before(dueDate):
		return StatusUpcoming
	case today.BeforeOrEqual(windowEnd):
		return StatusPending
	default:
		return StatusOverdue
	}
}

// =============================================================================
// SINGLE-SCHEDULE GENERATION
// =============================================================================

// GenerateForSchedule creates the next payment for a schedule if one is due.
// Returns the created payment, or a skip reason when nothing was needed.
// Force skips the due gate but still respects the look-ahead and duplicate
// guards.
func (e *Engine) GenerateForSchedule(ctx context.Context, s Schedule, today Date, force bool) (*Payment, SkipReason, error) {
	if !s.IsActive {
		return nil, SkipInactiveSchedule, nil
	}

	latest, err := e.Payments.LatestForSchedule(ctx, s.ID)
	if err != nil {
		return nil, "", err
	}

	var period BillingPeriod
	if latest == nil {
		period = NextPeriod(s, s.StartDate)
	} else {
		due := latest.Status.Terminal() || latest.PeriodEnd.Before(today)
		if !due && !force {
			return nil, SkipNotDue, nil
		}
		period = NextPeriod(s, latest.PeriodEnd.AddDays(1))
	}

	maxFuture := today.AddMonths(maxFuturePeriods * s.Frequency.Months())
	if period.Start.After(maxFuture) {
		return nil, SkipTooFarAhead, nil
	}

	existing, err := e.Payments.FindByPeriodStart(ctx, s.ID, period.Start)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, SkipPeriodExists, nil
	}

	p := Payment{
		ID:          PaymentID(uuid.NewString()),
		TenantID:    s.TenantID,
		ScheduleID:  s.ID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		AmountDue:   s.Amount,
		DueDate:     period.DueDate,
		WindowEnd:   period.WindowEnd,
		Status:      InitialStatus(period.DueDate, period.WindowEnd, today),
		IsManual:    false,
		CreatedAt:   today,
		UpdatedAt:   today,
	}

	if err := e.Payments.InsertPayment(ctx, p); err != nil {
		// Lost a race with a concurrent run; same outcome as the pre-check.
		if errors.Is(err, ErrDuplicatePeriod) {
			return nil, SkipPeriodExists, nil
		}
		return nil, "", err
	}

	metrics.PaymentsGenerated.Inc()
	e.Log.Info("generated payment",
		zap.String("payment_id", string(p.ID)),
		zap.String("schedule_id", string(s.ID)),
		zap.String("period_start", p.PeriodStart.String()),
		zap.String("status", string(p.Status)))

	return &p, "", nil
}

// =============================================================================
// BATCH DRIVER
// =============================================================================

// GenerateAllDue runs generation over every active schedule whose tenant is
// still active. One schedule's failure never aborts the others; each
// schedule's outcome is reported in its own result.
func (e *Engine) GenerateAllDue(ctx context.Context, today Date) ([]GenerationResult, error) {
	schedules, err := e.Schedules.ListActiveSchedules(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]GenerationResult, 0, len(schedules))
	for _, s := range schedules {
		r := GenerationResult{ScheduleID: s.ID, TenantID: s.TenantID}

		tenant, err := e.Tenants.GetTenant(ctx, s.TenantID)
		switch {
		case err != nil:
			r.Err = err
		case tenant == nil:
			r.Skip = SkipTenantMissing
		case !tenant.IsActive:
			r.Skip = SkipInactiveTenant
		default:
			p, skip, err := e.GenerateForSchedule(ctx, s, today, false)
			r.Payment, r.Skip, r.Err = p, skip, err
		}

		if r.Err != nil {
			e.Log.Warn("generation failed for schedule",
				zap.String("schedule_id", string(s.ID)), zap.Error(r.Err))
		}
		results = append(results, r)
	}
	return results, nil
}

// =============================================================================
// MANUAL AND PRORATED CHARGES
// =============================================================================

// ManualChargeInput describes a one-off charge not tied to any schedule.
type ManualChargeInput struct {
	TenantID    TenantID
	Amount      decimal.Decimal
	PeriodStart Date
	PeriodEnd   Date
	DueDate     Date
	Notes       string
}

// manualWindowDays is the default grace for ad-hoc charges.
const manualWindowDays = 5

// CreateManualCharge records a one-off charge with the default window and an
// initial status computed from today.
func (e *Engine) CreateManualCharge(ctx context.Context, in ManualChargeInput) (*Payment, error) {
	today := e.Clock.Today()
	windowEnd := in.DueDate.AddDays(manualWindowDays)

	p := Payment{
		ID:          PaymentID(uuid.NewString()),
		TenantID:    in.TenantID,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		AmountDue:   in.Amount,
		DueDate:     in.DueDate,
		WindowEnd:   windowEnd,
		Status:      InitialStatus(in.DueDate, windowEnd, today),
		Notes:       in.Notes,
		IsManual:    true,
		CreatedAt:   today,
		UpdatedAt:   today,
	}

	if err := e.Payments.InsertPayment(ctx, p); err != nil {
		return nil, err
	}

	metrics.PaymentsGenerated.Inc()
	return &p, nil
}

// CreateProratedCharge records the partial first charge for a mid-month
// move-in. Returns (nil, false, nil) when the move-in day is early enough
// that no proration applies.
func (e *Engine) CreateProratedCharge(ctx context.Context, tenantID TenantID, monthlyRent decimal.Decimal, moveIn Date) (*Payment, bool, error) {
	charge, ok := Prorate(monthlyRent, moveIn)
	if !ok {
		return nil, false, nil
	}

	today := e.Clock.Today()
	p := Payment{
		ID:          PaymentID(uuid.NewString()),
		TenantID:    tenantID,
		PeriodStart: charge.PeriodStart,
		PeriodEnd:   charge.PeriodEnd,
		AmountDue:   charge.Amount,
		DueDate:     charge.DueDate,
		WindowEnd:   charge.WindowEnd,
		Status:      InitialStatus(charge.DueDate, charge.WindowEnd, today),
		Notes:       "Prorated rent for move-in on " + moveIn.String(),
		IsManual:    true,
		CreatedAt:   today,
		UpdatedAt:   today,
	}

	if err := e.Payments.InsertPayment(ctx, p); err != nil {
		return nil, false, err
	}

	metrics.PaymentsGenerated.Inc()
	e.Log.Info("created prorated charge",
		zap.String("tenant_id", string(tenantID)),
		zap.String("amount", charge.Amount.String()),
		zap.String("due_date", charge.DueDate.String()))

	return &p, true, nil
}
