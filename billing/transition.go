/*
transition.go - Time-driven status updates

PURPOSE:
  Advances payments along the lifecycle as calendar dates pass. This is the
  only place "overdue" is ever assigned purely by elapsed time; marking paid
  and waiving are explicit actions (actions.go).

STATE MACHINE (inputs: today):
  upcoming -> pending   when today reaches the due date
  upcoming -> overdue   when today passes the window end
  pending  -> overdue   when today passes the window end
  on_time, late, waived: terminal, never touched by time
  verifying: waits on explicit approval, never touched by time
  overdue: one-way ratchet; a regressing clock never un-advances it
*/
package billing

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/warp/rent-engine/metrics"
)

// =============================================================================
// SINGLE-PAYMENT RULE
// =============================================================================

// StatusFor computes the correct time-driven status for a payment as of
// today. Terminal, verifying and overdue statuses are returned unchanged.
func StatusFor(p *Payment, today Date) Status {
	if !p.Status.TimeDriven() {
		return p.Status
	}
	// Overdue never regresses, even if the clock does.
	if p.Status == StatusOverdue {
		return StatusOverdue
	}

	switch {
	case today.Before(p.DueDate):
		return StatusUpcoming
	case today.BeforeOrEqual(p.WindowEnd):
		return StatusPending
	default:
		return StatusOverdue
	}
}

// =============================================================================
// BATCH UPDATE
// =============================================================================

// UpdateAllStatuses scans every upcoming/pending payment, applies the
// single-payment rule, and persists changed rows only. Returns the number of
// payments updated. A failing row does not block the rest; the accumulated
// errors come back joined.
func (e *Engine) UpdateAllStatuses(ctx context.Context, today Date) (int, error) {
	payments, err := e.Payments.ListByStatus(ctx, StatusUpcoming, StatusPending)
	if err != nil {
		return 0, err
	}

	updated := 0
	var errs []error
	for i := range payments {
		p := payments[i]
		next := StatusFor(&p, today)
		if next == p.Status {
			continue
		}

		prev := p.Status
		p.Status = next
		p.UpdatedAt = today
		if err := e.Payments.UpdatePayment(ctx, p); err != nil {
			errs = append(errs, err)
			e.Log.Warn("status update failed",
				zap.String("payment_id", string(p.ID)), zap.Error(err))
			continue
		}

		updated++
		metrics.StatusTransitions.WithLabelValues(string(prev), string(next)).Inc()
		e.Log.Debug("payment status advanced",
			zap.String("payment_id", string(p.ID)),
			zap.String("from", string(prev)),
			zap.String("to", string(next)))
	}

	return updated, errors.Join(errs...)
}

// =============================================================================
// DAILY RUN
// =============================================================================

// RunReport summarizes one engine invocation.
type RunReport struct {
	Today           Date
	StatusesUpdated int
	Results         []GenerationResult
}

// GeneratedCount returns how many payments the run created.
func (r RunReport) GeneratedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Generated() {
			n++
		}
	}
	return n
}

// ErrorCount returns how many schedules failed during the run.
func (r RunReport) ErrorCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// RunDaily performs one full engine pass: status transitions first, so
// freshly finalized periods are visible to the generator's due check, then
// generation over all active schedules.
func (e *Engine) RunDaily(ctx context.Context) (RunReport, error) {
	today := e.Clock.Today()
	report := RunReport{Today: today}

	updated, err := e.UpdateAllStatuses(ctx, today)
	report.StatusesUpdated = updated
	if err != nil {
		// Partial status failures don't stop generation; surface them after.
		e.Log.Warn("status pass completed with errors", zap.Error(err))
	}

	results, genErr := e.GenerateAllDue(ctx, today)
	report.Results = results

	metrics.BillingRuns.Inc()
	e.Log.Info("billing run complete",
		zap.String("today", today.String()),
		zap.Int("statuses_updated", report.StatusesUpdated),
		zap.Int("generated", report.GeneratedCount()),
		zap.Int("errors", report.ErrorCount()))

	return report, errors.Join(err, genErr)
}

// =============================================================================
// REMINDER QUERIES
// =============================================================================

// PaymentsEnteringWindow returns payments whose window opens today. Useful
// for reminder dispatch by notification collaborators.
func (e *Engine) PaymentsEnteringWindow(ctx context.Context, today Date) ([]Payment, error) {
	payments, err := e.Payments.ListByStatus(ctx, StatusUpcoming)
	if err != nil {
		return nil, err
	}
	var out []Payment
	for _, p := range payments {
		if p.DueDate.Equal(today) {
			out = append(out, p)
		}
	}
	return out, nil
}

// PaymentsBecomingOverdue returns payments whose window closed yesterday.
// Useful for overdue notices.
func (e *Engine) PaymentsBecomingOverdue(ctx context.Context, today Date) ([]Payment, error) {
	payments, err := e.Payments.ListByStatus(ctx, StatusUpcoming, StatusPending, StatusOverdue)
	if err != nil {
		return nil, err
	}
	yesterday := today.AddDays(-1)
	var out []Payment
	for _, p := range payments {
		if p.WindowEnd.Equal(yesterday) {
			out = append(out, p)
		}
	}
	return out, nil
}
