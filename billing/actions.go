/*
actions.go - Explicit payment actions

PURPOSE:
  State changes driven by people rather than by the calendar: recording a
  payment, waiving a charge, and the tenant-reported verification flow.
  Every action validates the current status; illegal moves come back as
  IllegalTransitionError rather than silently rewriting history.

VERIFICATION FLOW:
  A tenant reports a payment -> verifying (paid date recorded).
  Landlord approves          -> on_time or late, judged from the paid date.
  Landlord rejects           -> back to the time-computed status; the paid
                                date is cleared.
*/
package billing

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/rent-engine/metrics"
)

// MarkPaid records a payment received on paidDate. On or before the window
// end the payment finalizes as on_time, after it as late. Zero paidDate
// means today. Finalized payments reject the action.
func (e *Engine) MarkPaid(ctx context.Context, id PaymentID, paidDate Date, reference, notes string) (*Payment, error) {
	p, err := e.mutablePayment(ctx, id, "mark paid")
	if err != nil {
		return nil, err
	}

	if paidDate.IsZero() {
		paidDate = e.Clock.Today()
	}

	prev := p.Status
	if p.InWindow(paidDate) {
		p.Status = StatusOnTime
	} else {
		p.Status = StatusLate
	}
	p.PaidDate = paidDate
	p.Reference = reference
	if notes != "" {
		p.Notes = notes
	}
	p.UpdatedAt = e.Clock.Today()

	if err := e.Payments.UpdatePayment(ctx, *p); err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(prev), string(p.Status)).Inc()
	e.Log.Info("payment marked paid",
		zap.String("payment_id", string(p.ID)),
		zap.String("status", string(p.Status)),
		zap.String("paid_date", paidDate.String()))
	return p, nil
}

// Waive forgives a payment. Finalized payments reject the action.
func (e *Engine) Waive(ctx context.Context, id PaymentID, notes string) (*Payment, error) {
	p, err := e.mutablePayment(ctx, id, "waive")
	if err != nil {
		return nil, err
	}

	prev := p.Status
	p.Status = StatusWaived
	if notes != "" {
		p.Notes = notes
	}
	p.UpdatedAt = e.Clock.Today()

	if err := e.Payments.UpdatePayment(ctx, *p); err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(prev), string(p.Status)).Inc()
	e.Log.Info("payment waived", zap.String("payment_id", string(p.ID)))
	return p, nil
}

// SubmitVerification records a tenant-reported payment pending landlord
// approval. The claimed paid date is kept so approval can judge on-time vs
// late later. Zero paidDate means today.
func (e *Engine) SubmitVerification(ctx context.Context, id PaymentID, paidDate Date, reference string) (*Payment, error) {
	p, err := e.mutablePayment(ctx, id, "submit verification")
	if err != nil {
		return nil, err
	}
	if p.Status == StatusVerifying {
		return nil, &IllegalTransitionError{PaymentID: id, From: p.Status, Action: "submit verification"}
	}

	if paidDate.IsZero() {
		paidDate = e.Clock.Today()
	}

	prev := p.Status
	p.Status = StatusVerifying
	p.PaidDate = paidDate
	p.Reference = reference
	p.UpdatedAt = e.Clock.Today()

	if err := e.Payments.UpdatePayment(ctx, *p); err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(prev), string(p.Status)).Inc()
	return p, nil
}

// ApproveVerification finalizes a verifying payment, judging on-time vs late
// from the paid date recorded at submission.
func (e *Engine) ApproveVerification(ctx context.Context, id PaymentID) (*Payment, error) {
	p, err := e.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusVerifying {
		return nil, &IllegalTransitionError{PaymentID: id, From: p.Status, Action: "approve verification"}
	}

	if p.InWindow(p.PaidDate) {
		p.Status = StatusOnTime
	} else {
		p.Status = StatusLate
	}
	p.UpdatedAt = e.Clock.Today()

	if err := e.Payments.UpdatePayment(ctx, *p); err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(StatusVerifying), string(p.Status)).Inc()
	e.Log.Info("verification approved",
		zap.String("payment_id", string(p.ID)),
		zap.String("status", string(p.Status)))
	return p, nil
}

// RejectVerification returns a verifying payment to the time-computed status
// and clears the claimed paid date.
func (e *Engine) RejectVerification(ctx context.Context, id PaymentID) (*Payment, error) {
	p, err := e.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != StatusVerifying {
		return nil, &IllegalTransitionError{PaymentID: id, From: p.Status, Action: "reject verification"}
	}

	today := e.Clock.Today()
	p.PaidDate = Date{}
	p.Status = InitialStatus(p.DueDate, p.WindowEnd, today)
	p.UpdatedAt = today

	if err := e.Payments.UpdatePayment(ctx, *p); err != nil {
		return nil, err
	}

	metrics.StatusTransitions.WithLabelValues(string(StatusVerifying), string(p.Status)).Inc()
	return p, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (e *Engine) getPayment(ctx context.Context, id PaymentID) (*Payment, error) {
	p, err := e.Payments.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// mutablePayment loads a payment and rejects the action if it is already
// finalized.
func (e *Engine) mutablePayment(ctx context.Context, id PaymentID, action string) (*Payment, error) {
	p, err := e.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status.Terminal() {
		return nil, &IllegalTransitionError{PaymentID: id, From: p.Status, Action: action}
	}
	return p, nil
}
