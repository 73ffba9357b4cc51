package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-engine/billing"
)

// =============================================================================
// MARK PAID
// =============================================================================

func TestMarkPaid_InsideWindowIsOnTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	got, err := f.engine.MarkPaid(ctx, p.ID, d("2024-01-08"), "txf-123", "bank transfer")
	require.NoError(t, err)

	assert.Equal(t, billing.StatusOnTime, got.Status)
	assert.True(t, got.PaidDate.Equal(d("2024-01-08")))
	assert.Equal(t, "txf-123", got.Reference)
}

func TestMarkPaid_WindowBoundaryIsOnTime(t *testing.T) {
	// Paying exactly on the window end still counts as on time.
	ctx := context.Background()
	f := newFixture("2024-01-10")
	p := openPayment(t, ctx, f)

	got, err := f.engine.MarkPaid(ctx, p.ID, d("2024-01-10"), "", "")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOnTime, got.Status)
}

func TestMarkPaid_AfterWindowIsLate(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-15")
	p := openPayment(t, ctx, f)

	got, err := f.engine.MarkPaid(ctx, p.ID, d("2024-01-15"), "", "")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusLate, got.Status)
}

func TestMarkPaid_ZeroDateDefaultsToToday(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-07")
	p := openPayment(t, ctx, f)

	got, err := f.engine.MarkPaid(ctx, p.ID, billing.Date{}, "", "")
	require.NoError(t, err)
	assert.True(t, got.PaidDate.Equal(d("2024-01-07")))
	assert.Equal(t, billing.StatusOnTime, got.Status)
}

func TestMarkPaid_FinalizedRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	_, err := f.engine.MarkPaid(ctx, p.ID, d("2024-01-06"), "", "")
	require.NoError(t, err)

	_, err = f.engine.MarkPaid(ctx, p.ID, d("2024-01-07"), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)

	var illegal *billing.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, billing.StatusOnTime, illegal.From)
}

func TestMarkPaid_MissingPaymentRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")

	_, err := f.engine.MarkPaid(ctx, "nope", d("2024-01-06"), "", "")
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
}

// =============================================================================
// WAIVE
// =============================================================================

func TestWaive_OpenPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	got, err := f.engine.Waive(ctx, p.ID, "first month free promo")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusWaived, got.Status)
	assert.Equal(t, "first month free promo", got.Notes)
}

func TestWaive_FinalizedRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	_, err := f.engine.Waive(ctx, p.ID, "")
	require.NoError(t, err)

	_, err = f.engine.Waive(ctx, p.ID, "")
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

// =============================================================================
// VERIFICATION FLOW
// =============================================================================

func TestVerification_ApproveJudgesFromPaidDate(t *testing.T) {
	// GIVEN: A tenant reports paying inside the window
	// WHEN: The landlord approves days later
	// THEN: The payment finalizes on_time from the reported date, not today

	ctx := context.Background()
	f := newFixture("2024-01-09")
	p := openPayment(t, ctx, f)

	got, err := f.engine.SubmitVerification(ctx, p.ID, d("2024-01-09"), "txf-9")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusVerifying, got.Status)

	f.clock.Date = d("2024-01-20")
	got, err = f.engine.ApproveVerification(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOnTime, got.Status)
	assert.True(t, got.PaidDate.Equal(d("2024-01-09")))
}

func TestVerification_ApproveLateClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-12")
	p := openPayment(t, ctx, f)

	_, err := f.engine.SubmitVerification(ctx, p.ID, d("2024-01-12"), "")
	require.NoError(t, err)

	got, err := f.engine.ApproveVerification(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusLate, got.Status)
}

func TestVerification_RejectRestoresTimeStatus(t *testing.T) {
	// Rejecting drops the claimed paid date and recomputes from the calendar.
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	_, err := f.engine.SubmitVerification(ctx, p.ID, d("2024-01-06"), "")
	require.NoError(t, err)

	f.clock.Date = d("2024-01-15")
	got, err := f.engine.RejectVerification(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOverdue, got.Status)
	assert.True(t, got.PaidDate.IsZero())
}

func TestVerification_DoubleSubmitRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	_, err := f.engine.SubmitVerification(ctx, p.ID, d("2024-01-06"), "")
	require.NoError(t, err)

	_, err = f.engine.SubmitVerification(ctx, p.ID, d("2024-01-07"), "")
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestVerification_ApproveNonVerifyingRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	_, err := f.engine.ApproveVerification(ctx, p.ID)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)

	_, err = f.engine.RejectVerification(ctx, p.ID)
	assert.ErrorIs(t, err, billing.ErrIllegalTransition)
}

func TestVerification_TimeDoesNotTouchVerifying(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-06")
	p := openPayment(t, ctx, f)

	_, err := f.engine.SubmitVerification(ctx, p.ID, d("2024-01-06"), "")
	require.NoError(t, err)

	n, err := f.engine.UpdateAllStatuses(ctx, d("2024-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, _ := f.mem.GetPayment(ctx, p.ID)
	assert.Equal(t, billing.StatusVerifying, got.Status)
}
