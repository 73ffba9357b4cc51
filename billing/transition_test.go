package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-engine/billing"
)

// openPayment seeds a generated payment for the standard January schedule and
// returns it.
func openPayment(t *testing.T, ctx context.Context, f *fixture) *billing.Payment {
	t.Helper()
	f.addTenant(ctx, "t1", true)
	s := f.addSchedule(ctx, "s1", "t1", "2024-01-01")
	p, _, err := f.engine.GenerateForSchedule(ctx, s, f.clock.Today(), false)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// =============================================================================
// TIME-DRIVEN LIFECYCLE
// =============================================================================

func TestStatusFor_Lifecycle(t *testing.T) {
	// Payment due Jan 5, window ends Jan 10.
	p := &billing.Payment{
		Status:    billing.StatusUpcoming,
		DueDate:   d("2024-01-05"),
		WindowEnd: d("2024-01-10"),
	}

	cases := []struct {
		today string
		want  billing.Status
	}{
		{"2024-01-01", billing.StatusUpcoming},
		{"2024-01-05", billing.StatusPending},
		{"2024-01-10", billing.StatusPending},
		{"2024-01-11", billing.StatusOverdue},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, billing.StatusFor(p, d(tc.today)), "today=%s", tc.today)
	}
}

func TestStatusFor_TerminalAndVerifyingUntouched(t *testing.T) {
	// Time never moves a finalized or verifying payment.
	frozen := []billing.Status{
		billing.StatusOnTime,
		billing.StatusLate,
		billing.StatusWaived,
		billing.StatusVerifying,
	}
	for _, st := range frozen {
		p := &billing.Payment{
			Status:    st,
			DueDate:   d("2024-01-05"),
			WindowEnd: d("2024-01-10"),
		}
		assert.Equal(t, st, billing.StatusFor(p, d("2024-06-01")), "status %s", st)
	}
}

func TestStatusFor_OverdueNeverRegresses(t *testing.T) {
	// Once overdue, a clock moved backwards does not resurrect the payment.
	p := &billing.Payment{
		Status:    billing.StatusOverdue,
		DueDate:   d("2024-01-05"),
		WindowEnd: d("2024-01-10"),
	}
	assert.Equal(t, billing.StatusOverdue, billing.StatusFor(p, d("2024-01-02")))
}

func TestUpdateAllStatuses_AdvancesOpenPayments(t *testing.T) {
	// GIVEN: An upcoming January payment
	// WHEN: Running the status pass on due date, then past the window
	// THEN: It advances to pending, then overdue, one update per pass

	ctx := context.Background()
	f := newFixture("2024-01-01")
	p := openPayment(t, ctx, f)
	require.Equal(t, billing.StatusUpcoming, p.Status)

	n, err := f.engine.UpdateAllStatuses(ctx, d("2024-01-05"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.mem.GetPayment(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPending, got.Status)

	n, err = f.engine.UpdateAllStatuses(ctx, d("2024-01-11"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _ = f.mem.GetPayment(ctx, p.ID)
	assert.Equal(t, billing.StatusOverdue, got.Status)

	// Nothing left to advance.
	n, err = f.engine.UpdateAllStatuses(ctx, d("2024-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// =============================================================================
// DAILY RUN
// =============================================================================

func TestRunDaily_StatusesBeforeGeneration(t *testing.T) {
	// GIVEN: An open January payment and the clock at Feb 2
	// WHEN: Running the daily pass
	// THEN: January goes overdue AND February generates in the same pass

	ctx := context.Background()
	f := newFixture("2024-01-01")
	p := openPayment(t, ctx, f)

	f.clock.Date = d("2024-02-02")
	report, err := f.engine.RunDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.StatusesUpdated)
	assert.Equal(t, 1, report.GeneratedCount())
	assert.Equal(t, 0, report.ErrorCount())

	got, _ := f.mem.GetPayment(ctx, p.ID)
	assert.Equal(t, billing.StatusOverdue, got.Status)
}

func TestRunDaily_QuietDayIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-01")
	openPayment(t, ctx, f)

	f.clock.Date = d("2024-01-02")
	report, err := f.engine.RunDaily(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.StatusesUpdated)
	assert.Equal(t, 0, report.GeneratedCount())
}

// =============================================================================
// REMINDER QUERIES
// =============================================================================

func TestPaymentsEnteringWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture("2024-01-01")
	p := openPayment(t, ctx, f)

	due, err := f.engine.PaymentsEnteringWindow(ctx, d("2024-01-05"))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, p.ID, due[0].ID)

	none, err := f.engine.PaymentsEnteringWindow(ctx, d("2024-01-06"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPaymentsBecomingOverdue(t *testing.T) {
	// Window ends Jan 10; the overdue notice fires on Jan 11.
	ctx := context.Background()
	f := newFixture("2024-01-01")
	p := openPayment(t, ctx, f)

	hits, err := f.engine.PaymentsBecomingOverdue(ctx, d("2024-01-11"))
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, p.ID, hits[0].ID)

	none, err := f.engine.PaymentsBecomingOverdue(ctx, d("2024-01-12"))
	require.NoError(t, err)
	assert.Empty(t, none)
}
