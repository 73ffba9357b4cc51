/*
handlers_test.go - HTTP tests for the API surface

Tests drive the real router against an in-memory SQLite store with a pinned
clock, covering:
- Tenant onboarding (with schedule and prorated first charge)
- Payment listing, refresh-on-read and actions
- The verification flow
- Admin run trigger and run audit listing
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/rent-engine/billing"
	"github.com/warp/rent-engine/store/sqlite"
)

type testEnv struct {
	store  *sqlite.Store
	engine *billing.Engine
	clock  *billing.FixedClock
	router http.Handler
}

func newTestEnv(t *testing.T, today string) *testEnv {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := &billing.FixedClock{Date: billing.MustParseDate(today)}
	engine := billing.NewEngine(store, store, store, clock, nil)
	handler := NewHandler(store, engine, nil)

	return &testEnv{
		store:  store,
		engine: engine,
		clock:  clock,
		router: NewRouter(handler),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// =============================================================================
// TENANTS
// =============================================================================

func TestCreateTenant_WithScheduleAndProration(t *testing.T) {
	// GIVEN: A mid-month move-in with rent configured
	// WHEN: Creating the tenant
	// THEN: Tenant, schedule and the prorated first charge all exist

	env := newTestEnv(t, "2024-01-15")

	rec := env.do(t, "POST", "/api/tenants", CreateTenantRequest{
		Name:          "Budi Santoso",
		Email:         "budi@example.com",
		MoveInDate:    "2024-01-15",
		PaymentAmount: 500000,
		PaymentDueDay: 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tenant := decode[TenantDTO](t, rec)
	assert.Equal(t, "Budi Santoso", tenant.Name)
	assert.True(t, tenant.HasSchedule)

	payments, err := env.store.ListByTenant(context.Background(), billing.TenantID(tenant.ID))
	require.NoError(t, err)
	require.Len(t, payments, 1, "expected the prorated charge")
	assert.True(t, payments[0].IsManual)
	assert.Equal(t, "274193.55", payments[0].AmountDue.StringFixed(2))
}

func TestCreateTenant_EarlyMoveInNoProration(t *testing.T) {
	env := newTestEnv(t, "2024-01-03")

	rec := env.do(t, "POST", "/api/tenants", CreateTenantRequest{
		Name:          "Siti Rahma",
		MoveInDate:    "2024-01-03",
		PaymentAmount: 450000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	tenant := decode[TenantDTO](t, rec)
	payments, err := env.store.ListByTenant(context.Background(), billing.TenantID(tenant.ID))
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCreateTenant_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")

	rec := env.do(t, "POST", "/api/tenants", CreateTenantRequest{
		Name:       "",
		MoveInDate: "not-a-date",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMoveOutTenant_DeactivatesSchedule(t *testing.T) {
	env := newTestEnv(t, "2024-01-03")
	ctx := context.Background()

	rec := env.do(t, "POST", "/api/tenants", CreateTenantRequest{
		Name:          "Budi",
		MoveInDate:    "2024-01-03",
		PaymentAmount: 500000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	tenant := decode[TenantDTO](t, rec)

	rec = env.do(t, "POST", "/api/tenants/"+tenant.ID+"/move-out", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sched, err := env.store.GetScheduleByTenant(ctx, billing.TenantID(tenant.ID))
	require.NoError(t, err)
	assert.Nil(t, sched, "active schedule should be gone")

	got, err := env.store.GetTenant(ctx, billing.TenantID(tenant.ID))
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

// =============================================================================
// SCHEDULES
// =============================================================================

func TestCreateSchedule_ConflictOnSecondActive(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	require.NoError(t, env.store.SaveTenant(ctx, billing.Tenant{
		ID: "t1", Name: "Budi", MoveInDate: billing.MustParseDate("2024-01-01"), IsActive: true,
	}))

	mk := func() *httptest.ResponseRecorder {
		return env.do(t, "POST", "/api/schedules", CreateScheduleRequest{
			TenantID:   "t1",
			Amount:     500000,
			Frequency:  "monthly",
			DueDay:     5,
			WindowDays: 5,
			StartDate:  "2024-01-01",
		})
	}

	require.Equal(t, http.StatusCreated, mk().Code)
	assert.Equal(t, http.StatusConflict, mk().Code)
}

func TestCreateSchedule_UnknownTenant(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")

	rec := env.do(t, "POST", "/api/schedules", CreateScheduleRequest{
		TenantID:   "ghost",
		Amount:     500000,
		Frequency:  "monthly",
		DueDay:     5,
		WindowDays: 5,
		StartDate:  "2024-01-01",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// PAYMENTS
// =============================================================================

// seedOpenPayment creates a tenant+schedule and runs generation once.
func seedOpenPayment(t *testing.T, env *testEnv) billing.Payment {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, env.store.SaveTenant(ctx, billing.Tenant{
		ID: "t1", Name: "Budi", MoveInDate: billing.MustParseDate("2024-01-01"), IsActive: true,
	}))
	require.NoError(t, env.store.SaveSchedule(ctx, billing.Schedule{
		ID: "s1", TenantID: "t1",
		Amount:    billing.MustParseDecimal("500000"),
		Frequency: billing.FrequencyMonthly,
		DueDay:    5, WindowDays: 5,
		StartDate: billing.MustParseDate("2024-01-01"),
		IsActive:  true,
	}))

	_, err := env.engine.RunDaily(ctx)
	require.NoError(t, err)

	payments, err := env.store.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	return payments[0]
}

func TestListPayments_RefreshesStatuses(t *testing.T) {
	// GIVEN: A payment generated as upcoming
	// WHEN: Listing after the due date has passed
	// THEN: The listing shows pending without any engine pass in between

	env := newTestEnv(t, "2024-01-01")
	seedOpenPayment(t, env)

	env.clock.Date = billing.MustParseDate("2024-01-06")
	rec := env.do(t, "GET", "/api/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[PaymentListResponse](t, rec)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "pending", resp.Payments[0].Status)
}

func TestListPayments_StatusFilter(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	seedOpenPayment(t, env)

	rec := env.do(t, "GET", "/api/payments?status=upcoming", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[PaymentListResponse](t, rec).Total)

	rec = env.do(t, "GET", "/api/payments?status=waived", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[PaymentListResponse](t, rec).Total)
}

func TestMarkPaid_HTTPFlow(t *testing.T) {
	env := newTestEnv(t, "2024-01-06")
	p := seedOpenPayment(t, env)

	rec := env.do(t, "PUT", "/api/payments/"+string(p.ID)+"/mark-paid", MarkPaidRequest{
		PaidDate:  "2024-01-06",
		Reference: "txf-6",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	dto := decode[PaymentDTO](t, rec)
	assert.Equal(t, "on_time", dto.Status)
	assert.Equal(t, "txf-6", dto.Reference)

	// Finalized payments reject a second action.
	rec = env.do(t, "PUT", "/api/payments/"+string(p.ID)+"/mark-paid", MarkPaidRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkPaid_UnknownPayment(t *testing.T) {
	env := newTestEnv(t, "2024-01-06")

	rec := env.do(t, "PUT", "/api/payments/ghost/mark-paid", MarkPaidRequest{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWaive_HTTPFlow(t *testing.T) {
	env := newTestEnv(t, "2024-01-06")
	p := seedOpenPayment(t, env)

	rec := env.do(t, "PUT", "/api/payments/"+string(p.ID)+"/waive", WaiveRequest{
		Notes: "damage compensation",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "waived", decode[PaymentDTO](t, rec).Status)
}

func TestVerificationFlow_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-08")
	p := seedOpenPayment(t, env)
	path := "/api/payments/" + string(p.ID)

	rec := env.do(t, "PUT", path+"/verify", VerifyRequest{
		PaidDate:  "2024-01-08",
		Reference: "txf-8",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "verifying", decode[PaymentDTO](t, rec).Status)

	rec = env.do(t, "PUT", path+"/verify/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "on_time", decode[PaymentDTO](t, rec).Status)

	// Approving again is illegal.
	rec = env.do(t, "PUT", path+"/verify/approve", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualPayment_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	require.NoError(t, env.store.SaveTenant(ctx, billing.Tenant{
		ID: "t1", Name: "Budi", MoveInDate: billing.MustParseDate("2024-01-01"), IsActive: true,
	}))

	rec := env.do(t, "POST", "/api/payments/manual", ManualPaymentRequest{
		TenantID:    "t1",
		AmountDue:   75000,
		PeriodStart: "2024-01-10",
		PeriodEnd:   "2024-01-10",
		DueDate:     "2024-01-15",
		Notes:       "key replacement",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	dto := decode[PaymentDTO](t, rec)
	assert.True(t, dto.IsManual)
	assert.Equal(t, "upcoming", dto.Status)
}

func TestPaymentSummary_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-06")
	p := seedOpenPayment(t, env)

	// One paid this month, one outstanding manual charge.
	_, err := env.engine.MarkPaid(context.Background(), p.ID, billing.MustParseDate("2024-01-06"), "", "")
	require.NoError(t, err)
	_, err = env.engine.CreateManualCharge(context.Background(), billing.ManualChargeInput{
		TenantID:    "t1",
		Amount:      billing.MustParseDecimal("75000"),
		PeriodStart: billing.MustParseDate("2024-01-10"),
		PeriodEnd:   billing.MustParseDate("2024-01-10"),
		DueDate:     billing.MustParseDate("2024-01-15"),
	})
	require.NoError(t, err)

	rec := env.do(t, "GET", "/api/payments/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[PaymentSummaryDTO](t, rec)
	assert.Equal(t, 1, summary.TotalPaidThisMonth)
	assert.Equal(t, 1, summary.TotalUpcoming)
	assert.InDelta(t, 500000, summary.AmountCollectedThisMonth, 0.001)
	assert.InDelta(t, 75000, summary.AmountOutstanding, 0.001)
}

func TestUpcomingPayments_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	seedOpenPayment(t, env)

	rec := env.do(t, "GET", "/api/payments/upcoming?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[PaymentListResponse](t, rec).Total)

	rec = env.do(t, "GET", "/api/payments/upcoming?days=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[PaymentListResponse](t, rec).Total)
}

func TestOverduePayments_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	seedOpenPayment(t, env)

	env.clock.Date = billing.MustParseDate("2024-01-11")
	rec := env.do(t, "GET", "/api/payments/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[PaymentListResponse](t, rec).Total)
}

// =============================================================================
// ADMIN
// =============================================================================

func TestAdminRun_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	ctx := context.Background()

	require.NoError(t, env.store.SaveTenant(ctx, billing.Tenant{
		ID: "t1", Name: "Budi", MoveInDate: billing.MustParseDate("2024-01-01"), IsActive: true,
	}))
	require.NoError(t, env.store.SaveSchedule(ctx, billing.Schedule{
		ID: "s1", TenantID: "t1",
		Amount:    billing.MustParseDecimal("500000"),
		Frequency: billing.FrequencyMonthly,
		DueDay:    5, WindowDays: 5,
		StartDate: billing.MustParseDate("2024-01-01"),
		IsActive:  true,
	}))

	rec := env.do(t, "POST", "/api/admin/run", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	result := decode[RunResultDTO](t, rec)
	assert.Equal(t, "2024-01-01", result.Today)
	assert.Equal(t, 1, result.Generated)
	require.Len(t, result.Results, 1)
	require.NotNil(t, result.Results[0].Payment)
	assert.Equal(t, "upcoming", result.Results[0].Payment.Status)
}

func TestAdminForceGenerate_HTTP(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	seedOpenPayment(t, env)

	// January is still open, but force produces February.
	rec := env.do(t, "POST", "/api/admin/generate?schedule_id=s1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	item := decode[RunItemDTO](t, rec)
	require.NotNil(t, item.Payment)
	assert.Equal(t, "2024-02-01", item.Payment.PeriodStart)
}

func TestAdminForceGenerate_MissingParams(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")

	rec := env.do(t, "POST", "/api/admin/generate", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "POST", "/api/admin/generate?schedule_id=ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")

	rec := env.do(t, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
