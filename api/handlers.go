/*
handlers.go - HTTP API handlers for the rent billing engine

PURPOSE:
  Exposes the billing engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates all billing decisions to the engine.

ENDPOINTS:
  Tenants:
    GET    /api/tenants                   List tenants
    POST   /api/tenants                   Create tenant (+schedule, +proration)
    GET    /api/tenants/{id}              Get tenant
    POST   /api/tenants/{id}/move-out     Deactivate tenant and schedule

  Schedules:
    GET    /api/schedules                 List active schedules
    POST   /api/schedules                 Create schedule
    GET    /api/schedules/{id}            Get schedule

  Payments:
    GET    /api/payments                  List (status/tenant filters)
    GET    /api/payments/summary          Dashboard roll-up
    GET    /api/payments/upcoming         Due within N days
    GET    /api/payments/overdue          Past the window
    GET    /api/payments/{id}             Get payment
    POST   /api/payments/manual           One-off charge
    PUT    /api/payments/{id}/mark-paid   Record a payment
    PUT    /api/payments/{id}/waive       Forgive a payment
    PUT    /api/payments/{id}/verify          Tenant-reported payment
    PUT    /api/payments/{id}/verify/approve  Landlord approval
    PUT    /api/payments/{id}/verify/reject   Landlord rejection

  Admin:
    POST   /api/admin/run                 Trigger a full engine pass now
    POST   /api/admin/generate            Force-generate for one schedule
    GET    /api/admin/runs                Recent run audit records

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, illegal transitions
  - 404: Resource not found
  - 409: Duplicate period / schedule conflicts
  - 500: Internal errors
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/rent-engine/billing"
	"github.com/warp/rent-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *billing.Engine
	Validate *validator.Validate
	Log      *zap.Logger
}

// NewHandler creates a handler around a store and engine.
func NewHandler(store *sqlite.Store, engine *billing.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Engine:   engine,
		Validate: validator.New(),
		Log:      log,
	}
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns all tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Store.ListTenants(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tenants", err)
		return
	}

	dtos := make([]TenantDTO, len(tenants))
	for i, t := range tenants {
		sched, err := h.Store.GetScheduleByTenant(r.Context(), t.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load schedules", err)
			return
		}
		dtos[i] = toTenantDTO(t, sched != nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTenant returns a single tenant.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	id := billing.TenantID(chi.URLParam(r, "id"))

	tenant, err := h.Store.GetTenant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenant", err)
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	sched, err := h.Store.GetScheduleByTenant(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTO(*tenant, sched != nil))
}

// CreateTenant creates a tenant, optionally with a billing schedule. Mid-month
// move-ins with a schedule also get their prorated first charge.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	moveIn, err := billing.ParseDate(req.MoveInDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid move_in_date (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	today := h.Engine.Clock.Today()
	tenant := billing.Tenant{
		ID:         billing.TenantID(uuid.NewString()),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		MoveInDate: moveIn,
		IsActive:   true,
		Notes:      req.Notes,
		CreatedAt:  today,
	}
	if err := h.Store.SaveTenant(ctx, tenant); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create tenant", err)
		return
	}

	hasSchedule := false
	if req.PaymentAmount > 0 {
		sched := billing.Schedule{
			ID:         billing.ScheduleID(uuid.NewString()),
			TenantID:   tenant.ID,
			Amount:     decimal.NewFromFloat(req.PaymentAmount),
			Frequency:  billing.Frequency(defaultStr(req.PaymentFrequency, string(billing.FrequencyMonthly))),
			DueDay:     defaultInt(req.PaymentDueDay, 1),
			WindowDays: defaultInt(req.PaymentWindowDays, 5),
			StartDate:  moveIn,
			IsActive:   true,
			CreatedAt:  today,
			UpdatedAt:  today,
		}
		if err := h.Store.SaveSchedule(ctx, sched); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create schedule", err)
			return
		}
		hasSchedule = true

		// Partial first month, when the move-in lands past the grace days.
		if _, _, err := h.Engine.CreateProratedCharge(ctx, tenant.ID, sched.Amount, moveIn); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create prorated charge", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, toTenantDTO(tenant, hasSchedule))
}

// MoveOutTenant deactivates a tenant and their schedule. Existing payments
// stay on the ledger.
func (h *Handler) MoveOutTenant(w http.ResponseWriter, r *http.Request) {
	id := billing.TenantID(chi.URLParam(r, "id"))
	ctx := r.Context()

	tenant, err := h.Store.GetTenant(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenant", err)
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	tenant.IsActive = false
	if err := h.Store.SaveTenant(ctx, *tenant); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update tenant", err)
		return
	}

	sched, err := h.Store.GetScheduleByTenant(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load schedule", err)
		return
	}
	if sched != nil {
		sched.IsActive = false
		sched.UpdatedAt = h.Engine.Clock.Today()
		if err := h.Store.SaveSchedule(ctx, *sched); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to deactivate schedule", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toTenantDTO(*tenant, false))
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// ListSchedules returns all active schedules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Store.ListActiveSchedules(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list schedules", err)
		return
	}

	dtos := make([]ScheduleDTO, len(schedules))
	for i, s := range schedules {
		dtos[i] = toScheduleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetSchedule returns a single schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id := billing.ScheduleID(chi.URLParam(r, "id"))

	sched, err := h.Store.GetSchedule(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	if sched == nil {
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(*sched))
}

// CreateSchedule creates a billing schedule for an existing tenant.
func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	startDate, err := billing.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}

	ctx := r.Context()
	tenant, err := h.Store.GetTenant(ctx, billing.TenantID(req.TenantID))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tenant", err)
		return
	}
	if tenant == nil {
		writeError(w, http.StatusNotFound, "Tenant not found", nil)
		return
	}

	existing, err := h.Store.GetScheduleByTenant(ctx, tenant.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check schedule", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Tenant already has an active schedule", billing.ErrScheduleExists)
		return
	}

	today := h.Engine.Clock.Today()
	sched := billing.Schedule{
		ID:         billing.ScheduleID(uuid.NewString()),
		TenantID:   tenant.ID,
		Amount:     decimal.NewFromFloat(req.Amount),
		Frequency:  billing.Frequency(req.Frequency),
		DueDay:     req.DueDay,
		WindowDays: req.WindowDays,
		StartDate:  startDate,
		IsActive:   true,
		CreatedAt:  today,
		UpdatedAt:  today,
	}
	if err := h.Store.SaveSchedule(ctx, sched); err != nil {
		status := http.StatusInternalServerError
		if billing.IsClientError(err) {
			status = http.StatusConflict
		}
		writeError(w, status, "Failed to create schedule", err)
		return
	}

	writeJSON(w, http.StatusCreated, toScheduleDTO(sched))
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns payments with optional status/tenant filters. Statuses
// are refreshed first so the listing reflects today's calendar.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := h.Engine.Clock.Today()

	if _, err := h.Engine.UpdateAllStatuses(ctx, today); err != nil {
		h.Log.Warn("status refresh failed during listing", zap.Error(err))
	}

	var payments []billing.Payment
	var err error
	if tenantID := r.URL.Query().Get("tenant_id"); tenantID != "" {
		payments, err = h.Store.ListByTenant(ctx, billing.TenantID(tenantID))
	} else {
		payments, err = h.Store.ListPayments(ctx)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	if statusFilter := r.URL.Query().Get("status"); statusFilter != "" {
		filtered := payments[:0]
		for _, p := range payments {
			if string(p.Status) == statusFilter {
				filtered = append(filtered, p)
			}
		}
		payments = filtered
	}

	writeJSON(w, http.StatusOK, PaymentListResponse{
		Payments: toPaymentDTOs(payments),
		Total:    len(payments),
	})
}

// GetPayment returns a single payment, refreshed against today.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))
	ctx := r.Context()

	p, err := h.Store.GetPayment(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get payment", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}

	today := h.Engine.Clock.Today()
	if next := billing.StatusFor(p, today); next != p.Status {
		p.Status = next
		p.UpdatedAt = today
		if err := h.Store.UpdatePayment(ctx, *p); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to refresh payment", err)
			return
		}
	}

	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// GetPaymentSummary returns the dashboard roll-up.
func (h *Handler) GetPaymentSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := h.Engine.Clock.Today()

	if _, err := h.Engine.UpdateAllStatuses(ctx, today); err != nil {
		h.Log.Warn("status refresh failed during summary", zap.Error(err))
	}

	payments, err := h.Store.ListPayments(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	firstOfMonth := billing.NewDate(today.Year(), today.Month(), 1)
	var summary PaymentSummaryDTO
	collected := decimal.Zero
	outstanding := decimal.Zero

	for _, p := range payments {
		switch p.Status {
		case billing.StatusUpcoming:
			summary.TotalUpcoming++
			outstanding = outstanding.Add(p.AmountDue)
		case billing.StatusPending:
			summary.TotalPending++
			outstanding = outstanding.Add(p.AmountDue)
		case billing.StatusOverdue:
			summary.TotalOverdue++
			outstanding = outstanding.Add(p.AmountDue)
		case billing.StatusOnTime, billing.StatusLate:
			if !p.PaidDate.IsZero() && p.PaidDate.AfterOrEqual(firstOfMonth) {
				summary.TotalPaidThisMonth++
				collected = collected.Add(p.AmountDue)
			}
		}
	}

	summary.AmountCollectedThisMonth, _ = collected.Float64()
	summary.AmountOutstanding, _ = outstanding.Float64()
	writeJSON(w, http.StatusOK, summary)
}

// GetUpcomingPayments returns open payments due within N days (default 30).
func (h *Handler) GetUpcomingPayments(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 90 {
			days = n
		}
	}

	ctx := r.Context()
	today := h.Engine.Clock.Today()
	end := today.AddDays(days)

	payments, err := h.Store.ListByStatus(ctx, billing.StatusUpcoming, billing.StatusPending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	var due []billing.Payment
	for _, p := range payments {
		if p.DueDate.AfterOrEqual(today) && p.DueDate.BeforeOrEqual(end) {
			due = append(due, p)
		}
	}

	writeJSON(w, http.StatusOK, PaymentListResponse{
		Payments: toPaymentDTOs(due),
		Total:    len(due),
	})
}

// GetOverduePayments returns payments past their window, refreshing statuses
// on the way out.
func (h *Handler) GetOverduePayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := h.Engine.Clock.Today()

	if _, err := h.Engine.UpdateAllStatuses(ctx, today); err != nil {
		h.Log.Warn("status refresh failed during overdue listing", zap.Error(err))
	}

	payments, err := h.Store.ListByStatus(ctx, billing.StatusOverdue)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, PaymentListResponse{
		Payments: toPaymentDTOs(payments),
		Total:    len(payments),
	})
}

// MarkPaymentPaid records a received payment.
func (h *Handler) MarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	var req MarkPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	var paidDate billing.Date
	if req.PaidDate != "" {
		var err error
		paidDate, err = billing.ParseDate(req.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_date (use YYYY-MM-DD)", err)
			return
		}
	}

	p, err := h.Engine.MarkPaid(r.Context(), id, paidDate, req.Reference, req.Notes)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// WaivePayment forgives a payment.
func (h *Handler) WaivePayment(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	var req WaiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, err := h.Engine.Waive(r.Context(), id, req.Notes)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// SubmitVerification records a tenant-reported payment pending approval.
func (h *Handler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var paidDate billing.Date
	if req.PaidDate != "" {
		var err error
		paidDate, err = billing.ParseDate(req.PaidDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid paid_date (use YYYY-MM-DD)", err)
			return
		}
	}

	p, err := h.Engine.SubmitVerification(r.Context(), id, paidDate, req.Reference)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// ApproveVerification finalizes a verifying payment.
func (h *Handler) ApproveVerification(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	p, err := h.Engine.ApproveVerification(r.Context(), id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// RejectVerification returns a verifying payment to the open lifecycle.
func (h *Handler) RejectVerification(w http.ResponseWriter, r *http.Request) {
	id := billing.PaymentID(chi.URLParam(r, "id"))

	p, err := h.Engine.RejectVerification(r.Context(), id)
	if err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(*p))
}

// CreateManualPayment creates a one-off charge.
func (h *Handler) CreateManualPayment(w http.ResponseWriter, r *http.Request) {
	var req ManualPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	periodStart, err1 := billing.ParseDate(req.PeriodStart)
	periodEnd, err2 := billing.ParseDate(req.PeriodEnd)
	dueDate, err3 := billing.ParseDate(req.DueDate)
	if err1 != nil || err2 != nil || err3 != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", nil)
		return
	}

	p, err := h.Engine.CreateManualCharge(r.Context(), billing.ManualChargeInput{
		TenantID:    billing.TenantID(req.TenantID),
		Amount:      decimal.NewFromFloat(req.AmountDue),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		DueDate:     dueDate,
		Notes:       req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, toPaymentDTO(*p))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerRun runs a full engine pass immediately.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.Engine.RunDaily(r.Context())
	if err != nil {
		h.Log.Warn("manual billing run completed with errors", zap.Error(err))
	}

	dto := RunResultDTO{
		Today:           report.Today.String(),
		StatusesUpdated: report.StatusesUpdated,
		Generated:       report.GeneratedCount(),
	}
	for _, res := range report.Results {
		item := RunItemDTO{
			ScheduleID: string(res.ScheduleID),
			TenantID:   string(res.TenantID),
			Skip:       string(res.Skip),
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		if res.Payment != nil {
			p := toPaymentDTO(*res.Payment)
			item.Payment = &p
		}
		dto.Results = append(dto.Results, item)
	}

	writeJSON(w, http.StatusOK, dto)
}

// ForceGenerate backfills the next payment for one schedule, skipping the due
// gate but keeping the look-ahead and duplicate guards.
func (h *Handler) ForceGenerate(w http.ResponseWriter, r *http.Request) {
	scheduleID := billing.ScheduleID(r.URL.Query().Get("schedule_id"))
	if scheduleID == "" {
		writeError(w, http.StatusBadRequest, "schedule_id is required", nil)
		return
	}

	ctx := r.Context()
	sched, err := h.Store.GetSchedule(ctx, scheduleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get schedule", err)
		return
	}
	if sched == nil {
		writeError(w, http.StatusNotFound, "Schedule not found", nil)
		return
	}

	p, skip, err := h.Engine.GenerateForSchedule(ctx, *sched, h.Engine.Clock.Today(), true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Generation failed", err)
		return
	}

	item := RunItemDTO{ScheduleID: string(sched.ID), TenantID: string(sched.TenantID), Skip: string(skip)}
	if p != nil {
		dto := toPaymentDTO(*p)
		item.Payment = &dto
	}
	writeJSON(w, http.StatusOK, item)
}

// ListBillingRuns returns recent engine run audit records.
func (h *Handler) ListBillingRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 500 {
			limit = n
		}
	}

	runs, err := h.Store.ListBillingRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]BillingRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toBillingRunDTO(run)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Error = msg + ": " + err.Error()
	}
	writeJSON(w, status, resp)
}

// writeActionError maps engine action errors onto HTTP statuses.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case billing.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Payment not found", nil)
	case billing.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Action not allowed", err)
	default:
		writeError(w, http.StatusInternalServerError, "Action failed", err)
	}
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func defaultInt(n, fallback int) int {
	if n == 0 {
		return fallback
	}
	return n
}
