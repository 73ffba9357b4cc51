/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the internal
  domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry go-playground/validator tags; handlers run them
  through the shared validator before touching the engine. This is the
  configuration-time validation the engine assumes has already happened
  (due_day 1-28, positive amounts, known frequencies).
*/
package api

import (
	"time"

	"github.com/warp/rent-engine/billing"
	"github.com/warp/rent-engine/store/sqlite"
)

// =============================================================================
// TENANTS
// =============================================================================

// TenantDTO represents a tenant in API responses.
type TenantDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	MoveInDate  string `json:"move_in_date"`
	IsActive    bool   `json:"is_active"`
	Notes       string `json:"notes,omitempty"`
	HasSchedule bool   `json:"has_schedule"`
}

// CreateTenantRequest creates a tenant, optionally with a billing schedule.
// When a schedule is included and the move-in lands mid-month, a prorated
// first charge is created as well.
type CreateTenantRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	Phone      string `json:"phone"`
	MoveInDate string `json:"move_in_date" validate:"required,datetime=2006-01-02"`
	Notes      string `json:"notes"`

	// Optional schedule, created with start_date = move_in_date.
	PaymentAmount     float64 `json:"payment_amount" validate:"omitempty,gt=0"`
	PaymentFrequency  string  `json:"payment_frequency" validate:"omitempty,oneof=monthly bi_monthly quarterly"`
	PaymentDueDay     int     `json:"payment_due_day" validate:"omitempty,min=1,max=28"`
	PaymentWindowDays int     `json:"payment_window_days" validate:"omitempty,min=1"`
}

// =============================================================================
// SCHEDULES
// =============================================================================

// ScheduleDTO represents a billing schedule in API responses.
type ScheduleDTO struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenant_id"`
	Amount     float64 `json:"amount"`
	Frequency  string  `json:"frequency"`
	DueDay     int     `json:"due_day"`
	WindowDays int     `json:"window_days"`
	StartDate  string  `json:"start_date"`
	IsActive   bool    `json:"is_active"`
}

// CreateScheduleRequest creates a billing schedule for a tenant.
type CreateScheduleRequest struct {
	TenantID   string  `json:"tenant_id" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Frequency  string  `json:"frequency" validate:"required,oneof=monthly bi_monthly quarterly"`
	DueDay     int     `json:"due_day" validate:"required,min=1,max=28"`
	WindowDays int     `json:"window_days" validate:"required,min=1"`
	StartDate  string  `json:"start_date" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID          string  `json:"id"`
	TenantID    string  `json:"tenant_id"`
	ScheduleID  string  `json:"schedule_id,omitempty"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	AmountDue   float64 `json:"amount_due"`
	DueDate     string  `json:"due_date"`
	WindowEnd   string  `json:"window_end_date"`
	Status      string  `json:"status"`
	PaidDate    string  `json:"paid_date,omitempty"`
	Reference   string  `json:"payment_reference,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	IsManual    bool    `json:"is_manual"`
}

// PaymentListResponse wraps a payment list.
type PaymentListResponse struct {
	Payments []PaymentDTO `json:"payments"`
	Total    int          `json:"total"`
}

// MarkPaidRequest records a received payment.
type MarkPaidRequest struct {
	PaidDate  string `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
	Reference string `json:"payment_reference"`
	Notes     string `json:"notes"`
}

// WaiveRequest forgives a payment.
type WaiveRequest struct {
	Notes string `json:"notes"`
}

// VerifyRequest reports a tenant-side payment pending approval.
type VerifyRequest struct {
	PaidDate  string `json:"paid_date" validate:"omitempty,datetime=2006-01-02"`
	Reference string `json:"payment_reference"`
}

// ManualPaymentRequest creates a one-off charge.
type ManualPaymentRequest struct {
	TenantID    string  `json:"tenant_id" validate:"required"`
	AmountDue   float64 `json:"amount_due" validate:"required,gt=0"`
	PeriodStart string  `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string  `json:"period_end" validate:"required,datetime=2006-01-02"`
	DueDate     string  `json:"due_date" validate:"required,datetime=2006-01-02"`
	Notes       string  `json:"notes"`
}

// PaymentSummaryDTO is the dashboard roll-up.
type PaymentSummaryDTO struct {
	TotalUpcoming            int     `json:"total_upcoming"`
	TotalPending             int     `json:"total_pending"`
	TotalOverdue             int     `json:"total_overdue"`
	TotalPaidThisMonth       int     `json:"total_paid_this_month"`
	AmountCollectedThisMonth float64 `json:"amount_collected_this_month"`
	AmountOutstanding        float64 `json:"amount_outstanding"`
}

// =============================================================================
// ENGINE RUNS
// =============================================================================

// RunResultDTO reports one engine invocation.
type RunResultDTO struct {
	Today           string       `json:"today"`
	StatusesUpdated int          `json:"statuses_updated"`
	Generated       int          `json:"generated"`
	Results         []RunItemDTO `json:"results,omitempty"`
}

// RunItemDTO is the per-schedule outcome of a generation pass.
type RunItemDTO struct {
	ScheduleID string      `json:"schedule_id"`
	TenantID   string      `json:"tenant_id"`
	Skip       string      `json:"skip_reason,omitempty"`
	Error      string      `json:"error,omitempty"`
	Payment    *PaymentDTO `json:"payment,omitempty"`
}

// BillingRunDTO is a persisted run audit record.
type BillingRunDTO struct {
	ID              string `json:"id"`
	RanAt           string `json:"ran_at"`
	Trigger         string `json:"trigger"`
	StatusesUpdated int    `json:"statuses_updated"`
	Generated       int    `json:"generated"`
	Errors          int    `json:"errors"`
	Error           string `json:"error,omitempty"`
	DurationMS      int64  `json:"duration_ms"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toPaymentDTO(p billing.Payment) PaymentDTO {
	amount, _ := p.AmountDue.Float64()
	dto := PaymentDTO{
		ID:          string(p.ID),
		TenantID:    string(p.TenantID),
		ScheduleID:  string(p.ScheduleID),
		PeriodStart: p.PeriodStart.String(),
		PeriodEnd:   p.PeriodEnd.String(),
		AmountDue:   amount,
		DueDate:     p.DueDate.String(),
		WindowEnd:   p.WindowEnd.String(),
		Status:      string(p.Status),
		Reference:   p.Reference,
		Notes:       p.Notes,
		IsManual:    p.IsManual,
	}
	if !p.PaidDate.IsZero() {
		dto.PaidDate = p.PaidDate.String()
	}
	return dto
}

func toPaymentDTOs(payments []billing.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

func toScheduleDTO(s billing.Schedule) ScheduleDTO {
	amount, _ := s.Amount.Float64()
	return ScheduleDTO{
		ID:         string(s.ID),
		TenantID:   string(s.TenantID),
		Amount:     amount,
		Frequency:  string(s.Frequency),
		DueDay:     s.DueDay,
		WindowDays: s.WindowDays,
		StartDate:  s.StartDate.String(),
		IsActive:   s.IsActive,
	}
}

func toTenantDTO(t billing.Tenant, hasSchedule bool) TenantDTO {
	return TenantDTO{
		ID:          string(t.ID),
		Name:        t.Name,
		Email:       t.Email,
		Phone:       t.Phone,
		MoveInDate:  t.MoveInDate.String(),
		IsActive:    t.IsActive,
		Notes:       t.Notes,
		HasSchedule: hasSchedule,
	}
}

func toBillingRunDTO(r sqlite.BillingRun) BillingRunDTO {
	return BillingRunDTO{
		ID:              r.ID,
		RanAt:           r.RanAt.Format(time.RFC3339),
		Trigger:         r.Trigger,
		StatusesUpdated: r.StatusesUpdated,
		Generated:       r.Generated,
		Errors:          r.Errors,
		Error:           r.Error,
		DurationMS:      r.DurationMS,
	}
}
