/*
Package sqlite provides the SQLite-backed implementation of the billing
storage interfaces.

PURPOSE:
  Implements billing.ScheduleStore, billing.PaymentStore and
  billing.TenantStore using SQLite. The same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  tenants:      Payer records with the active flag the generator gates on
  schedules:    Recurring billing rules
  payments:     The payment ledger; never deleted once paid
  billing_runs: Audit records of engine invocations

IDEMPOTENCY BACKSTOP:
  idx_payments_schedule_period enforces at most one payment per
  (schedule_id, period_start). The generator pre-checks before inserting;
  this index is the backstop that makes concurrent generation for one
  schedule safe. Violations surface as billing.ErrDuplicatePeriod.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers don't
  block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/rent.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := billing.NewEngine(store, store, store, nil, logger)

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/rent-engine/billing"
)

// Store implements all billing storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Tenants (payers)
	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		move_in_date TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	-- Schedules (recurring billing rules)
	CREATE TABLE IF NOT EXISTS schedules (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		due_day INTEGER NOT NULL,
		window_days INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schedules_tenant
		ON schedules(tenant_id);
	-- At most one active schedule per tenant
	CREATE UNIQUE INDEX IF NOT EXISTS idx_schedules_tenant_active
		ON schedules(tenant_id) WHERE is_active;

	-- Payments (the ledger; rows are never deleted once paid)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		schedule_id TEXT,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		amount_due TEXT NOT NULL,
		due_date TEXT NOT NULL,
		window_end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		paid_date TEXT,
		payment_reference TEXT,
		notes TEXT,
		is_manual BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_tenant
		ON payments(tenant_id);
	CREATE INDEX IF NOT EXISTS idx_payments_status
		ON payments(status);
	CREATE INDEX IF NOT EXISTS idx_payments_schedule_period_end
		ON payments(schedule_id, period_end DESC);

	-- CRITICAL: idempotency backstop. At most one payment per
	-- (schedule, period_start); manual charges have no schedule and are exempt.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_schedule_period
		ON payments(schedule_id, period_start)
		WHERE schedule_id IS NOT NULL AND schedule_id != '';

	-- Billing runs (engine invocation audit)
	CREATE TABLE IF NOT EXISTS billing_runs (
		id TEXT PRIMARY KEY,
		ran_at TEXT NOT NULL,
		trigger_kind TEXT NOT NULL,
		statuses_updated INTEGER NOT NULL,
		generated INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		error TEXT,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_billing_runs_ran_at
		ON billing_runs(ran_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TENANT STORE (billing.TenantStore interface)
// =============================================================================

func (s *Store) SaveTenant(ctx context.Context, t billing.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tenants
		(id, name, email, phone, move_in_date, is_active, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Email, t.Phone,
		t.MoveInDate.String(), t.IsActive, t.Notes,
		dateOrNow(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id billing.TenantID) (*billing.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, move_in_date, is_active, notes, created_at
		FROM tenants WHERE id = ?`, id)
	return scanTenant(row)
}

func (s *Store) ListTenants(ctx context.Context) ([]billing.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, move_in_date, is_active, notes, created_at
		FROM tenants ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var out []billing.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*billing.Tenant, error) {
	var t billing.Tenant
	var moveIn, createdAt string
	var email, phone, notes sql.NullString

	err := row.Scan(&t.ID, &t.Name, &email, &phone, &moveIn, &t.IsActive, &notes, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}

	t.Email = email.String
	t.Phone = phone.String
	t.Notes = notes.String
	t.MoveInDate = mustDate(moveIn)
	t.CreatedAt = mustDate(createdAt)
	return &t, nil
}

// =============================================================================
// SCHEDULE STORE (billing.ScheduleStore interface)
// =============================================================================

func (s *Store) SaveSchedule(ctx context.Context, sched billing.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Upsert by id only; a conflict on the tenant-active index must error,
	// not silently replace another tenant row's schedule.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schedules
		(id, tenant_id, amount, frequency, due_day, window_days, start_date, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			frequency = excluded.frequency,
			due_day = excluded.due_day,
			window_days = excluded.window_days,
			start_date = excluded.start_date,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at`,
		sched.ID, sched.TenantID, sched.Amount.String(), sched.Frequency,
		sched.DueDay, sched.WindowDays, sched.StartDate.String(), sched.IsActive,
		dateOrNow(sched.CreatedAt), dateOrNow(sched.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return billing.ErrScheduleExists
		}
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, id billing.ScheduleID) (*billing.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, scheduleSelect+` WHERE id = ?`, id)
	return scanSchedule(row)
}

func (s *Store) GetScheduleByTenant(ctx context.Context, tenantID billing.TenantID) (*billing.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, scheduleSelect+` WHERE tenant_id = ? AND is_active`, tenantID)
	return scanSchedule(row)
}

func (s *Store) ListActiveSchedules(ctx context.Context) ([]billing.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, scheduleSelect+` WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer rows.Close()

	var out []billing.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sched)
	}
	return out, rows.Err()
}

const scheduleSelect = `
	SELECT id, tenant_id, amount, frequency, due_day, window_days, start_date, is_active, created_at, updated_at
	FROM schedules`

func scanSchedule(row rowScanner) (*billing.Schedule, error) {
	var sched billing.Schedule
	var amount, startDate, createdAt, updatedAt string

	err := row.Scan(&sched.ID, &sched.TenantID, &amount, &sched.Frequency,
		&sched.DueDay, &sched.WindowDays, &startDate, &sched.IsActive,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan schedule: %w", err)
	}

	sched.Amount = billing.MustParseDecimal(amount)
	sched.StartDate = mustDate(startDate)
	sched.CreatedAt = mustDate(createdAt)
	sched.UpdatedAt = mustDate(updatedAt)
	return &sched, nil
}

// =============================================================================
// PAYMENT STORE (billing.PaymentStore interface)
// =============================================================================

func (s *Store) InsertPayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments
		(id, tenant_id, schedule_id, period_start, period_end, amount_due,
		 due_date, window_end_date, status, paid_date, payment_reference, notes,
		 is_manual, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.TenantID, nullString(string(p.ScheduleID)),
		p.PeriodStart.String(), p.PeriodEnd.String(), p.AmountDue.String(),
		p.DueDate.String(), p.WindowEnd.String(), p.Status,
		nullDate(p.PaidDate), nullString(p.Reference), nullString(p.Notes),
		p.IsManual, dateOrNow(p.CreatedAt), dateOrNow(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &billing.DuplicatePeriodError{
				ScheduleID:  p.ScheduleID,
				PeriodStart: p.PeriodStart,
			}
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (s *Store) UpdatePayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE payments SET
			amount_due = ?, due_date = ?, window_end_date = ?, status = ?,
			paid_date = ?, payment_reference = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.AmountDue.String(), p.DueDate.String(), p.WindowEnd.String(), p.Status,
		nullDate(p.PaidDate), nullString(p.Reference), nullString(p.Notes),
		dateOrNow(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return billing.ErrPaymentNotFound
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id billing.PaymentID) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, paymentSelect+` WHERE id = ?`, id)
	return scanPayment(row)
}

func (s *Store) LatestForSchedule(ctx context.Context, scheduleID billing.ScheduleID) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		paymentSelect+` WHERE schedule_id = ? ORDER BY period_end DESC LIMIT 1`,
		scheduleID)
	return scanPayment(row)
}

func (s *Store) FindByPeriodStart(ctx context.Context, scheduleID billing.ScheduleID, start billing.Date) (*billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		paymentSelect+` WHERE schedule_id = ? AND period_start = ?`,
		scheduleID, start.String())
	return scanPayment(row)
}

func (s *Store) ListByStatus(ctx context.Context, statuses ...billing.Status) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(statuses))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(statuses))
	for i, st := range statuses {
		args[i] = st
	}

	return s.queryPayments(ctx,
		paymentSelect+` WHERE status IN (`+placeholders+`) ORDER BY due_date DESC, id`,
		args...)
}

func (s *Store) ListByTenant(ctx context.Context, tenantID billing.TenantID) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx,
		paymentSelect+` WHERE tenant_id = ? ORDER BY due_date DESC, id`, tenantID)
}

func (s *Store) ListPayments(ctx context.Context) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPayments(ctx, paymentSelect+` ORDER BY due_date DESC, id`)
}

const paymentSelect = `
	SELECT id, tenant_id, schedule_id, period_start, period_end, amount_due,
	       due_date, window_end_date, status, paid_date, payment_reference,
	       notes, is_manual, created_at, updated_at
	FROM payments`

func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]billing.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var out []billing.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPayment(row rowScanner) (*billing.Payment, error) {
	var p billing.Payment
	var scheduleID, paidDate, reference, notes sql.NullString
	var periodStart, periodEnd, amountDue, dueDate, windowEnd, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.TenantID, &scheduleID, &periodStart, &periodEnd,
		&amountDue, &dueDate, &windowEnd, &p.Status, &paidDate, &reference,
		&notes, &p.IsManual, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}

	p.ScheduleID = billing.ScheduleID(scheduleID.String)
	p.Reference = reference.String
	p.Notes = notes.String
	p.PeriodStart = mustDate(periodStart)
	p.PeriodEnd = mustDate(periodEnd)
	p.AmountDue = billing.MustParseDecimal(amountDue)
	p.DueDate = mustDate(dueDate)
	p.WindowEnd = mustDate(windowEnd)
	if paidDate.Valid {
		p.PaidDate = mustDate(paidDate.String)
	}
	p.CreatedAt = mustDate(createdAt)
	p.UpdatedAt = mustDate(updatedAt)
	return &p, nil
}

// =============================================================================
// BILLING RUNS - Engine invocation audit
// =============================================================================

// BillingRun records one engine invocation for audit and UI display.
type BillingRun struct {
	ID              string
	RanAt           time.Time
	Trigger         string // "scheduler" or "manual"
	StatusesUpdated int
	Generated       int
	Errors          int
	Error           string
	DurationMS      int64
}

func (s *Store) SaveBillingRun(ctx context.Context, run BillingRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO billing_runs
		(id, ran_at, trigger_kind, statuses_updated, generated, errors, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RanAt.UTC().Format(time.RFC3339), run.Trigger,
		run.StatusesUpdated, run.Generated, run.Errors,
		nullString(run.Error), run.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("failed to save billing run: %w", err)
	}
	return nil
}

func (s *Store) ListBillingRuns(ctx context.Context, limit int) ([]BillingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ran_at, trigger_kind, statuses_updated, generated, errors, error, duration_ms
		FROM billing_runs ORDER BY ran_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing runs: %w", err)
	}
	defer rows.Close()

	var out []BillingRun
	for rows.Next() {
		var run BillingRun
		var ranAt string
		var errMsg sql.NullString
		if err := rows.Scan(&run.ID, &ranAt, &run.Trigger, &run.StatusesUpdated,
			&run.Generated, &run.Errors, &errMsg, &run.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan billing run: %w", err)
		}
		run.RanAt, _ = time.Parse(time.RFC3339, ranAt)
		run.Error = errMsg.String
		out = append(out, run)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d billing.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func dateOrNow(d billing.Date) string {
	if d.IsZero() {
		return billing.DateOf(time.Now().UTC()).String()
	}
	return d.String()
}

func mustDate(s string) billing.Date {
	d, _ := billing.ParseDate(s)
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
