// Package store provides in-memory implementations of the billing
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/rent-engine/billing"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

// Memory implements ScheduleStore, PaymentStore and TenantStore in memory.
// It enforces the same (schedule, period start) uniqueness constraint as the
// production store.
type Memory struct {
	mu        sync.RWMutex
	schedules map[billing.ScheduleID]billing.Schedule
	payments  map[billing.PaymentID]billing.Payment
	tenants   map[billing.TenantID]billing.Tenant
	periods   map[periodKey]billing.PaymentID
}

type periodKey struct {
	ScheduleID  billing.ScheduleID
	PeriodStart string
}

func NewMemory() *Memory {
	return &Memory{
		schedules: make(map[billing.ScheduleID]billing.Schedule),
		payments:  make(map[billing.PaymentID]billing.Payment),
		tenants:   make(map[billing.TenantID]billing.Tenant),
		periods:   make(map[periodKey]billing.PaymentID),
	}
}

// ---------------------------------------------------------------------------
// ScheduleStore

func (m *Memory) SaveSchedule(_ context.Context, s billing.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[s.ID] = s
	return nil
}

func (m *Memory) GetSchedule(_ context.Context, id billing.ScheduleID) (*billing.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.schedules[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *Memory) GetScheduleByTenant(_ context.Context, tenantID billing.TenantID) (*billing.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.schedules {
		if s.TenantID == tenantID && s.IsActive {
			s := s
			return &s, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListActiveSchedules(_ context.Context) ([]billing.Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Schedule
	for _, s := range m.schedules {
		if s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------------------------------------------------------------------------
// PaymentStore

func (m *Memory) InsertPayment(_ context.Context, p billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ScheduleID != "" {
		k := periodKey{ScheduleID: p.ScheduleID, PeriodStart: p.PeriodStart.String()}
		if existing, ok := m.periods[k]; ok {
			return &billing.DuplicatePeriodError{
				ScheduleID:  p.ScheduleID,
				PeriodStart: p.PeriodStart,
				ExistingID:  existing,
			}
		}
		m.periods[k] = p.ID
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) UpdatePayment(_ context.Context, p billing.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; !ok {
		return billing.ErrPaymentNotFound
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id billing.PaymentID) (*billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) LatestForSchedule(_ context.Context, scheduleID billing.ScheduleID) (*billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *billing.Payment
	for _, p := range m.payments {
		if p.ScheduleID != scheduleID {
			continue
		}
		p := p
		if latest == nil || p.PeriodEnd.After(latest.PeriodEnd) {
			latest = &p
		}
	}
	return latest, nil
}

func (m *Memory) FindByPeriodStart(_ context.Context, scheduleID billing.ScheduleID, start billing.Date) (*billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := periodKey{ScheduleID: scheduleID, PeriodStart: start.String()}
	if id, ok := m.periods[k]; ok {
		p := m.payments[id]
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) ListByStatus(_ context.Context, statuses ...billing.Status) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := make(map[billing.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []billing.Payment
	for _, p := range m.payments {
		if want[p.Status] {
			out = append(out, p)
		}
	}
	sortByDueDateDesc(out)
	return out, nil
}

func (m *Memory) ListByTenant(_ context.Context, tenantID billing.TenantID) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []billing.Payment
	for _, p := range m.payments {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sortByDueDateDesc(out)
	return out, nil
}

func (m *Memory) ListPayments(_ context.Context) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Payment, 0, len(m.payments))
	for _, p := range m.payments {
		out = append(out, p)
	}
	sortByDueDateDesc(out)
	return out, nil
}

func sortByDueDateDesc(payments []billing.Payment) {
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].DueDate.Equal(payments[j].DueDate) {
			return payments[i].DueDate.After(payments[j].DueDate)
		}
		return payments[i].ID < payments[j].ID
	})
}

// ---------------------------------------------------------------------------
// TenantStore

func (m *Memory) SaveTenant(_ context.Context, t billing.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
	return nil
}

func (m *Memory) GetTenant(_ context.Context, id billing.TenantID) (*billing.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tenants[id]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *Memory) ListTenants(_ context.Context) ([]billing.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]billing.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
