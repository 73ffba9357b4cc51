package billing

import "go.uber.org/zap"

// =============================================================================
// ENGINE - Orchestrates generation, status updates and payment actions
// =============================================================================

// Engine wires the billing logic to its collaborators. It is designed for
// single-threaded, sequential batch invocation from a scheduler or CLI; the
// store's uniqueness constraint covers the race if callers parallelize
// generation for the same schedule anyway.
type Engine struct {
	Schedules ScheduleStore
	Payments  PaymentStore
	Tenants   TenantStore
	Clock     Clock
	Log       *zap.Logger
}

// NewEngine creates an engine. Clock defaults to the system calendar and the
// logger to a no-op when nil.
func NewEngine(schedules ScheduleStore, payments PaymentStore, tenants TenantStore, clock Clock, log *zap.Logger) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Schedules: schedules,
		Payments:  payments,
		Tenants:   tenants,
		Clock:     clock,
		Log:       log,
	}
}
