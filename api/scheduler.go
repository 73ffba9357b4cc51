/*
scheduler.go - Daily billing scheduler

PURPOSE:
  Runs the billing engine on a timer: refreshes payment statuses against
  today's calendar, then generates the next payment for each schedule
  whose period has arrived.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass is a full engine run (statuses first, then generation)
  - Per-schedule failures never abort the pass
  - Records runs for audit and UI display

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour; date-granular work
    makes extra passes harmless no-ops)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewBillingScheduler(store, engine, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRun endpoint (manual pass)
  - billing/transition.go: Engine.RunDaily
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/rent-engine/billing"
	"github.com/warp/rent-engine/metrics"
	"github.com/warp/rent-engine/store/sqlite"
)

// BillingScheduler drives the engine on a timer.
type BillingScheduler struct {
	Store         *sqlite.Store
	Engine        *billing.Engine
	CheckInterval time.Duration
	Enabled       bool
	Log           *zap.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewBillingScheduler creates a new scheduler.
func NewBillingScheduler(store *sqlite.Store, engine *billing.Engine, log *zap.Logger) *BillingScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BillingScheduler{
		Store:         store,
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Log:           log,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (bs *BillingScheduler) Start() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if !bs.Enabled {
		bs.Log.Info("scheduler disabled, not starting")
		return
	}

	bs.ticker = time.NewTicker(bs.CheckInterval)
	bs.wg.Add(1)

	go bs.run()

	bs.Log.Info("scheduler started", zap.Duration("interval", bs.CheckInterval))
}

// Stop stops the scheduler.
func (bs *BillingScheduler) Stop() {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.ticker != nil {
		bs.ticker.Stop()
		close(bs.stop)
		bs.wg.Wait()
		bs.Log.Info("scheduler stopped")
	}
}

func (bs *BillingScheduler) run() {
	defer bs.wg.Done()

	// Run immediately on start
	bs.runPass("scheduler")

	for {
		select {
		case <-bs.ticker.C:
			bs.runPass("scheduler")
		case <-bs.stop:
			return
		}
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (bs *BillingScheduler) RunNow() {
	bs.runPass("manual")
}

// GetNextRunTime returns when the next scheduled pass will occur.
func (bs *BillingScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(bs.CheckInterval)
}

func (bs *BillingScheduler) runPass(trigger string) {
	ctx := context.Background()
	start := time.Now()

	report, err := bs.Engine.RunDaily(ctx)
	elapsed := time.Since(start)
	metrics.BillingRunDuration.Observe(elapsed.Seconds())

	run := sqlite.BillingRun{
		ID:              uuid.NewString(),
		RanAt:           start.UTC(),
		Trigger:         trigger,
		StatusesUpdated: report.StatusesUpdated,
		Generated:       report.GeneratedCount(),
		Errors:          report.ErrorCount(),
		DurationMS:      elapsed.Milliseconds(),
	}
	if err != nil {
		run.Error = err.Error()
	}

	if saveErr := bs.Store.SaveBillingRun(ctx, run); saveErr != nil {
		bs.Log.Error("failed to record billing run", zap.Error(saveErr))
	}

	if err != nil {
		bs.Log.Warn("billing pass completed with errors",
			zap.String("trigger", trigger),
			zap.Int("statuses_updated", report.StatusesUpdated),
			zap.Int("generated", report.GeneratedCount()),
			zap.Int("errors", report.ErrorCount()),
			zap.Error(err))
		return
	}

	if report.StatusesUpdated > 0 || report.GeneratedCount() > 0 {
		bs.Log.Info("billing pass completed",
			zap.String("trigger", trigger),
			zap.Int("statuses_updated", report.StatusesUpdated),
			zap.Int("generated", report.GeneratedCount()),
			zap.Duration("elapsed", elapsed))
	}
}
