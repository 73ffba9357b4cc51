package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunNowRecordsAuditRun(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")
	seedOpenPayment(t, env)

	scheduler := NewBillingScheduler(env.store, env.engine, nil)
	scheduler.RunNow()

	runs, err := env.store.ListBillingRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "manual", runs[0].Trigger)
	assert.Empty(t, runs[0].Error)
}

func TestScheduler_StartStop(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")

	scheduler := NewBillingScheduler(env.store, env.engine, nil)
	scheduler.CheckInterval = time.Hour
	scheduler.Start()
	scheduler.Stop()

	// The immediate pass on start leaves one audit record.
	runs, err := env.store.ListBillingRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestScheduler_DisabledDoesNotRun(t *testing.T) {
	env := newTestEnv(t, "2024-01-01")

	scheduler := NewBillingScheduler(env.store, env.engine, nil)
	scheduler.Enabled = false
	scheduler.Start()
	scheduler.Stop()

	runs, err := env.store.ListBillingRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
