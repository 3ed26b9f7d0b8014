package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Grounded on original_source/tests/test_rate_limiter.py::test_rate_limiter_acquire_consumes_estimated_budget (S6).
func TestAcquire_ConsumesEstimatedBudget(t *testing.T) {
	c := New(0)
	c.Record(Snapshot{Cost: 30, Remaining: 40, ResetAt: time.Now()})

	require.NoError(t, c.Acquire(context.Background()))

	remaining, ok := c.Remaining()
	require.True(t, ok)
	require.Equal(t, 24, remaining) // estimated_cost = max(1, 0.5*1+0.5*30) = 15.5, ceil = 16, 40-16=24
}

// Grounded on original_source/tests/test_rate_limiter.py::test_rate_limiter_waits_when_budget_exhausted (S7).
func TestAcquire_WaitsWhenBudgetExhausted(t *testing.T) {
	c := New(0)
	slept := false
	c.sleep = func(ctx context.Context, d time.Duration) error {
		slept = true
		return nil
	}
	c.Record(Snapshot{Cost: 1, Remaining: 0, ResetAt: time.Now().Add(5 * time.Second)})

	require.NoError(t, c.Acquire(context.Background()))
	require.True(t, slept)

	_, ok := c.Remaining()
	require.False(t, ok)
}

func TestReset_ClearsState(t *testing.T) {
	c := New(0)
	c.Record(Snapshot{Cost: 5, Remaining: 10, ResetAt: time.Now()})
	c.Reset()

	_, ok := c.Remaining()
	require.False(t, ok)
}

func TestAcquire_OptimisticWithNoSnapshot(t *testing.T) {
	c := New(0)
	require.NoError(t, c.Acquire(context.Background()))
}

func TestRecord_IgnoresNonPositiveCost(t *testing.T) {
	c := New(0)
	c.Record(Snapshot{Cost: 30, Remaining: 40, ResetAt: time.Now()})
	c.Record(Snapshot{Cost: 0, Remaining: 100, ResetAt: time.Now()})

	// estimated_cost unchanged at 15.5 from the first record; ceil = 16.
	require.NoError(t, c.Acquire(context.Background()))
	remaining, ok := c.Remaining()
	require.True(t, ok)
	require.Equal(t, 84, remaining)
}
