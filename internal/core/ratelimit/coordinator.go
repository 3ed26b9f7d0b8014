// Package ratelimit implements the rate-limit coordinator (C2): a single
// mutex-guarded budget tracker shared by every concurrent producer so that
// no GraphQL request is sent when the remaining window can't cover its
// likely cost. Grounded on original_source/github_crawl/rate_limiter.py.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// DefaultMinimumSleep is the floor applied to coordinator sleeps.
const DefaultMinimumSleep = 50 * time.Millisecond

// Snapshot is a point-in-time reading of the provider's rate-limit trio.
type Snapshot struct {
	Cost      int
	Remaining int
	ResetAt   time.Time
}

// Coordinator serializes rate-limit accounting across all concurrent
// callers. The zero value is not usable; construct with New.
type Coordinator struct {
	mu            sync.Mutex
	snapshot      *Snapshot
	estimatedCost float64
	minimumSleep  time.Duration

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New constructs a Coordinator. minimumSleep <= 0 uses DefaultMinimumSleep.
func New(minimumSleep time.Duration) *Coordinator {
	if minimumSleep <= 0 {
		minimumSleep = DefaultMinimumSleep
	}
	return &Coordinator{
		estimatedCost: 1.0,
		minimumSleep:  minimumSleep,
		now:           time.Now,
		sleep:         sleepCtx,
	}
}

// Acquire blocks until remaining >= ceil(estimated_cost), decrements
// remaining by that amount, and returns. With no known snapshot it returns
// immediately (optimistic first request)
func (c *Coordinator) Acquire(ctx context.Context) error {
	for {
		c.mu.Lock()
		snap := c.snapshot
		if snap == nil {
			c.mu.Unlock()
			return nil
		}
		cost := estimatedCostCeil(c.estimatedCost)
		if snap.Remaining >= cost {
			snap.Remaining -= cost
			c.mu.Unlock()
			return nil
		}
		resetAt := snap.ResetAt
		c.mu.Unlock()

		delay := resetAt.Sub(c.now())
		if delay < c.minimumSleep {
			delay = c.minimumSleep
		}
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}

		// If nobody replaced the snapshot while we slept, clear it so the
		// next caller probes optimistically instead of re-reading stale data.
		c.mu.Lock()
		if c.snapshot == snap {
			c.snapshot = nil
		}
		c.mu.Unlock()
	}
}

// Record installs a fresh snapshot and updates the EMA-estimated cost when
// snapshot.Cost > 0
func (c *Coordinator) Record(snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := snap
	c.snapshot = &cp
	if snap.Cost > 0 {
		c.estimatedCost = math.Max(1.0, 0.5*c.estimatedCost+0.5*float64(snap.Cost))
	}
}

// Reset discards the current snapshot, called after a transport failure so
// stale accounting does not stall callers.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = nil
}

// Remaining reports the last known remaining budget, if any.
func (c *Coordinator) Remaining() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		return 0, false
	}
	return c.snapshot.Remaining, true
}

func estimatedCostCeil(cost float64) int {
	c := int(math.Ceil(cost))
	if c < 1 {
		return 1
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
