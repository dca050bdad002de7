// Package resource bounds concurrent training runs and the memory their
// kernel caches hold.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrExceedsLimit is returned when a single reservation is larger than the
// whole memory budget.
var ErrExceedsLimit = errors.New("reservation exceeds memory limit")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for cache memory across runs.
	// If 0, usage is only tracked.
	MemoryLimitBytes int64

	// MaxConcurrentRuns is the number of trainings allowed at once.
	// If 0, defaults to 1.
	MaxConcurrentRuns int64
}

// Controller hands out run slots and memory reservations.
// A nil *Controller imposes no limits.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	runSem  *semaphore.Weighted
	running atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentRuns <= 0 {
		cfg.MaxConcurrentRuns = 1
	}

	c := &Controller{
		cfg:    cfg,
		runSem: semaphore.NewWeighted(cfg.MaxConcurrentRuns),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	return c
}

// AcquireMemory reserves bytes, blocking while the limit would be exceeded.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return fmt.Errorf("%w: %d > %d bytes", ErrExceedsLimit, bytes, c.cfg.MemoryLimitBytes)
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}
	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory reserves bytes without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the reserved bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// Running returns the number of held run slots.
func (c *Controller) Running() int64 {
	if c == nil {
		return 0
	}
	return c.running.Load()
}

// AcquireRun takes a run slot and reserves bytes for its caches. The
// returned release func gives both back and is safe to call once.
func (c *Controller) AcquireRun(ctx context.Context, bytes int64) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	if err := c.runSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := c.AcquireMemory(ctx, bytes); err != nil {
		c.runSem.Release(1)
		return nil, err
	}
	c.running.Add(1)

	var released atomic.Bool
	return func() {
		if released.Swap(true) {
			return
		}
		c.running.Add(-1)
		c.ReleaseMemory(bytes)
		c.runSem.Release(1)
	}, nil
}
