// Package resource bounds the resources consumed by batch operations:
// compression runs, entanglement analyses and artifact-store uploads.
// Timeouts live at the batch level too (via context deadlines); the pure
// per-entity functions never carry deadlines of their own.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds batch resource limits.
type Config struct {
	// MaxWorkers is the maximum number of concurrent per-entity tasks in a
	// batch. If 0, defaults to 1.
	MaxWorkers int64

	// ArtifactBytesPerSec caps artifact-store write throughput.
	// If 0, unlimited.
	ArtifactBytesPerSec int64
}

// Controller manages batch concurrency and artifact IO throughput.
type Controller struct {
	cfg Config

	workerSem *semaphore.Weighted
	inFlight  atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a controller from cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.ArtifactBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.ArtifactBytesPerSec), int(cfg.ArtifactBytesPerSec))
	}

	return c
}

// MaxWorkers returns the configured worker bound.
func (c *Controller) MaxWorkers() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker reserves a batch worker slot, blocking until one is free or
// ctx is canceled.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.workerSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.inFlight.Add(1)
	return nil
}

// TryAcquireWorker reserves a worker slot without blocking.
func (c *Controller) TryAcquireWorker() bool {
	if c == nil {
		return true
	}
	if !c.workerSem.TryAcquire(1) {
		return false
	}
	c.inFlight.Add(1)
	return true
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workerSem.Release(1)
	c.inFlight.Add(-1)
}

// InFlight returns the number of currently reserved worker slots.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// AcquireIO waits until the artifact throughput limit allows bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
