// Package admission bounds how many resource-heavy operations run at once.
package admission

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Harsh-BH/sentinel-judge/internal/metrics"
)

// Controller is a counting semaphore whose waiters are served in arrival order.
// A waiter queued behind others is never overtaken by a later Acquire.
type Controller struct {
	name     string
	size     int64
	sem      *semaphore.Weighted
	inFlight atomic.Int64
	waiting  atomic.Int64
	logger   *zap.Logger
}

// New creates a controller that admits at most size concurrent holders.
func New(name string, size int, logger *zap.Logger) *Controller {
	if size < 1 {
		size = 1
	}
	return &Controller{
		name:   name,
		size:   int64(size),
		sem:    semaphore.NewWeighted(int64(size)),
		logger: logger,
	}
}

// Acquire blocks until a slot is granted. It only fails if ctx ends while still queued.
func (c *Controller) Acquire(ctx context.Context) error {
	c.waiting.Add(1)
	metrics.AdmissionWaiting.WithLabelValues(c.name).Inc()
	err := c.sem.Acquire(ctx, 1)
	c.waiting.Add(-1)
	metrics.AdmissionWaiting.WithLabelValues(c.name).Dec()
	if err != nil {
		return fmt.Errorf("admission %s: acquire: %w", c.name, err)
	}

	c.inFlight.Add(1)
	metrics.AdmissionInFlight.WithLabelValues(c.name).Inc()
	return nil
}

// Release frees a slot, handing it to the longest waiter if any.
func (c *Controller) Release() {
	c.inFlight.Add(-1)
	metrics.AdmissionInFlight.WithLabelValues(c.name).Dec()
	c.sem.Release(1)
}

// Do runs fn while holding a slot. The slot is released on every exit path,
// including a panic inside fn (which keeps propagating).
func (c *Controller) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := c.Acquire(ctx); err != nil {
		return err
	}
	defer c.Release()

	c.logger.Debug("Admission slot granted",
		zap.String("controller", c.name),
		zap.Int64("in_flight", c.inFlight.Load()),
		zap.Int64("waiting", c.waiting.Load()),
	)
	return fn(ctx)
}

// Name returns the controller's label.
func (c *Controller) Name() string { return c.name }

// Size returns the configured concurrency ceiling.
func (c *Controller) Size() int { return int(c.size) }

// InFlight returns the number of currently granted slots.
func (c *Controller) InFlight() int { return int(c.inFlight.Load()) }

// Waiting returns the number of callers queued for a slot.
func (c *Controller) Waiting() int { return int(c.waiting.Load()) }
