// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package cleaner sweeps channels for bindings whose owners are gone. One worker goroutine serves both the
// periodic sweep of every tracked channel and channels queued for prompt cleanup.
package cleaner

import (
	"context"
	"sync"
	"time"

	"k8s.io/client-go/util/workqueue"
	"k8s.io/utils/clock"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/metrics"
	"github.com/netapp/guts/pkg/eventbus/types"
)

const (
	DefaultInterval = 300 * time.Second
	defaultName     = "guts-cleaner"
)

// sweepTick is the queue item standing for a periodic sweep.
type sweepTick struct {
	_ byte
}

func (*sweepTick) Cleanup(context.Context) {}

type Cleaner struct {
	name     string
	interval time.Duration
	clock    clock.WithTicker
	metrics  *metrics.Metrics

	mu      sync.Mutex
	tracked map[types.Cleanable]struct{}
	queue   workqueue.TypedDelayingInterface[types.Cleanable]
	tick    *sweepTick
	done    chan struct{}
}

var _ types.CleanupScheduler = (*Cleaner)(nil)

type Option func(*Cleaner)

// WithInterval sets the period of full sweeps. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(c *Cleaner) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithClock(clk clock.WithTicker) Option {
	return func(c *Cleaner) {
		c.clock = clk
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cleaner) {
		c.metrics = m
	}
}

func WithName(name string) Option {
	return func(c *Cleaner) {
		c.name = name
	}
}

// New returns a stopped cleaner.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		name:     defaultName,
		interval: DefaultInterval,
		clock:    clock.RealClock{},
		tracked:  make(map[types.Cleanable]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cleaner) Interval() time.Duration { return c.interval }

// Track adds target to the periodic sweep.
func (c *Cleaner) Track(target types.Cleanable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracked[target] = struct{}{}
}

// Tracked returns the number of tracked cleanables.
func (c *Cleaner) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tracked)
}

// Running reports whether the worker is started.
func (c *Cleaner) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue != nil
}

// Start launches the worker and schedules the first sweep one interval from now. Starting a running cleaner
// is a no-op, and a stopped cleaner can be started again.
func (c *Cleaner) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue != nil {
		return
	}

	queue := workqueue.NewTypedDelayingQueueWithConfig(workqueue.TypedDelayingQueueConfig[types.Cleanable]{
		Name:  c.name,
		Clock: c.clock,
	})
	tick := &sweepTick{}
	done := make(chan struct{})
	c.queue, c.tick, c.done = queue, tick, done

	queue.AddAfter(tick, c.interval)
	go c.work(queue, tick, done)

	Logc(ctx).WithFields(LogFields{
		"name":     c.name,
		"interval": c.interval,
	}).Debug("Started event cleaner.")
}

// Stop shuts the worker down. Already queued cleanables are processed before the worker exits. Stop waits
// for that up to the context deadline.
func (c *Cleaner) Stop(ctx context.Context) error {
	c.mu.Lock()
	queue, done := c.queue, c.done
	c.queue, c.tick, c.done = nil, nil, nil
	c.mu.Unlock()

	if queue == nil {
		return nil
	}
	queue.ShutDown()

	select {
	case <-done:
		Logc(ctx).WithField("name", c.name).Debug("Stopped event cleaner.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue schedules target for prompt cleanup. Repeated requests before the worker gets to target coalesce.
// Requests made while the cleaner is stopped are dropped; the periodic sweep picks the target up once started.
func (c *Cleaner) Enqueue(target types.Cleanable) {
	c.mu.Lock()
	queue := c.queue
	c.mu.Unlock()

	if queue == nil {
		return
	}
	queue.Add(target)
}

// Sweep cleans every tracked cleanable in the calling goroutine.
func (c *Cleaner) Sweep(ctx context.Context) {
	c.mu.Lock()
	targets := make([]types.Cleanable, 0, len(c.tracked))
	for target := range c.tracked {
		targets = append(targets, target)
	}
	c.mu.Unlock()

	for _, target := range targets {
		c.clean(ctx, target)
	}
	c.metrics.SweepCompleted(metrics.TriggerPeriodic)
}

func (c *Cleaner) work(queue workqueue.TypedDelayingInterface[types.Cleanable], tick *sweepTick, done chan struct{}) {
	defer close(done)
	for {
		item, shutdown := queue.Get()
		if shutdown {
			return
		}

		ctx := GenerateRequestContext(context.Background(), "", ContextSourcePeriodic, WorkflowEventCleanup,
			LogLayerCleaner)
		if item == types.Cleanable(tick) {
			c.Sweep(ctx)
			queue.AddAfter(tick, c.interval)
		} else {
			c.clean(ctx, item)
			c.metrics.SweepCompleted(metrics.TriggerQueued)
		}
		queue.Done(item)
	}
}

// clean runs one cleanup, containing its panics so the worker survives.
func (c *Cleaner) clean(ctx context.Context, target types.Cleanable) {
	defer func() {
		if r := recover(); r != nil {
			Logc(ctx).WithFields(LogFields{
				"name":  c.name,
				"panic": r,
			}).Error("Cleanup panicked.")
		}
	}()
	target.Cleanup(ctx)
}
