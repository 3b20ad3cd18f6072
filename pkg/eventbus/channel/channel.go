// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package channel holds the live bindings of one (event type, topic) channel and dispatches events to them.
package channel

import (
	"context"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/metrics"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/pkg/generic_syncpool"
	"github.com/netapp/guts/utils/errors"
)

const (
	defaultBatchCapacity = 16
	tracerName           = "github.com/netapp/guts/pkg/eventbus/channel"
)

// group is the ordered bindings dispatched on one executor.
type group struct {
	executor types.Executor
	bindings []*Binding
}

// batch is the per-publish snapshot of one group. It is owned by the dispatch task once submitted.
type batch struct {
	executor types.Executor
	bindings []*Binding
}

var batches = generic_syncpool.NewPool(
	func() *batch { return &batch{bindings: make([]*Binding, 0, defaultBatchCapacity)} },
	func(b *batch) {
		clear(b.bindings)
		b.bindings = b.bindings[:0]
		b.executor = nil
	},
)

// Channel is the unit of publish/subscribe for one ChannelKey.
type Channel struct {
	key   types.ChannelKey
	label string

	mu     sync.RWMutex
	groups []*group

	needsCleanup atomic.Bool

	scheduler  types.CleanupScheduler
	exceptions types.ExceptionHandler
	returns    map[reflect.Type]types.ReturnHandler
	metrics    *metrics.Metrics
}

var _ types.Cleanable = (*Channel)(nil)

// Option configures a Channel.
type Option func(*Channel)

// WithCleanupScheduler receives the channel when a publish observes a dead owner.
func WithCleanupScheduler(s types.CleanupScheduler) Option {
	return func(c *Channel) {
		c.scheduler = s
	}
}

func WithExceptionHandler(h types.ExceptionHandler) Option {
	return func(c *Channel) {
		c.exceptions = h
	}
}

// WithReturnHandlers routes consumer results by their declared result type.
func WithReturnHandlers(handlers map[reflect.Type]types.ReturnHandler) Option {
	return func(c *Channel) {
		c.returns = handlers
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Channel) {
		c.metrics = m
	}
}

// New creates an empty channel for key.
func New(key types.ChannelKey, opts ...Option) *Channel {
	c := &Channel{key: key, label: key.String()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) Key() types.ChannelKey { return c.key }

// AddSubscriber inserts b into the group of its executor, keeping (priority, sequence) order.
func (c *Channel) AddSubscriber(b *Binding) {
	c.mu.Lock()
	g := c.groupFor(b.executor)
	idx, _ := slices.BinarySearchFunc(g.bindings, b, compareBindings)
	g.bindings = slices.Insert(g.bindings, idx, b)
	count := c.countLocked()
	c.mu.Unlock()

	c.metrics.BindingsChanged(c.label, count)
}

// groupFor returns the group of executor, creating it if needed. Caller must hold the write lock.
func (c *Channel) groupFor(executor types.Executor) *group {
	for _, g := range c.groups {
		if g.executor == executor {
			return g
		}
	}
	g := &group{executor: executor}
	c.groups = append(c.groups, g)
	return g
}

// Publish dispatches event to every live binding whose filter accepts it. Each executor group gets one task
// running its consumers in order. Publish returns once every task is submitted; tasks on the current-goroutine
// executor have run by then.
func (c *Channel) Publish(ctx context.Context, event any) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Channel.Publish",
		trace.WithAttributes(attribute.String("event.channel", c.label)))
	defer span.End()

	c.metrics.EventPublished(c.label)

	snapshot, dead := c.snapshot()

	admitted := snapshot[:0]
	for _, bt := range snapshot {
		if c.admit(ctx, bt, event) {
			dead = true
		}
		if len(bt.bindings) == 0 {
			batches.Put(bt)
			continue
		}
		admitted = append(admitted, bt)
	}

	if dead {
		c.needsCleanup.Store(true)
		if c.scheduler != nil {
			c.scheduler.Enqueue(c)
		}
	}

	span.SetAttributes(attribute.Int("event.groups", len(admitted)), attribute.Bool("event.dead_owner", dead))
	for _, bt := range admitted {
		c.submit(ctx, bt, event)
	}
}

// snapshot copies the live bindings of every group under the read lock.
func (c *Channel) snapshot() (snapshot []*batch, dead bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot = make([]*batch, 0, len(c.groups))
	for _, g := range c.groups {
		bt := batches.Get()
		bt.executor = g.executor
		for _, b := range g.bindings {
			if b.Owner() == nil {
				dead = true
				continue
			}
			bt.bindings = append(bt.bindings, b)
		}
		if len(bt.bindings) == 0 {
			batches.Put(bt)
			continue
		}
		snapshot = append(snapshot, bt)
	}
	return snapshot, dead
}

// admit drops from bt the bindings that do not take event: those whose argument type does not fit the event,
// and those whose filter rejects or fails on it. It runs in the publishing goroutine, outside the lock.
func (c *Channel) admit(ctx context.Context, bt *batch, event any) (dead bool) {
	kept := bt.bindings[:0]
	for _, b := range bt.bindings {
		if !b.consumer.Accepts(event) {
			continue
		}
		if b.filter != nil {
			if !b.filter.Accepts(event) {
				continue
			}
			owner := b.Owner()
			if owner == nil {
				dead = true
				continue
			}
			accepted, err := b.filter.CallFilter(owner, event)
			if err != nil {
				c.reportFailure(ctx, b.filter.Name(), owner, event, err)
				continue
			}
			if !accepted {
				continue
			}
		}
		kept = append(kept, b)
	}
	clear(bt.bindings[len(kept):])
	bt.bindings = kept
	return dead
}

func (c *Channel) submit(ctx context.Context, bt *batch, event any) {
	task := func() {
		defer batches.Put(bt)
		for _, b := range bt.bindings {
			c.invoke(ctx, b, event)
		}
	}

	err := bt.executor.Execute(task)
	if err == nil {
		return
	}

	// The task did not run, so the batch is still ours.
	policy := bt.bindings[0].policy
	rejected := errors.ExecutorRejectedError(err, "executor for policy %q rejected dispatch on %s", policy, c.label)
	Logc(ctx).WithFields(LogFields{
		"channel":   c.label,
		"policy":    policy,
		"consumers": len(bt.bindings),
	}).WithError(err).Error("Executor rejected event dispatch.")

	for _, b := range bt.bindings {
		if owner := b.Owner(); owner != nil {
			c.reportFailure(ctx, b.consumer.Name(), owner, event, rejected)
		}
	}
	batches.Put(bt)
}

// invoke calls one consumer. Its owner is resolved again since it may have died since the snapshot.
func (c *Channel) invoke(ctx context.Context, b *Binding, event any) {
	owner := b.Owner()
	if owner == nil {
		c.needsCleanup.Store(true)
		return
	}

	result, err := b.consumer.Call(owner, event)
	if err != nil {
		c.reportFailure(ctx, b.consumer.Name(), owner, event, err)
		return
	}
	c.metrics.EventDelivered(c.label)

	if !result.IsValid() {
		return
	}
	handler, ok := c.returns[b.consumer.Result()]
	if !ok {
		return
	}
	if err = handler.HandleReturn(ctx, result.Interface()); err != nil {
		c.reportFailure(ctx, b.consumer.Name(), owner, event, err)
	}
}

func (c *Channel) reportFailure(ctx context.Context, method string, owner, event any, err error) {
	c.metrics.ConsumerFailed(c.label)
	if c.exceptions == nil {
		Logc(ctx).WithFields(LogFields{
			"channel": c.label,
			"method":  method,
		}).WithError(err).Error("Event consumer failed.")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			Logc(ctx).WithFields(LogFields{
				"channel": c.label,
				"method":  method,
				"panic":   r,
			}).Error("Exception handler panicked.")
		}
	}()
	c.exceptions.HandleException(ctx, types.Failure{
		Err:    err,
		Method: method,
		Owner:  owner,
		Event:  event,
		Key:    c.key,
	})
}

// NeedsCleanup reports whether a publish saw a dead owner or any binding is currently dead.
func (c *Channel) NeedsCleanup() bool {
	if c.needsCleanup.Load() {
		return true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.groups {
		for _, b := range g.bindings {
			if b.Owner() == nil {
				return true
			}
		}
	}
	return false
}

// MarkForCleanup flags the channel for the next cleanup, for example after explicit unregistration.
func (c *Channel) MarkForCleanup() {
	c.needsCleanup.Store(true)
}

// Cleanup removes dead bindings and empty groups. Calling it with nothing to remove is a no-op.
func (c *Channel) Cleanup(ctx context.Context) {
	if !c.NeedsCleanup() {
		return
	}

	c.mu.Lock()
	c.needsCleanup.Store(false)
	removed := 0
	groups := c.groups[:0]
	for _, g := range c.groups {
		live := g.bindings[:0]
		for _, b := range g.bindings {
			if b.Owner() == nil {
				removed++
				continue
			}
			live = append(live, b)
		}
		clear(g.bindings[len(live):])
		g.bindings = live
		if len(live) > 0 {
			groups = append(groups, g)
		}
	}
	clear(c.groups[len(groups):])
	c.groups = groups
	count := c.countLocked()
	c.mu.Unlock()

	c.metrics.BindingsRemoved(c.label, removed)
	c.metrics.BindingsChanged(c.label, count)

	if removed > 0 {
		Logc(ctx).WithFields(LogFields{
			"channel":   c.label,
			"removed":   removed,
			"remaining": count,
		}).Debug("Removed dead event bindings.")
	}
}

// Len returns the number of bindings held, including dead ones not yet cleaned up.
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.countLocked()
}

func (c *Channel) countLocked() int {
	n := 0
	for _, g := range c.groups {
		n += len(g.bindings)
	}
	return n
}

// BindingInfo describes a binding for introspection.
type BindingInfo struct {
	Method   string
	Priority int
	Sequence uint64
	Policy   types.ThreadPolicy
	Filtered bool
	Alive    bool
}

// Snapshot lists the bindings group by group, each group in dispatch order.
func (c *Channel) Snapshot() []BindingInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]BindingInfo, 0, c.countLocked())
	for _, g := range c.groups {
		for _, b := range g.bindings {
			infos = append(infos, BindingInfo{
				Method:   b.consumer.Name(),
				Priority: b.priority,
				Sequence: b.sequence,
				Policy:   b.policy,
				Filtered: b.filter != nil,
				Alive:    b.Owner() != nil,
			})
		}
	}
	return infos
}
