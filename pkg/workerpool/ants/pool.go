// Copyright 2025 NetApp, Inc. All Rights Reserved.

package ants

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/workerpool/types"
	"github.com/netapp/guts/utils/errors"
)

// antsPool is the subset of *ants.Pool and *ants.MultiPool used by the lifecycle wrapper.
type antsPool interface {
	Submit(task func()) error
	ReleaseTimeout(timeout time.Duration) error
	Cap() int
	Running() int
	Waiting() int
	Free() int
}

// lifecycle tracks start and shutdown state shared by Pool and MultiPool.
type lifecycle struct {
	name            string
	shutdownTimeout time.Duration
	impl            antsPool

	mu      sync.Mutex
	started atomic.Bool
	closed  atomic.Bool
}

func (l *lifecycle) Start(_ context.Context) error {
	if l.closed.Load() {
		return ants.ErrPoolClosed
	}
	l.started.Store(true)
	return nil
}

func (l *lifecycle) Submit(_ context.Context, task func()) error {
	if task == nil {
		return errors.InvalidInputError("nil task submitted to pool %s", l.name)
	}
	if l.closed.Load() {
		return ants.ErrPoolClosed
	}
	if !l.started.Load() {
		return errors.NotReadyError("pool %s is not started", l.name)
	}
	return l.impl.Submit(task)
}

// Shutdown releases the workers, waiting for running tasks until the context deadline or the configured
// shutdown timeout. Shutting down twice is a no-op.
func (l *lifecycle) Shutdown(ctx context.Context) error {
	timeout := l.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	return l.ShutdownWithTimeout(timeout)
}

func (l *lifecycle) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return errors.InvalidInputError("shutdown timeout must be positive, got %v", timeout)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed.Load() {
		return nil
	}
	l.closed.Store(true)

	ctx := GenerateRequestContext(nil, "", ContextSourceInternal, WorkflowPoolShutdown, LogLayerWorkerPool)
	Logc(ctx).WithField("pool", l.name).Debug("Shutting down worker pool.")

	return l.impl.ReleaseTimeout(timeout)
}

func (l *lifecycle) IsStarted() bool { return l.started.Load() }

func (l *lifecycle) IsClosed() bool { return l.closed.Load() }

func (l *lifecycle) Cap() int { return l.impl.Cap() }

func (l *lifecycle) Running() int { return l.impl.Running() }

func (l *lifecycle) Waiting() int { return l.impl.Waiting() }

func (l *lifecycle) Free() int { return l.impl.Free() }

func (l *lifecycle) Stats() types.Stats {
	return types.Stats{
		Capacity: l.impl.Cap(),
		Running:  l.impl.Running(),
		Waiting:  l.impl.Waiting(),
		Free:     l.impl.Free(),
	}
}

// ============================================================================
// Pool
// ============================================================================

// Pool is a single ants pool.
type Pool struct {
	lifecycle
	pool *ants.Pool
}

var _ types.Pool = (*Pool)(nil)

// NewPool creates a pool in the not-started state.
func NewPool(ctx context.Context, cfg *Config) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.Copy().(*Config)
	}
	if cfg.NumWorkers <= 0 {
		return nil, errors.InvalidInputError("pool %s needs at least one worker, got %d", cfg.Name, cfg.NumWorkers)
	}

	pool, err := ants.NewPool(cfg.NumWorkers, cfg.options()...)
	if err != nil {
		return nil, err
	}

	Logc(ctx).WithFields(LogFields{
		"pool":        cfg.Name,
		"workers":     cfg.NumWorkers,
		"nonBlocking": cfg.NonBlocking,
	}).Debug("Created worker pool.")

	p := &Pool{pool: pool}
	p.lifecycle = lifecycle{name: cfg.Name, shutdownTimeout: cfg.ShutdownTimeout, impl: pool}
	return p, nil
}

// ============================================================================
// MultiPool
// ============================================================================

// MultiPool spreads tasks across several ants pools.
type MultiPool struct {
	lifecycle
	multiPool *ants.MultiPool
	numPools  int
}

var _ types.Pool = (*MultiPool)(nil)

// NewMultiPool creates a multipool in the not-started state.
func NewMultiPool(ctx context.Context, cfg *MultiPoolConfig) (*MultiPool, error) {
	if cfg == nil {
		cfg = DefaultMultiPoolConfig()
	} else {
		cfg = cfg.Copy().(*MultiPoolConfig)
	}
	if cfg.NumPools <= 0 {
		return nil, errors.InvalidInputError("multipool %s needs at least one pool, got %d", cfg.Name, cfg.NumPools)
	}
	if cfg.NumWorkers <= 0 {
		return nil, errors.InvalidInputError("multipool %s needs at least one worker per pool, got %d",
			cfg.Name, cfg.NumWorkers)
	}

	mp, err := ants.NewMultiPool(cfg.NumPools, cfg.NumWorkers, cfg.LoadBalancingStrategy, cfg.options()...)
	if err != nil {
		return nil, err
	}

	Logc(ctx).WithFields(LogFields{
		"pool":           cfg.Name,
		"pools":          cfg.NumPools,
		"workersPerPool": cfg.NumWorkers,
	}).Debug("Created worker multipool.")

	p := &MultiPool{multiPool: mp, numPools: cfg.NumPools}
	p.lifecycle = lifecycle{name: cfg.Name, shutdownTimeout: cfg.ShutdownTimeout, impl: mp}
	return p, nil
}

// NumPools returns the number of underlying pools.
func (m *MultiPool) NumPools() int { return m.numPools }

// RunningByIndex returns the number of running workers in the pool at idx.
func (m *MultiPool) RunningByIndex(idx int) (int, error) {
	return m.multiPool.RunningByIndex(idx)
}

// FreeByIndex returns the number of idle workers in the pool at idx.
func (m *MultiPool) FreeByIndex(idx int) (int, error) {
	return m.multiPool.FreeByIndex(idx)
}

func panicHandler(name string) func(any) {
	return func(recovered any) {
		ctx := GenerateRequestContext(nil, "", ContextSourceInternal, WorkflowEventDispatch, LogLayerWorkerPool)
		Logc(ctx).WithFields(LogFields{
			"pool":  name,
			"panic": recovered,
		}).Error("Worker pool task panicked.")
	}
}
