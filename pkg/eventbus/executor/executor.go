// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package executor provides the executors thread policies resolve to.
package executor

import (
	"context"

	"github.com/netapp/guts/pkg/eventbus/types"
	workerpooltypes "github.com/netapp/guts/pkg/workerpool/types"
	"github.com/netapp/guts/utils/errors"
)

// Closer is implemented by executors owning goroutines.
type Closer interface {
	Close(ctx context.Context) error
}

// ============================================================================
// CurrentGoroutine
// ============================================================================

// CurrentGoroutine runs tasks inline in the publishing goroutine.
type CurrentGoroutine struct {
	name string
}

var _ types.Executor = (*CurrentGoroutine)(nil)

// Default is the executor of bindings with no thread policy.
var Default = NewCurrentGoroutine("current")

func NewCurrentGoroutine(name string) *CurrentGoroutine {
	return &CurrentGoroutine{name: name}
}

func (e *CurrentGoroutine) Execute(task func()) error {
	task()
	return nil
}

func (e *CurrentGoroutine) String() string { return e.name }

// ============================================================================
// Pooled
// ============================================================================

// Pooled submits tasks to a worker pool. Publishers do not wait for the consumers.
type Pooled struct {
	name string
	pool workerpooltypes.Pool
}

var (
	_ types.Executor = (*Pooled)(nil)
	_ Closer         = (*Pooled)(nil)
)

// NewPooled wraps pool, starting it if needed.
func NewPooled(ctx context.Context, name string, pool workerpooltypes.Pool) (*Pooled, error) {
	if pool == nil {
		return nil, errors.InvalidInputError("pooled executor %s needs a pool", name)
	}
	if !pool.IsStarted() {
		if err := pool.Start(ctx); err != nil {
			return nil, err
		}
	}
	return &Pooled{name: name, pool: pool}, nil
}

func (e *Pooled) Execute(task func()) error {
	return e.pool.Submit(context.Background(), task)
}

// Close shuts the pool down, waiting for running tasks up to the context deadline.
func (e *Pooled) Close(ctx context.Context) error {
	return e.pool.Shutdown(ctx)
}

func (e *Pooled) Pool() workerpooltypes.Pool { return e.pool }

func (e *Pooled) String() string { return e.name }
