// Copyright 2025 NetApp, Inc. All Rights Reserved.

package executor

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

const defaultMailboxSize = 1024

// Sequential runs tasks one at a time, in submission order, on a single goroutine. The mailbox is unbounded, so
// Execute never blocks and never drops a task, and a task may safely queue further tasks on its own executor.
type Sequential struct {
	name      string
	threshold int

	mu      sync.Mutex
	mailbox *queue.Queue
	closed  bool
	warned  bool

	wake chan struct{}
	done chan struct{}
}

var (
	_ types.Executor = (*Sequential)(nil)
	_ Closer         = (*Sequential)(nil)
)

// NewSequential starts the executor goroutine. A backlog of size queued tasks is logged as a warning; a
// non-positive size selects the default.
func NewSequential(name string, size int) *Sequential {
	if size <= 0 {
		size = defaultMailboxSize
	}
	e := &Sequential{
		name:      name,
		threshold: size,
		mailbox:   queue.New(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *Sequential) loop() {
	defer close(e.done)
	for {
		e.mu.Lock()
		if e.mailbox.Length() == 0 {
			closed := e.closed
			e.mu.Unlock()
			if closed {
				return
			}
			<-e.wake
			continue
		}
		task := e.mailbox.Remove().(func())
		e.mu.Unlock()
		e.run(task)
	}
}

func (e *Sequential) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			Logc(context.Background()).WithFields(LogFields{
				"executor": e.name,
				"panic":    r,
			}).Error("Sequential executor task panicked.")
		}
	}()
	task()
}

func (e *Sequential) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Execute queues task. It fails only once the executor is closed.
func (e *Sequential) Execute(task func()) error {
	if task == nil {
		return errors.InvalidInputError("nil task")
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errors.NotReadyError("executor %s is closed", e.name)
	}
	e.mailbox.Add(task)
	backlog := e.mailbox.Length()
	warn := backlog >= e.threshold && !e.warned
	if warn {
		e.warned = true
	} else if backlog < e.threshold/2 {
		e.warned = false
	}
	e.mu.Unlock()

	if warn {
		Logc(context.Background()).WithFields(LogFields{
			"executor": e.name,
			"backlog":  backlog,
		}).Warn("Sequential executor is falling behind.")
	}
	e.signal()
	return nil
}

// Close stops accepting tasks and waits for the queued ones to finish, up to the context deadline.
func (e *Sequential) Close(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.signal()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks.
func (e *Sequential) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mailbox.Length()
}

func (e *Sequential) String() string { return e.name }
