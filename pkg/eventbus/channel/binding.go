// Copyright 2025 NetApp, Inc. All Rights Reserved.

package channel

import (
	"cmp"
	"sync/atomic"
	"weak"

	"github.com/netapp/guts/pkg/eventbus/types"
)

// sequence orders bindings of equal priority by registration.
var sequence atomic.Uint64

// OwnerRef resolves the object owning a binding. Value returns nil once the owner is gone.
type OwnerRef interface {
	Value() any
}

type weakOwner[O any] struct {
	ptr weak.Pointer[O]
}

func (w weakOwner[O]) Value() any {
	if o := w.ptr.Value(); o != nil {
		return o
	}
	return nil
}

// WeakOwner references owner without keeping it reachable.
func WeakOwner[O any](owner *O) OwnerRef {
	return weakOwner[O]{ptr: weak.Make(owner)}
}

// Binding ties one consumer, and its optional filter, of one owner to a channel.
type Binding struct {
	key       types.ChannelKey
	owner     OwnerRef
	consumer  *types.Invoker
	filter    *types.Invoker
	priority  int
	sequence  uint64
	policy    types.ThreadPolicy
	executor  types.Executor
	cancelled atomic.Bool
}

// NewBinding binds sub to owner and assigns the next registration sequence number.
func NewBinding(sub types.Subscription, owner OwnerRef) *Binding {
	return &Binding{
		key:      sub.Key,
		owner:    owner,
		consumer: sub.Consumer,
		filter:   sub.Filter,
		priority: sub.Priority,
		sequence: sequence.Add(1),
		policy:   sub.Policy,
		executor: sub.Executor,
	}
}

// Owner returns the live owner, or nil once it was collected or the binding was cancelled.
func (b *Binding) Owner() any {
	if b.cancelled.Load() {
		return nil
	}
	return b.owner.Value()
}

// Cancel makes the binding dead. The channel drops it on its next cleanup.
func (b *Binding) Cancel() {
	b.cancelled.Store(true)
}

func (b *Binding) Key() types.ChannelKey { return b.key }

func (b *Binding) Method() string { return b.consumer.Name() }

func (b *Binding) Priority() int { return b.priority }

func (b *Binding) Sequence() uint64 { return b.sequence }

func (b *Binding) Policy() types.ThreadPolicy { return b.policy }

func compareBindings(a, b *Binding) int {
	if c := cmp.Compare(a.priority, b.priority); c != 0 {
		return c
	}
	return cmp.Compare(a.sequence, b.sequence)
}
