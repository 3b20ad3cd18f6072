// Copyright 2025 NetApp, Inc. All Rights Reserved.

package generic_syncpool

import "sync"

// Pool is a typed sync.Pool. Values are passed through the optional reset function on Put so that a value
// taken from the pool never carries state from its previous use.
//
// Example usage:
//
//	type batch struct{ items []int }
//	pool := generic_syncpool.NewPool(
//	    func() *batch { return &batch{items: make([]int, 0, 16)} },
//	    func(b *batch) { b.items = b.items[:0] },
//	)
//	b := pool.Get()
//	// ... use b ...
//	pool.Put(b)
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// Get retrieves a value from the pool, building a new one when the pool is empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put resets x and returns it to the pool.
func (p *Pool[T]) Put(x T) {
	if p.reset != nil {
		p.reset(x)
	}
	p.pool.Put(x)
}

// NewPool creates a Pool building values with newF. reset may be nil.
func NewPool[T any](newF func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return newF()
			},
		},
		reset: reset,
	}
}
