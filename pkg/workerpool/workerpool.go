// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package workerpool provides a factory function for creating worker pools.
// The actual implementations live in subpackages like ants.
package workerpool

import (
	"context"
	"fmt"

	"github.com/netapp/guts/pkg/workerpool/ants"
	"github.com/netapp/guts/pkg/workerpool/types"
	"github.com/netapp/guts/utils/errors"
)

// New creates a worker pool from the provided implementation-specific config. The pool is not started.
//
// The config type determines which implementation is used:
//   - *ants.Config: a single ants pool
//   - *ants.MultiPoolConfig: several ants pools behind a load balancer
//
// Example usage:
//
//	pool, err := workerpool.New[types.Pool](ctx, ants.NewConfig(ants.WithNumWorkers(4)))
//	mp, err := workerpool.New[*ants.MultiPool](ctx, ants.NewMultiPoolConfig())
func New[P types.Pool](ctx context.Context, cfgs ...types.Config) (P, error) {
	var zero P

	var cfg types.Config = ants.DefaultConfig()
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	}

	var pool any
	var err error

	switch c := cfg.(type) {
	case *ants.Config:
		pool, err = ants.NewPool(ctx, c)
	case *ants.MultiPoolConfig:
		pool, err = ants.NewMultiPool(ctx, c)
	default:
		return zero, errors.UnsupportedConfigError("unsupported config type %T", cfg)
	}

	if err != nil {
		return zero, err
	}

	result, ok := pool.(P)
	if !ok {
		return zero, errors.InterfaceNotSupportedError(fmt.Sprintf("%T", pool), fmt.Sprintf("%T", zero))
	}
	return result, nil
}
