// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package types holds the contracts shared by worker pool implementations.
package types

//go:generate mockgen -destination=../../../mocks/mock_pkg/mock_workerpool/mock_types/mock_types.go -package=mock_types github.com/netapp/guts/pkg/workerpool/types Pool

import (
	"context"
	"time"
)

// Config is implemented by every pool configuration. The concrete type selects the implementation.
type Config interface {
	PoolConfig()
	Copy() Config
}

// Stats is a point-in-time view of a pool's occupancy.
type Stats struct {
	Capacity int
	Running  int
	Waiting  int
	Free     int
}

// Pool runs submitted tasks on a bounded set of goroutines.
type Pool interface {
	Start(ctx context.Context) error
	Submit(ctx context.Context, task func()) error
	Shutdown(ctx context.Context) error
	ShutdownWithTimeout(timeout time.Duration) error

	IsStarted() bool
	IsClosed() bool

	Cap() int
	Running() int
	Waiting() int
	Free() int
	Stats() Stats
}
