// Copyright 2025 NetApp, Inc. All Rights Reserved.

package ants

import (
	"runtime"
	"time"
)

const (
	// defaultExpiryDuration is the default expiryDuration after which expired workers are cleaned up.
	defaultExpiryDuration = 10 * time.Second

	// defaultShutdownTimeout bounds a shutdown whose context has no deadline.
	defaultShutdownTimeout = 30 * time.Second
)

var (
	// defaultNumWorkers is the default number of workers (based on CPU count).
	defaultNumWorkers = runtime.NumCPU()
)

// DefaultConfig returns the default configuration for a single Pool.
func DefaultConfig() *Config {
	return NewConfig()
}

// DefaultMultiPoolConfig returns the default configuration for a MultiPool: one pool per CPU, each with one
// worker per CPU, balanced round-robin.
func DefaultMultiPoolConfig() *MultiPoolConfig {
	return NewMultiPoolConfig()
}
