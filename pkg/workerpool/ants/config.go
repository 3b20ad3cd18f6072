// Copyright 2025 NetApp, Inc. All Rights Reserved.

package ants

import (
	"time"

	"github.com/brunoga/deep"
	"github.com/panjf2000/ants/v2"

	"github.com/netapp/guts/pkg/workerpool/types"
)

// ============================================================================
// Pool Configuration
// ============================================================================

// Config holds configuration options for creating an ants worker pool.
type Config struct {
	// Name labels the pool in logs, usually the thread policy it serves.
	Name string

	// NumWorkers is the number of worker goroutines.
	NumWorkers int

	// PreAlloc pre-allocates workers on pool creation.
	PreAlloc bool

	// NonBlocking makes Submit return immediately with an error if the pool is busy.
	NonBlocking bool

	// ExpiryDuration is the period after which idle workers are purged.
	ExpiryDuration time.Duration

	// DisablePurge keeps idle workers alive.
	DisablePurge bool

	// ShutdownTimeout bounds Shutdown when the context carries no deadline.
	ShutdownTimeout time.Duration
}

// PoolConfig is a marker method to implement the types.Config interface.
func (*Config) PoolConfig() {}

// Copy returns a deep copy of this configuration.
func (c *Config) Copy() types.Config {
	if c == nil {
		return nil
	}
	return copyConfig(c)
}

// ConfigOption is a functional option for configuring a worker pool.
type ConfigOption func(*Config)

func WithName(name string) ConfigOption {
	return func(c *Config) {
		c.Name = name
	}
}

func WithNumWorkers(n int) ConfigOption {
	return func(c *Config) {
		c.NumWorkers = n
	}
}

func WithPreAlloc(preAlloc bool) ConfigOption {
	return func(c *Config) {
		c.PreAlloc = preAlloc
	}
}

func WithNonBlocking(nonBlocking bool) ConfigOption {
	return func(c *Config) {
		c.NonBlocking = nonBlocking
	}
}

func WithExpiryDuration(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.ExpiryDuration = d
	}
}

func WithDisablePurge(disable bool) ConfigOption {
	return func(c *Config) {
		c.DisablePurge = disable
	}
}

func WithShutdownTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.ShutdownTimeout = d
	}
}

// NewConfig creates a new Config with the provided options applied over the defaults.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := &Config{
		NumWorkers:      defaultNumWorkers,
		PreAlloc:        true,
		ExpiryDuration:  defaultExpiryDuration,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) options() []ants.Option {
	return []ants.Option{
		ants.WithPreAlloc(c.PreAlloc),
		ants.WithNonblocking(c.NonBlocking),
		ants.WithExpiryDuration(c.ExpiryDuration),
		ants.WithDisablePurge(c.DisablePurge),
		ants.WithPanicHandler(panicHandler(c.Name)),
	}
}

// ============================================================================
// MultiPool Configuration
// ============================================================================

// LoadBalancingStrategy represents the load-balancing algorithm for MultiPool.
type LoadBalancingStrategy = ants.LoadBalancingStrategy

const (
	RoundRobin LoadBalancingStrategy = ants.RoundRobin
	LeastTasks LoadBalancingStrategy = ants.LeastTasks
)

// MultiPoolConfig configures a set of ants pools behind one load balancer, which spreads
// lock contention when many publishers submit at once.
type MultiPoolConfig struct {
	Config

	// NumPools is the number of underlying pools. Config.NumWorkers is applied per pool.
	NumPools int

	// LoadBalancingStrategy determines how tasks are distributed across pools.
	LoadBalancingStrategy LoadBalancingStrategy
}

// PoolConfig is a marker method to implement the types.Config interface.
func (*MultiPoolConfig) PoolConfig() {}

func (m *MultiPoolConfig) Copy() types.Config {
	if m == nil {
		return nil
	}
	return copyConfig(m)
}

// MultiPoolConfigOption is a functional option for configuring a multipool.
type MultiPoolConfigOption func(*MultiPoolConfig)

func WithNumPools(n int) MultiPoolConfigOption {
	return func(c *MultiPoolConfig) {
		c.NumPools = n
	}
}

func WithLoadBalancingStrategy(strategy LoadBalancingStrategy) MultiPoolConfigOption {
	return func(c *MultiPoolConfig) {
		c.LoadBalancingStrategy = strategy
	}
}

// WithPoolOptions applies single-pool options to every underlying pool.
func WithPoolOptions(opts ...ConfigOption) MultiPoolConfigOption {
	return func(c *MultiPoolConfig) {
		for _, opt := range opts {
			opt(&c.Config)
		}
	}
}

// NewMultiPoolConfig creates a new MultiPoolConfig with the provided options applied over the defaults.
func NewMultiPoolConfig(opts ...MultiPoolConfigOption) *MultiPoolConfig {
	cfg := &MultiPoolConfig{
		Config:                *NewConfig(),
		NumPools:              defaultNumWorkers,
		LoadBalancingStrategy: RoundRobin,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func copyConfig[C any](c *C) *C {
	copied, err := deep.Copy(c)
	if err != nil {
		// Plain value fields only, so a struct copy is equivalent.
		cfgCopy := *c
		return &cfgCopy
	}
	return copied
}
