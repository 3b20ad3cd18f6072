// Copyright 2025 NetApp, Inc. All Rights Reserved.

package ants

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// Config Tests
// ============================================================================

func TestConfig_Copy(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{
			name: "nil config",
			cfg:  nil,
		},
		{
			name: "empty config",
			cfg:  &Config{},
		},
		{
			name: "full config",
			cfg: &Config{
				Name:            "background",
				NumWorkers:      10,
				PreAlloc:        true,
				NonBlocking:     true,
				ExpiryDuration:  5 * time.Second,
				DisablePurge:    true,
				ShutdownTimeout: time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copied := tt.cfg.Copy()

			if tt.cfg == nil {
				assert.Nil(t, copied)
				return
			}

			copiedCfg := copied.(*Config)
			assert.Equal(t, *tt.cfg, *copiedCfg)
			assert.NotSame(t, tt.cfg, copiedCfg)
		})
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(
		WithName("io"),
		WithNumWorkers(3),
		WithPreAlloc(false),
		WithNonBlocking(true),
		WithExpiryDuration(time.Minute),
		WithDisablePurge(true),
		WithShutdownTimeout(2*time.Second),
	)

	assert.Equal(t, "io", cfg.Name)
	assert.Equal(t, 3, cfg.NumWorkers)
	assert.False(t, cfg.PreAlloc)
	assert.True(t, cfg.NonBlocking)
	assert.Equal(t, time.Minute, cfg.ExpiryDuration)
	assert.True(t, cfg.DisablePurge)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers)
	assert.True(t, cfg.PreAlloc)
	assert.Equal(t, 10*time.Second, cfg.ExpiryDuration)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

// ============================================================================
// MultiPoolConfig Tests
// ============================================================================

func TestMultiPoolConfig_Copy(t *testing.T) {
	var nilCfg *MultiPoolConfig
	assert.Nil(t, nilCfg.Copy())

	cfg := NewMultiPoolConfig(WithNumPools(2), WithLoadBalancingStrategy(LeastTasks),
		WithPoolOptions(WithNumWorkers(7), WithName("mp")))
	copied := cfg.Copy().(*MultiPoolConfig)

	assert.Equal(t, *cfg, *copied)
	assert.NotSame(t, cfg, copied)
}

func TestDefaultMultiPoolConfig(t *testing.T) {
	cfg := DefaultMultiPoolConfig()

	assert.Equal(t, runtime.NumCPU(), cfg.NumPools)
	assert.Equal(t, runtime.NumCPU(), cfg.NumWorkers)
	assert.Equal(t, RoundRobin, cfg.LoadBalancingStrategy)
	assert.True(t, cfg.PreAlloc)
	assert.Equal(t, 10*time.Second, cfg.ExpiryDuration)
}
