// Copyright 2025 NetApp, Inc. All Rights Reserved.

package workerpool

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/workerpool/ants"
	"github.com/netapp/guts/pkg/workerpool/types"
	"github.com/netapp/guts/utils/errors"
)

func TestMain(m *testing.M) {
	// Disable any standard log output
	InitLogOutput(io.Discard)
	os.Exit(m.Run())
}

type unknownConfig struct{}

func (*unknownConfig) PoolConfig()          {}
func (*unknownConfig) Copy() types.Config { return &unknownConfig{} }

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		pool, err := New[types.Pool](ctx)
		require.NoError(t, err)
		assert.IsType(t, &ants.Pool{}, pool)
		assert.NoError(t, pool.Shutdown(ctx))
	})

	t.Run("single pool config", func(t *testing.T) {
		pool, err := New[*ants.Pool](ctx, ants.NewConfig(ants.WithNumWorkers(2)))
		require.NoError(t, err)
		assert.Equal(t, 2, pool.Cap())
		assert.NoError(t, pool.Shutdown(ctx))
	})

	t.Run("multipool config", func(t *testing.T) {
		pool, err := New[types.Pool](ctx, ants.NewMultiPoolConfig(ants.WithNumPools(2),
			ants.WithPoolOptions(ants.WithNumWorkers(2))))
		require.NoError(t, err)
		assert.IsType(t, &ants.MultiPool{}, pool)
		assert.Equal(t, 4, pool.Cap())
		assert.NoError(t, pool.Shutdown(ctx))
	})

	t.Run("unsupported config", func(t *testing.T) {
		_, err := New[types.Pool](ctx, &unknownConfig{})
		assert.True(t, errors.IsUnsupportedConfigError(err))
	})

	t.Run("mismatched return type", func(t *testing.T) {
		_, err := New[*ants.MultiPool](ctx, ants.NewConfig(ants.WithNumWorkers(1)))
		assert.True(t, errors.IsInterfaceNotSupportedError(err))
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := New[types.Pool](ctx, ants.NewConfig(ants.WithNumWorkers(0)))
		assert.True(t, errors.IsInvalidInputError(err))
	})
}
