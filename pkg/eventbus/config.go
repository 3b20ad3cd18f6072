// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eventbus

import (
	"context"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/clock"

	"github.com/netapp/guts/config"
	"github.com/netapp/guts/pkg/eventbus/types"
	antspool "github.com/netapp/guts/pkg/workerpool/ants"
	workerpooltypes "github.com/netapp/guts/pkg/workerpool/types"
)

type policyKind int

const (
	policyExternal policyKind = iota
	policyPooled
	policySequential
)

// policySpec says how to get the executor of one thread policy.
type policySpec struct {
	kind     policyKind
	executor types.Executor
	pool     workerpooltypes.Config
	mailbox  int
}

// Config holds the settings of a Service. Build it with options.
type Config struct {
	cleanupInterval time.Duration
	clock           clock.WithTicker
	policies        map[types.ThreadPolicy]policySpec
	errors          types.ErrorHandler
	exceptions      types.ExceptionHandler
	returns         map[reflect.Type]types.ReturnHandler
	registerer      prometheus.Registerer
	channels        []types.ChannelKey
	hook            *RegistrationHook
}

type Option func(*Config)

// NewConfig applies opts on top of the defaults.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		cleanupInterval: config.DefaultCleanupInterval,
		policies:        make(map[types.ThreadPolicy]policySpec),
		returns:         make(map[reflect.Type]types.ReturnHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithCleanupInterval sets the period of the full sweep for dead bindings.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithClock replaces the clock driving the cleaner.
func WithClock(clk clock.WithTicker) Option {
	return func(c *Config) {
		c.clock = clk
	}
}

// WithExecutor maps policy to exec. The caller keeps ownership of exec.
func WithExecutor(policy types.ThreadPolicy, exec types.Executor) Option {
	return func(c *Config) {
		c.policies[policy] = policySpec{kind: policyExternal, executor: exec}
	}
}

// WithPooledPolicy maps policy to a worker pool built from cfg, either an *ants.Config or an
// *ants.MultiPoolConfig. The service owns the pool.
func WithPooledPolicy(policy types.ThreadPolicy, cfg workerpooltypes.Config) Option {
	return func(c *Config) {
		if v := reflect.ValueOf(cfg); !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) {
			cfg = antspool.DefaultConfig()
		}
		c.policies[policy] = policySpec{kind: policyPooled, pool: cfg.Copy()}
	}
}

// WithSequentialPolicy maps policy to a single goroutine running consumers one event at a time.
// The mailbox is unbounded; a backlog of mailboxSize tasks is logged. The service owns the executor.
func WithSequentialPolicy(policy types.ThreadPolicy, mailboxSize int) Option {
	return func(c *Config) {
		c.policies[policy] = policySpec{kind: policySequential, mailbox: mailboxSize}
	}
}

// WithErrorHandler receives invalid subscriber methods. The default logs them.
func WithErrorHandler(h types.ErrorHandler) Option {
	return func(c *Config) {
		c.errors = h
	}
}

// WithExceptionHandler receives consumer failures. The default logs them.
func WithExceptionHandler(h types.ExceptionHandler) Option {
	return func(c *Config) {
		c.exceptions = h
	}
}

// WithReturnHandler receives the values of type T returned by consumers.
func WithReturnHandler[T any](h func(ctx context.Context, value T) error) Option {
	return func(c *Config) {
		c.returns[reflect.TypeFor[T]()] = returnHandlerFunc[T](h)
	}
}

// WithMetricsRegisterer registers the event metrics on reg instead of a private registry.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.registerer = reg
	}
}

// WithChannels declares keys when the service starts.
func WithChannels(keys ...types.ChannelKey) Option {
	return func(c *Config) {
		c.channels = append(c.channels, keys...)
	}
}

// WithHook attaches a hook that may already hold buffered registrations.
func WithHook(h *RegistrationHook) Option {
	return func(c *Config) {
		c.hook = h
	}
}

type returnHandlerFunc[T any] func(ctx context.Context, value T) error

func (f returnHandlerFunc[T]) HandleReturn(ctx context.Context, value any) error {
	v, _ := value.(T)
	return f(ctx, v)
}
