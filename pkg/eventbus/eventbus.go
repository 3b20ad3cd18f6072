// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package eventbus wires typed publish/subscribe channels together: the channel registry, the subscriber
// extractor, the cleaner of dead bindings and the executors thread policies run on.
//
// Example usage:
//
//	svc, err := eventbus.NewService(ctx,
//	    eventbus.WithPooledPolicy("background", ants.NewConfig(ants.WithNumWorkers(4))),
//	    eventbus.WithChannels(types.KeyOf[Order]("orders")),
//	)
//	defer svc.Close(ctx)
//
//	reg, err := eventbus.Register(ctx, svc.Hook(), panel)
//	err = svc.Publish(ctx, types.KeyOf[Order]("orders"), Order{ID: 7})
package eventbus

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/channel"
	"github.com/netapp/guts/pkg/eventbus/cleaner"
	"github.com/netapp/guts/pkg/eventbus/executor"
	"github.com/netapp/guts/pkg/eventbus/extractor"
	"github.com/netapp/guts/pkg/eventbus/metrics"
	"github.com/netapp/guts/pkg/eventbus/registry"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/pkg/workerpool"
	workerpooltypes "github.com/netapp/guts/pkg/workerpool/types"
	"github.com/netapp/guts/utils/errors"
)

// Service owns the channels of one application.
type Service struct {
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	registry  *registry.Registry
	extractor *extractor.Extractor
	cleaner   *cleaner.Cleaner
	hook      *RegistrationHook

	executors map[types.ThreadPolicy]types.Executor
	owned     []executor.Closer

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// NewService builds a service from opts and starts its cleaner. Executors the service creates are closed by
// Close; executors passed with WithExecutor are left to the caller.
func NewService(ctx context.Context, opts ...Option) (*Service, error) {
	cfg := NewConfig(opts...)
	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowEventDeclare, LogLayerEvents)

	s := &Service{
		executors: make(map[types.ThreadPolicy]types.Executor, len(cfg.policies)),
	}

	registerer := cfg.registerer
	if registerer == nil {
		privateRegistry := prometheus.NewRegistry()
		registerer, s.gatherer = privateRegistry, privateRegistry
	} else if gatherer, ok := registerer.(prometheus.Gatherer); ok {
		s.gatherer = gatherer
	}
	s.metrics = metrics.New(registerer)

	if err := s.buildExecutors(ctx, cfg); err != nil {
		_ = s.closeExecutors(ctx)
		return nil, err
	}

	errorHandler := cfg.errors
	if errorHandler == nil {
		errorHandler = LoggingErrorHandler{}
	}
	exceptionHandler := cfg.exceptions
	if exceptionHandler == nil {
		exceptionHandler = LoggingExceptionHandler{}
	}

	cleanerOpts := []cleaner.Option{
		cleaner.WithInterval(cfg.cleanupInterval),
		cleaner.WithMetrics(s.metrics),
	}
	if cfg.clock != nil {
		cleanerOpts = append(cleanerOpts, cleaner.WithClock(cfg.clock))
	}
	s.cleaner = cleaner.New(cleanerOpts...)

	s.registry = registry.New(
		registry.WithTracker(s.cleaner),
		registry.WithChannelOptions(
			channel.WithCleanupScheduler(s.cleaner),
			channel.WithExceptionHandler(exceptionHandler),
			channel.WithReturnHandlers(cfg.returns),
			channel.WithMetrics(s.metrics),
		),
	)
	s.extractor = extractor.New(s.registry,
		extractor.WithExecutors(s.executors),
		extractor.WithDefaultExecutor(executor.Default),
		extractor.WithErrorHandler(errorHandler),
		extractor.WithMetrics(s.metrics),
	)

	for _, key := range cfg.channels {
		if _, err := s.registry.DeclareChannel(ctx, key); err != nil {
			_ = s.closeExecutors(ctx)
			return nil, err
		}
	}

	s.cleaner.Start(ctx)

	s.hook = cfg.hook
	if s.hook == nil {
		s.hook = NewRegistrationHook()
	}
	if err := s.hook.Attach(ctx, s); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	Logc(ctx).WithFields(LogFields{
		"channels":        len(cfg.channels),
		"policies":        len(s.executors),
		"cleanupInterval": s.cleaner.Interval(),
	}).Debug("Event service started.")

	return s, nil
}

func (s *Service) buildExecutors(ctx context.Context, cfg *Config) error {
	for policy, spec := range cfg.policies {
		if policy == types.PolicyNone {
			return errors.InvalidInputError("the empty thread policy cannot be mapped to an executor")
		}

		switch spec.kind {
		case policyExternal:
			if spec.executor == nil {
				return errors.InvalidInputError("thread policy %s has no executor", policy)
			}
			s.executors[policy] = spec.executor
		case policyPooled:
			pool, err := workerpool.New[workerpooltypes.Pool](ctx, spec.pool)
			if err != nil {
				return fmt.Errorf("could not create pool for thread policy %s; %w", policy, err)
			}
			pooled, err := executor.NewPooled(ctx, string(policy), pool)
			if err != nil {
				return fmt.Errorf("could not start pool for thread policy %s; %w", policy, err)
			}
			s.executors[policy] = pooled
			s.owned = append(s.owned, pooled)
		case policySequential:
			sequential := executor.NewSequential(string(policy), spec.mailbox)
			s.executors[policy] = sequential
			s.owned = append(s.owned, sequential)
		default:
			return errors.UnsupportedConfigError("unsupported kind %d for thread policy %s", spec.kind, policy)
		}
	}
	return nil
}

// DeclareChannel makes key usable for publishing and subscribing. Declaring a key twice is a no-op.
func (s *Service) DeclareChannel(ctx context.Context, key types.ChannelKey) error {
	ctx = GenerateRequestContextForLayer(ctx, LogLayerRegistry)
	added, err := s.registry.DeclareChannel(ctx, key)
	if err != nil {
		return err
	}
	if added {
		// Types rejected for an undeclared channel are checked again on their next registration.
		s.extractor.Reset()
	}
	return nil
}

// IsDeclared reports whether key was declared.
func (s *Service) IsDeclared(key types.ChannelKey) bool {
	return s.registry.IsDeclared(key)
}

// Channel returns the channel of a declared key.
func (s *Service) Channel(ctx context.Context, key types.ChannelKey) (*channel.Channel, error) {
	return s.registry.Channel(GenerateRequestContextForLayer(ctx, LogLayerRegistry), key)
}

// Channels lists the channels created so far.
func (s *Service) Channels() []*channel.Channel {
	return s.registry.Channels()
}

// Keys lists the declared keys.
func (s *Service) Keys() []types.ChannelKey {
	return s.registry.Keys()
}

// Publish delivers event to the subscribers of key. It fails without touching any subscriber if key was never
// declared or event does not fit the key's event type. Consumer failures go to the exception handler.
func (s *Service) Publish(ctx context.Context, key types.ChannelKey, event any) error {
	if s.closed.Load() {
		return errors.NotReadyError("event service is closed")
	}
	c, err := s.Channel(ctx, key)
	if err != nil {
		return err
	}
	if !key.Accepts(event) {
		return errors.InvalidInputError("event of type %T cannot be published on channel %s", event, key)
	}
	c.Publish(GenerateRequestContextForLayer(ctx, LogLayerEvents), event)
	return nil
}

// Hook returns the registration hook attached to the service.
func (s *Service) Hook() *RegistrationHook {
	return s.hook
}

// Executor returns the executor of policy.
func (s *Service) Executor(policy types.ThreadPolicy) (types.Executor, bool) {
	if policy == types.PolicyNone {
		return executor.Default, true
	}
	exec, ok := s.executors[policy]
	return exec, ok
}

// Gatherer exposes the event metrics. It is nil when the registerer given to the service is not a gatherer.
func (s *Service) Gatherer() prometheus.Gatherer {
	return s.gatherer
}

// Cleanup sweeps every channel now.
func (s *Service) Cleanup(ctx context.Context) {
	s.cleaner.Sweep(GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowEventCleanup, LogLayerCleaner))
}

// Closed reports whether Close was called.
func (s *Service) Closed() bool {
	return s.closed.Load()
}

// Close stops the cleaner and the executors owned by the service. Later calls return the first result.
func (s *Service) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowPoolShutdown, LogLayerEvents)

		var errs error
		if err := s.cleaner.Stop(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}
		errs = multierr.Append(errs, s.closeExecutors(ctx))
		s.closeErr = errs

		if errs != nil {
			Logc(ctx).WithError(errs).Warn("Event service closed with errors.")
		} else {
			Logc(ctx).Debug("Event service closed.")
		}
	})
	return s.closeErr
}

func (s *Service) closeExecutors(ctx context.Context) error {
	var errs error
	for _, closer := range s.owned {
		if err := closer.Close(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("could not close executor %v; %w", closer, err))
		}
	}
	s.owned = nil
	return errs
}
