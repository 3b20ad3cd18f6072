// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package extractor turns the method specs of a subscriber type into validated subscriptions.
package extractor

import (
	"context"
	"reflect"
	"slices"
	"sync"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/executor"
	"github.com/netapp/guts/pkg/eventbus/metrics"
	"github.com/netapp/guts/pkg/eventbus/types"
)

var boolType = reflect.TypeFor[bool]()

// Declarations tells which channels exist.
type Declarations interface {
	IsDeclared(key types.ChannelKey) bool
}

type cacheEntry struct {
	once sync.Once
	subs []types.Subscription
}

// Extractor validates subscriber types once each and caches the result.
type Extractor struct {
	declarations    Declarations
	executors       map[types.ThreadPolicy]types.Executor
	defaultExecutor types.Executor
	errors          types.ErrorHandler
	metrics         *metrics.Metrics

	mu    sync.Mutex
	cache map[reflect.Type]*cacheEntry
}

type Option func(*Extractor)

// WithExecutors sets the executors thread policies resolve to.
func WithExecutors(executors map[types.ThreadPolicy]types.Executor) Option {
	return func(e *Extractor) {
		for policy, exec := range executors {
			e.executors[policy] = exec
		}
	}
}

// WithDefaultExecutor sets the executor of consumers without a thread policy.
func WithDefaultExecutor(exec types.Executor) Option {
	return func(e *Extractor) {
		e.defaultExecutor = exec
	}
}

func WithErrorHandler(h types.ErrorHandler) Option {
	return func(e *Extractor) {
		e.errors = h
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

func New(declarations Declarations, opts ...Option) *Extractor {
	e := &Extractor{
		declarations:    declarations,
		executors:       make(map[types.ThreadPolicy]types.Executor),
		defaultExecutor: executor.Default,
		cache:           make(map[reflect.Type]*cacheEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the subscriptions of ownerType. methods is only called the first time a type is seen.
// Invalid methods are reported to the error handler and left out.
func (e *Extractor) Extract(
	ctx context.Context, ownerType reflect.Type, methods func() []types.MethodSpec,
) []types.Subscription {
	e.mu.Lock()
	entry, ok := e.cache[ownerType]
	if !ok {
		entry = &cacheEntry{}
		e.cache[ownerType] = entry
	}
	e.mu.Unlock()

	entry.once.Do(func() {
		entry.subs = e.extract(ctx, ownerType, methods())
	})
	return entry.subs
}

// ExtractSpecs validates specs against ownerType without touching the cache, for owners whose subscriptions
// differ from other owners of the same type.
func (e *Extractor) ExtractSpecs(
	ctx context.Context, ownerType reflect.Type, specs []types.MethodSpec,
) []types.Subscription {
	return e.extract(ctx, ownerType, specs)
}

// Reset forgets every cached type, so that types are validated again against the current declarations.
func (e *Extractor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.cache)
}

// Cached returns the number of types extracted so far.
func (e *Extractor) Cached() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

type consumer struct {
	key      types.ChannelKey
	invoker  *types.Invoker
	priority int
	policy   types.ThreadPolicy
	exec     types.Executor
	filterID string
}

type filter struct {
	key     types.ChannelKey
	invoker *types.Invoker
	id      string
}

func (e *Extractor) extract(ctx context.Context, ownerType reflect.Type, specs []types.MethodSpec) []types.Subscription {
	var consumers []consumer
	var filters []filter

	for _, spec := range specs {
		key, invoker, ok := e.analyze(ctx, ownerType, spec)
		if !ok {
			continue
		}
		if spec.Kind == types.KindFilter {
			filters = append(filters, filter{key: key, invoker: invoker, id: spec.FilterID})
			continue
		}

		policy, exec, ok := e.resolvePolicy(ctx, ownerType, spec, key)
		if !ok {
			continue
		}
		consumers = append(consumers, consumer{
			key:      key,
			invoker:  invoker,
			priority: spec.Priority,
			policy:   policy,
			exec:     exec,
			filterID: spec.FilterID,
		})
	}

	subs := make([]types.Subscription, 0, len(consumers))
	for _, c := range consumers {
		paired := false
		for _, f := range filters {
			if f.key != c.key || f.id != c.filterID {
				continue
			}
			subs = append(subs, c.subscription(f.invoker))
			paired = true
		}
		if !paired {
			subs = append(subs, c.subscription(nil))
		}
	}

	Logc(ctx).WithFields(LogFields{
		"type":          ownerType.String(),
		"subscriptions": len(subs),
	}).Debug("Extracted event subscriptions.")

	return subs
}

func (c consumer) subscription(f *types.Invoker) types.Subscription {
	return types.Subscription{
		Key:      c.key,
		Consumer: c.invoker,
		Filter:   f,
		Priority: c.priority,
		Policy:   c.policy,
		Executor: c.exec,
	}
}

// analyze checks the shape of one method and resolves its channel.
func (e *Extractor) analyze(
	ctx context.Context, ownerType reflect.Type, spec types.MethodSpec,
) (types.ChannelKey, *types.Invoker, bool) {
	isFilter := spec.Kind == types.KindFilter
	violation := types.Violation{OwnerType: ownerType, Method: spec.Name, Filter: isFilter}

	fn, found := resolve(ownerType, spec)
	if !found {
		violation.Kind = types.MethodNotFound
		e.report(ctx, violation)
		return types.ChannelKey{}, nil, false
	}
	fnType := fn.Type()

	if isFilter && (fnType.NumOut() != 1 || fnType.Out(0) != boolType) {
		violation.Kind = types.FilterReturn
		e.report(ctx, violation)
		return types.ChannelKey{}, nil, false
	}

	if fnType.NumIn() != 2 || fnType.IsVariadic() {
		violation.Kind = types.ConsumerArity
		if isFilter {
			violation.Kind = types.FilterArity
		}
		e.report(ctx, violation)
		return types.ChannelKey{}, nil, false
	}

	if !ownerType.AssignableTo(fnType.In(0)) {
		violation.Kind = types.ReceiverMismatch
		e.report(ctx, violation)
		return types.ChannelKey{}, nil, false
	}

	if !isFilter && fnType.NumOut() > 1 {
		violation.Kind = types.ConsumerReturn
		e.report(ctx, violation)
		return types.ChannelKey{}, nil, false
	}

	param := fnType.In(1)
	eventType := param
	if spec.EventType != nil {
		if !param.AssignableTo(spec.EventType) {
			violation.Kind = types.TypeNotSupertype
			violation.Key = types.NewChannelKey(spec.EventType, spec.Topic)
			e.report(ctx, violation)
			return types.ChannelKey{}, nil, false
		}
		eventType = spec.EventType
	}

	key := types.NewChannelKey(eventType, spec.Topic)
	if e.declarations == nil || !e.declarations.IsDeclared(key) {
		violation.Kind = types.ChannelNotRegistered
		violation.Key = key
		e.report(ctx, violation)
		return types.ChannelKey{}, nil, false
	}

	return key, types.NewInvoker(violation.Identity(), fn), true
}

// resolvePolicy picks the executor of a consumer. At most one distinct, known policy is allowed.
func (e *Extractor) resolvePolicy(
	ctx context.Context, ownerType reflect.Type, spec types.MethodSpec, key types.ChannelKey,
) (types.ThreadPolicy, types.Executor, bool) {
	var policies []types.ThreadPolicy
	for _, p := range spec.Policies {
		if p == types.PolicyNone || slices.Contains(policies, p) {
			continue
		}
		policies = append(policies, p)
	}

	violation := types.Violation{OwnerType: ownerType, Method: spec.Name, Key: key}
	for _, p := range policies {
		if _, ok := e.executors[p]; !ok {
			violation.Kind = types.UnknownThreadPolicy
			violation.Policies = []types.ThreadPolicy{p}
			e.report(ctx, violation)
			return types.PolicyNone, nil, false
		}
	}

	switch len(policies) {
	case 0:
		return types.PolicyNone, e.defaultExecutor, true
	case 1:
		return policies[0], e.executors[policies[0]], true
	default:
		violation.Kind = types.MultipleThreadPolicies
		violation.Policies = policies
		e.report(ctx, violation)
		return types.PolicyNone, nil, false
	}
}

func (e *Extractor) report(ctx context.Context, violation types.Violation) {
	e.metrics.ViolationReported(violation.Kind.String())

	if e.errors == nil {
		Logc(ctx).WithFields(LogFields{
			"kind":   violation.Kind.String(),
			"method": violation.Identity(),
		}).Error(violation.Error())
		return
	}
	e.errors.HandleViolation(ctx, violation)
}

// resolve finds the function behind spec: the explicit Func, or the method called Name.
func resolve(ownerType reflect.Type, spec types.MethodSpec) (reflect.Value, bool) {
	if spec.Func != nil {
		fn := reflect.ValueOf(spec.Func)
		if fn.Kind() != reflect.Func || fn.IsNil() {
			return reflect.Value{}, false
		}
		return fn, true
	}
	if ownerType == nil || spec.Name == "" {
		return reflect.Value{}, false
	}
	method, ok := ownerType.MethodByName(spec.Name)
	if !ok {
		return reflect.Value{}, false
	}
	return method.Func, true
}
