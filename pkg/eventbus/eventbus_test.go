// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eventbus

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	. "github.com/netapp/guts/logging"
	mockeventbus "github.com/netapp/guts/mocks/mock_pkg/mock_eventbus/mock_types"
	"github.com/netapp/guts/pkg/eventbus/executor"
	"github.com/netapp/guts/pkg/eventbus/types"
	antspool "github.com/netapp/guts/pkg/workerpool/ants"
	"github.com/netapp/guts/utils/errors"
)

func TestMain(m *testing.M) {
	// Disable any standard log output
	InitLogOutput(io.Discard)
	os.Exit(m.Run())
}

// ============================================================================
// Subscribers used by the tests
// ============================================================================

type recorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *recorder) add(format string, a ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, fmt.Sprintf(format, a...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

type prioritized struct{ rec *recorder }

func (p *prioritized) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{
		types.Consumes("Late"),
		types.Consumes("Early", types.WithPriority(-5)),
	}
}

func (p *prioritized) Late(v int) { p.rec.add("late %d", v) }
func (p *prioritized) Early(v int) { p.rec.add("early %d", v) }

type bigOnly struct{ rec *recorder }

func (b *bigOnly) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{
		types.Consumes("OnValue"),
		types.Filters("Big"),
	}
}

func (b *bigOnly) OnValue(v int) { b.rec.add("%d", v) }
func (b *bigOnly) Big(v int) bool { return v > 10 }

type topicWatcher struct{ rec *recorder }

func (w *topicWatcher) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{
		types.Consumes("OnA", types.WithTopic("A")),
		types.Consumes("OnB", types.WithTopic("B")),
	}
}

func (w *topicWatcher) OnA(v int) { w.rec.add("A %d", v) }
func (w *topicWatcher) OnB(v int) { w.rec.add("B %d", v) }

type faulty struct{ rec *recorder }

func (f *faulty) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{
		types.Consumes("Boom", types.WithPriority(-1)),
		types.Consumes("After"),
	}
}

func (f *faulty) Boom(int) { panic("boom") }
func (f *faulty) After(v int) { f.rec.add("after %d", v) }

type ephemeral struct{ hits *atomic.Int32 }

func (e *ephemeral) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnValue")}
}

func (e *ephemeral) OnValue(int) { e.hits.Add(1) }

type background struct{ got chan int }

func (b *background) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnValue", types.InPolicy("background"))}
}

func (b *background) OnValue(v int) { b.got <- v }

type ordered struct{ rec *recorder }

func (o *ordered) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnValue", types.InPolicy("ui"))}
}

func (o *ordered) OnValue(v int) { o.rec.add("%d", v) }

type gated struct {
	gate      chan struct{}
	delivered atomic.Int32
}

func (g *gated) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnValue", types.InPolicy("ui"))}
}

func (g *gated) OnValue(int) {
	<-g.gate
	g.delivered.Add(1)
}

type lateSubscriber struct{ rec *recorder }

func (l *lateSubscriber) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnName", types.WithTopic("late"))}
}

func (l *lateSubscriber) OnName(name string) { l.rec.add("%s", name) }

type broken struct{}

func (b *broken) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{
		types.Consumes("Missing"),
		types.Filters("NotBool"),
	}
}

func (b *broken) NotBool(int) int { return 0 }

type describer struct{}

func (d *describer) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("Describe")}
}

func (d *describer) Describe(v int) string { return fmt.Sprintf("value %d", v) }

type plain struct{ rec *recorder }

func (p *plain) OnValue(v int) { p.rec.add("%d", v) }

// ============================================================================
// Helpers
// ============================================================================

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Close(context.Background()))
	})
	return s
}

func register[O any](t *testing.T, s *Service, owner *O) *Registration {
	t.Helper()
	reg, err := Register(context.Background(), s.Hook(), owner)
	require.NoError(t, err)
	return reg
}

// waitCollected forces collections until the cleanup registered on collected has run.
func waitCollected(t *testing.T, collected <-chan struct{}) {
	t.Helper()
	require.Eventually(t, func() bool {
		runtime.GC()
		select {
		case <-collected:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

// ============================================================================
// Tests
// ============================================================================

func TestService_PriorityOrder(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()))
	rec := &recorder{}
	owner := &prioritized{rec: rec}
	reg := register(t, s, owner)
	assert.Equal(t, 2, reg.Bindings())

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	assert.Equal(t, []string{"early 1", "late 1"}, rec.list())
	runtime.KeepAlive(owner)
}

func TestService_Filter(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()))
	rec := &recorder{}
	owner := &bigOnly{rec: rec}
	register(t, s, owner)

	for _, v := range []int{5, 11, 10, 42} {
		require.NoError(t, s.Publish(ctx, types.KeyOf[int](), v))
	}
	assert.Equal(t, []string{"11", "42"}, rec.list())
	runtime.KeepAlive(owner)
}

func TestService_TopicsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]("A"), types.KeyOf[int]("B"), types.KeyOf[int]()))
	rec := &recorder{}
	owner := &topicWatcher{rec: rec}
	register(t, s, owner)

	require.NoError(t, s.Publish(ctx, types.KeyOf[int]("A"), 1))
	require.NoError(t, s.Publish(ctx, types.KeyOf[int]("B"), 2))
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 3))
	assert.Equal(t, []string{"A 1", "B 2"}, rec.list())
	runtime.KeepAlive(owner)
}

func TestService_PublishRejected(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()))
	rec := &recorder{}
	owner := &prioritized{rec: rec}
	register(t, s, owner)

	tests := []struct {
		name    string
		key     types.ChannelKey
		event   any
		checkFn func(error) bool
	}{
		{name: "undeclared topic", key: types.KeyOf[int]("nope"), event: 1, checkFn: errors.IsChannelNotDeclaredError},
		{name: "undeclared type", key: types.KeyOf[string](), event: "x", checkFn: errors.IsChannelNotDeclaredError},
		{name: "wrong event type", key: types.KeyOf[int](), event: "x", checkFn: errors.IsInvalidInputError},
		{name: "nil value type", key: types.KeyOf[int](), event: nil, checkFn: errors.IsInvalidInputError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := s.Publish(ctx, test.key, test.event)
			require.Error(t, err)
			assert.True(t, test.checkFn(err), err.Error())
		})
	}
	assert.Empty(t, rec.list())
	runtime.KeepAlive(owner)
}

func TestService_PanickingConsumerIsIsolated(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	exceptions := mockeventbus.NewMockExceptionHandler(ctrl)
	exceptions.EXPECT().HandleException(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, f types.Failure) {
			assert.True(t, errors.IsConsumerPanicError(f.Err))
			assert.Equal(t, "*eventbus.faulty.Boom", f.Method)
			assert.Equal(t, 7, f.Event)
			assert.Equal(t, types.KeyOf[int](), f.Key)
		}).Times(1)

	s := newService(t, WithChannels(types.KeyOf[int]()), WithExceptionHandler(exceptions))
	rec := &recorder{}
	owner := &faulty{rec: rec}
	register(t, s, owner)

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 7))
	assert.Equal(t, []string{"after 7"}, rec.list())
	runtime.KeepAlive(owner)
}

func TestService_CollectedOwnerIsRemoved(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()))
	hits := &atomic.Int32{}

	collected := func() <-chan struct{} {
		owner := &ephemeral{hits: hits}
		register(t, s, owner)
		done := make(chan struct{})
		runtime.AddCleanup(owner, func(ch chan struct{}) { close(ch) }, done)
		require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
		return done
	}()
	assert.Equal(t, int32(1), hits.Load())

	waitCollected(t, collected)

	c, err := s.Channel(ctx, types.KeyOf[int]())
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 2))
	assert.Equal(t, int32(1), hits.Load())
}

func TestService_Unregister(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()))
	rec := &recorder{}
	owner := &prioritized{rec: rec}
	reg := register(t, s, owner)

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	reg.Unregister(ctx)
	reg.Unregister(ctx)
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 2))
	assert.Equal(t, []string{"early 1", "late 1"}, rec.list())

	c, err := s.Channel(ctx, types.KeyOf[int]())
	require.NoError(t, err)
	s.Cleanup(ctx)
	assert.Equal(t, 0, c.Len())
	runtime.KeepAlive(owner)
}

func TestRegistrationHook_BuffersUntilAttached(t *testing.T) {
	ctx := context.Background()
	hook := NewRegistrationHook()
	rec := &recorder{}

	first := &prioritized{rec: rec}
	second := &bigOnly{rec: rec}
	firstReg, err := Register(ctx, hook, first)
	require.NoError(t, err)
	secondReg, err := Register(ctx, hook, second)
	require.NoError(t, err)

	assert.Equal(t, 2, hook.Pending())
	assert.False(t, hook.Attached())
	assert.False(t, firstReg.Bound())

	s := newService(t, WithHook(hook), WithChannels(types.KeyOf[int]()))
	assert.Same(t, hook, s.Hook())
	assert.True(t, hook.Attached())
	assert.Zero(t, hook.Pending())
	assert.True(t, firstReg.Bound())
	assert.Equal(t, 2, firstReg.Bindings())
	assert.Equal(t, 1, secondReg.Bindings())

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 20))
	assert.Equal(t, []string{"early 20", "late 20", "20"}, rec.list())
	runtime.KeepAlive(first)
	runtime.KeepAlive(second)
}

func TestRegistrationHook_SkipsCollectedBufferedOwner(t *testing.T) {
	ctx := context.Background()
	hook := NewRegistrationHook()
	hits := &atomic.Int32{}

	reg, collected := func() (*Registration, <-chan struct{}) {
		owner := &ephemeral{hits: hits}
		reg, err := Register(ctx, hook, owner)
		require.NoError(t, err)
		done := make(chan struct{})
		runtime.AddCleanup(owner, func(ch chan struct{}) { close(ch) }, done)
		return reg, done
	}()
	waitCollected(t, collected)

	s := newService(t, WithHook(hook), WithChannels(types.KeyOf[int]()))
	assert.False(t, reg.Bound())

	c, err := s.Channel(ctx, types.KeyOf[int]())
	require.NoError(t, err)
	assert.Zero(t, c.Len())
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	assert.Zero(t, hits.Load())
}

func TestRegistrationHook_UnregisterWhileBuffered(t *testing.T) {
	ctx := context.Background()
	hook := NewRegistrationHook()
	rec := &recorder{}
	owner := &prioritized{rec: rec}
	reg, err := Register(ctx, hook, owner)
	require.NoError(t, err)
	reg.Unregister(ctx)

	s := newService(t, WithHook(hook), WithChannels(types.KeyOf[int]()))
	assert.False(t, reg.Bound())
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	assert.Empty(t, rec.list())
	runtime.KeepAlive(owner)
}

func TestRegistrationHook_AttachTwice(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	other := newService(t)

	assert.NoError(t, s.Hook().Attach(ctx, s))
	err := s.Hook().Attach(ctx, other)
	assert.True(t, errors.IsInvalidInputError(err))
	assert.True(t, errors.IsInvalidInputError(s.Hook().Attach(ctx, nil)))
}

func TestRegister_Edges(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()))

	_, err := Register[plain](ctx, nil, &plain{})
	assert.True(t, errors.IsInvalidInputError(err))

	_, err = Register[plain](ctx, s.Hook(), nil)
	assert.True(t, errors.IsInvalidInputError(err))

	rec := &recorder{}
	owner := &plain{rec: rec}
	reg := register(t, s, owner)
	assert.Zero(t, reg.Bindings())
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	assert.Empty(t, rec.list())
	runtime.KeepAlive(owner)
}

func TestRegisterWith(t *testing.T) {
	ctx := context.Background()
	keyA, keyB := types.KeyOf[int]("A"), types.KeyOf[int]("B")
	s := newService(t, WithChannels(keyA, keyB))
	recA, recB := &recorder{}, &recorder{}
	a, b := &plain{rec: recA}, &plain{rec: recB}

	regA, err := RegisterWith(ctx, s, a, types.Consumes("OnValue", types.WithTopic("A")))
	require.NoError(t, err)
	regB, err := RegisterWith(ctx, s, b, types.Consumes("OnValue", types.WithTopic("B")))
	require.NoError(t, err)
	assert.Equal(t, 1, regA.Bindings())
	assert.Equal(t, 1, regB.Bindings())

	require.NoError(t, s.Publish(ctx, keyA, 1))
	require.NoError(t, s.Publish(ctx, keyB, 2))
	assert.Equal(t, []string{"1"}, recA.list())
	assert.Equal(t, []string{"2"}, recB.list())

	regA.Unregister(ctx)
	require.NoError(t, s.Publish(ctx, keyA, 3))
	assert.Equal(t, []string{"1"}, recA.list())

	_, err = RegisterWith[plain](ctx, nil, a)
	assert.True(t, errors.IsInvalidInputError(err))
	_, err = RegisterWith[plain](ctx, s, nil)
	assert.True(t, errors.IsInvalidInputError(err))

	require.NoError(t, s.Close(ctx))
	_, err = RegisterWith(ctx, s, b, types.Consumes("OnValue", types.WithTopic("B")))
	assert.True(t, errors.IsNotReadyError(err))
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestService_ViolationsReported(t *testing.T) {
	var mu sync.Mutex
	var kinds []types.ViolationKind
	errorHandler := ErrorHandlerFunc(func(_ context.Context, v types.Violation) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, v.Kind)
	})
	s := newService(t, WithChannels(types.KeyOf[int]()), WithErrorHandler(errorHandler))

	owner := &broken{}
	reg := register(t, s, owner)
	assert.Zero(t, reg.Bindings())
	assert.True(t, reg.Bound())
	assert.ElementsMatch(t, []types.ViolationKind{types.MethodNotFound, types.FilterReturn}, kinds)
	runtime.KeepAlive(owner)
}

func TestService_DeclareLaterRevalidates(t *testing.T) {
	ctx := context.Background()
	var violations atomic.Int32
	s := newService(t, WithErrorHandler(ErrorHandlerFunc(func(_ context.Context, v types.Violation) {
		assert.Equal(t, types.ChannelNotRegistered, v.Kind)
		violations.Add(1)
	})))
	rec := &recorder{}

	early := &lateSubscriber{rec: rec}
	assert.Zero(t, register(t, s, early).Bindings())
	assert.Equal(t, int32(1), violations.Load())

	key, err := Declare[string](ctx, s, "late")
	require.NoError(t, err)
	assert.Equal(t, "string[late]", key.String())
	assert.True(t, s.IsDeclared(key))

	later := &lateSubscriber{rec: rec}
	assert.Equal(t, 1, register(t, s, later).Bindings())
	assert.Equal(t, int32(1), violations.Load())

	require.NoError(t, s.Publish(ctx, key, "hello"))
	assert.Equal(t, []string{"hello"}, rec.list())
	runtime.KeepAlive(early)
	runtime.KeepAlive(later)
}

func TestService_ReturnHandler(t *testing.T) {
	ctx := context.Background()
	var got []string
	s := newService(t,
		WithChannels(types.KeyOf[int]()),
		WithReturnHandler(func(_ context.Context, value string) error {
			got = append(got, value)
			return nil
		}),
	)
	owner := &describer{}
	register(t, s, owner)

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 3))
	assert.Equal(t, []string{"value 3"}, got)
	runtime.KeepAlive(owner)
}

func TestService_PooledPolicy(t *testing.T) {
	ctx := context.Background()
	s := newService(t,
		WithChannels(types.KeyOf[int]()),
		WithPooledPolicy("background", antspool.NewConfig(antspool.WithNumWorkers(2))),
	)
	exec, ok := s.Executor("background")
	require.True(t, ok)
	assert.IsType(t, &executor.Pooled{}, exec)

	owner := &background{got: make(chan int, 1)}
	assert.Equal(t, 1, register(t, s, owner).Bindings())

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 9))
	select {
	case v := <-owner.got:
		assert.Equal(t, 9, v)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not run on the pool")
	}
}

func TestService_SequentialPolicy(t *testing.T) {
	ctx := context.Background()
	s := newService(t, WithChannels(types.KeyOf[int]()), WithSequentialPolicy("ui", 0))
	rec := &recorder{}
	owner := &ordered{rec: rec}
	register(t, s, owner)

	want := make([]string, 0, 50)
	for i := range 50 {
		require.NoError(t, s.Publish(ctx, types.KeyOf[int](), i))
		want = append(want, fmt.Sprint(i))
	}
	assert.Eventually(t, func() bool { return len(rec.list()) == len(want) }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, want, rec.list())
	runtime.KeepAlive(owner)
}

func TestService_SequentialPolicyKeepsBurst(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	// Any rejected delivery would reach the exception handler.
	exceptions := mockeventbus.NewMockExceptionHandler(ctrl)
	s := newService(t, WithChannels(types.KeyOf[int]()), WithSequentialPolicy("ui", 0),
		WithExceptionHandler(exceptions))
	owner := &gated{gate: make(chan struct{})}
	register(t, s, owner)

	const published = 1100
	for i := range published {
		require.NoError(t, s.Publish(ctx, types.KeyOf[int](), i))
	}
	close(owner.gate)

	assert.Eventually(t, func() bool { return owner.delivered.Load() == published }, 5*time.Second,
		10*time.Millisecond)
	runtime.KeepAlive(owner)
}

func TestService_UnknownPolicyIsViolation(t *testing.T) {
	var kinds []types.ViolationKind
	s := newService(t, WithChannels(types.KeyOf[int]()),
		WithErrorHandler(ErrorHandlerFunc(func(_ context.Context, v types.Violation) {
			kinds = append(kinds, v.Kind)
		})))

	owner := &ordered{rec: &recorder{}}
	assert.Zero(t, register(t, s, owner).Bindings())
	assert.Equal(t, []types.ViolationKind{types.UnknownThreadPolicy}, kinds)
}

func TestNewService_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    []Option
		checkFn func(error) bool
	}{
		{
			name:    "empty policy",
			opts:    []Option{WithSequentialPolicy(types.PolicyNone, 1)},
			checkFn: errors.IsInvalidInputError,
		},
		{
			name:    "nil executor",
			opts:    []Option{WithExecutor("x", nil)},
			checkFn: errors.IsInvalidInputError,
		},
		{
			name:    "bad channel key",
			opts:    []Option{WithChannels(types.ChannelKey{})},
			checkFn: errors.IsInvalidInputError,
		},
		{
			name: "pool without workers",
			opts: []Option{
				WithPooledPolicy("bad", antspool.NewConfig(antspool.WithNumWorkers(0))),
			},
			checkFn: errors.IsInvalidInputError,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := NewService(ctx, test.opts...)
			assert.Nil(t, s)
			require.Error(t, err)
			assert.True(t, test.checkFn(err), err.Error())
		})
	}
}

func TestService_Close(t *testing.T) {
	ctx := context.Background()
	s, err := NewService(ctx, WithChannels(types.KeyOf[int]()), WithSequentialPolicy("ui", 4))
	require.NoError(t, err)
	exec, ok := s.Executor("ui")
	require.True(t, ok)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	assert.True(t, s.Closed())

	err = s.Publish(ctx, types.KeyOf[int](), 1)
	assert.True(t, errors.IsNotReadyError(err))

	_, err = Register(ctx, s.Hook(), &prioritized{rec: &recorder{}})
	assert.True(t, errors.IsNotReadyError(err))

	assert.True(t, errors.IsNotReadyError(exec.Execute(func() {})))
}

func TestService_ExternalExecutor(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	exec := mockeventbus.NewMockExecutor(ctrl)
	exec.EXPECT().Execute(gomock.Any()).DoAndReturn(func(task func()) error {
		task()
		return nil
	}).Times(1)

	s, err := NewService(ctx, WithChannels(types.KeyOf[int]()), WithExecutor("ui", exec))
	require.NoError(t, err)

	owner := &ordered{rec: &recorder{}}
	register(t, s, owner)
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	require.NoError(t, s.Close(ctx))
	assert.Equal(t, []string{"1"}, owner.rec.list())
}

func TestService_Metrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	s := newService(t, WithChannels(types.KeyOf[int]()), WithMetricsRegisterer(reg))
	assert.Same(t, reg, s.Gatherer())

	owner := &prioritized{rec: &recorder{}}
	register(t, s, owner)
	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))

	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64)
	for _, family := range families {
		for _, m := range family.GetMetric() {
			if m.GetCounter() != nil {
				values[family.GetName()] += m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, 1.0, values["guts_events_published_total"])
	assert.Equal(t, 2.0, values["guts_events_deliveries_total"])
	runtime.KeepAlive(owner)
}

func TestService_PrivateGatherer(t *testing.T) {
	s := newService(t)
	assert.NotNil(t, s.Gatherer())
	assert.Empty(t, s.Keys())
	assert.Empty(t, s.Channels())
}

func TestPublish_FailuresCarryEventsLayer(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	exceptions := mockeventbus.NewMockExceptionHandler(ctrl)
	exceptions.EXPECT().HandleException(gomock.Any(), gomock.Any()).Do(
		func(ctx context.Context, _ types.Failure) {
			assert.Equal(t, LogLayerEvents, ctx.Value(ContextKeyLogLayer))
		}).Times(2)

	s := newService(t, WithChannels(types.KeyOf[int]()), WithExceptionHandler(exceptions))
	owner := &faulty{rec: &recorder{}}
	register(t, s, owner)

	require.NoError(t, s.Publish(ctx, types.KeyOf[int](), 1))
	c, err := GetChannel[int](ctx, s)
	require.NoError(t, err)
	require.NoError(t, c.Publish(ctx, 2))
	runtime.KeepAlive(owner)
}

func TestTypedChannel(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	_, err := GetChannel[int](ctx, s, "A")
	assert.True(t, errors.IsChannelNotDeclaredError(err))

	_, err = Declare[int](ctx, s, "A")
	require.NoError(t, err)
	c, err := GetChannel[int](ctx, s, "A")
	require.NoError(t, err)
	assert.Equal(t, types.KeyOf[int]("A"), c.Key())

	rec := &recorder{}
	owner := &topicWatcher{rec: rec}
	register(t, s, owner)

	require.NoError(t, c.Publish(ctx, 5))
	assert.Equal(t, []string{"A 5"}, rec.list())
	require.Len(t, c.Subscribers(), 1)
	assert.Equal(t, "*eventbus.topicWatcher.OnA", c.Subscribers()[0].Method)

	require.NoError(t, s.Close(ctx))
	assert.True(t, errors.IsNotReadyError(c.Publish(ctx, 6)))
	runtime.KeepAlive(owner)
}
