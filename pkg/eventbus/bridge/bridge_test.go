// Copyright 2025 NetApp, Inc. All Rights Reserved.

package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

const ordersTopic = "orders"

func TestMain(m *testing.M) {
	// Disable any standard log output
	InitLogOutput(io.Discard)
	os.Exit(m.Run())
}

type order struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

type orderRecorder struct {
	mu  sync.Mutex
	got []order
}

func (r *orderRecorder) EventMethods() []types.MethodSpec {
	return []types.MethodSpec{types.Consumes("OnOrder", types.WithTopic(ordersTopic))}
}

func (r *orderRecorder) OnOrder(o order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, o)
}

func (r *orderRecorder) orders() []order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]order(nil), r.got...)
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return fmt.Errorf("broker down") }

func (failingPublisher) Close() error { return nil }

type brokenCodec struct{}

func (brokenCodec) Marshal(any) ([]byte, error) { return nil, fmt.Errorf("cannot encode") }

func (brokenCodec) Unmarshal([]byte, any) error { return fmt.Errorf("cannot decode") }

func newService(t *testing.T, opts ...eventbus.Option) *eventbus.Service {
	t.Helper()
	opts = append([]eventbus.Option{eventbus.WithChannels(types.KeyOf[order](ordersTopic))}, opts...)
	s, err := eventbus.NewService(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, NewLoggerAdapter(context.Background()))
	t.Cleanup(func() { _ = pubSub.Close() })
	return pubSub
}

func publishOrders(t *testing.T, s *eventbus.Service, orders ...order) {
	t.Helper()
	channel, err := eventbus.GetChannel[order](context.Background(), s, ordersTopic)
	require.NoError(t, err)
	for _, o := range orders {
		require.NoError(t, channel.Publish(context.Background(), o))
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	pubSub := newPubSub(t)
	source, sink := newService(t), newService(t)

	recorder := &orderRecorder{}
	_, err := eventbus.Register(ctx, sink.Hook(), recorder)
	require.NoError(t, err)

	in, err := NewInbound[order](ctx, sink, pubSub, "orders.v1", WithTopic(ordersTopic))
	require.NoError(t, err)
	defer in.Close()

	out, err := NewOutbound[order](ctx, source, pubSub, "orders.v1", WithTopic(ordersTopic))
	require.NoError(t, err)
	defer out.Close(ctx)

	sent := []order{{ID: "a", Qty: 1}, {ID: "b", Qty: 2}, {ID: "c", Qty: 3}}
	publishOrders(t, source, sent...)
	assert.Equal(t, int64(3), out.Forwarded())

	require.Eventually(t, func() bool { return len(recorder.orders()) == len(sent) }, 5*time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, sent, recorder.orders())
	assert.Equal(t, int64(3), in.Received())
	assert.Zero(t, in.Rejected())
}

func TestOutbound_Message(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pubSub := newPubSub(t)
	s := newService(t)

	messages, err := pubSub.Subscribe(ctx, "raw")
	require.NoError(t, err)
	out, err := NewOutbound[order](ctx, s, pubSub, "raw", WithTopic(ordersTopic))
	require.NoError(t, err)
	defer out.Close(ctx)

	publishOrders(t, s, order{ID: "a", Qty: 7})

	select {
	case msg := <-messages:
		msg.Ack()
		_, err = ulid.Parse(msg.UUID)
		assert.NoError(t, err)
		assert.Equal(t, types.KeyOf[order](ordersTopic).String(), msg.Metadata.Get(MetadataChannel))
		assert.Equal(t, "bridge.order", msg.Metadata.Get(MetadataEventType))

		var got order
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, order{ID: "a", Qty: 7}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no message was published")
	}
}

func TestOutbound_Failures(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		publisher message.Publisher
		opts      []Option
		errText   string
	}{
		{name: "publisher fails", publisher: failingPublisher{}, errText: "broker down"},
		{name: "codec fails", publisher: newPubSub(t), opts: []Option{WithCodec(brokenCodec{})}, errText: "cannot encode"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var failures []types.Failure
			s := newService(t, eventbus.WithExceptionHandler(eventbus.ExceptionHandlerFunc(
				func(_ context.Context, f types.Failure) { failures = append(failures, f) })))

			opts := append([]Option{WithTopic(ordersTopic)}, test.opts...)
			out, err := NewOutbound[order](ctx, s, test.publisher, "orders.v1", opts...)
			require.NoError(t, err)
			defer out.Close(ctx)

			publishOrders(t, s, order{ID: "a"})
			require.Len(t, failures, 1)
			assert.ErrorContains(t, failures[0].Err, test.errText)
			assert.Zero(t, out.Forwarded())
		})
	}
}

func TestOutbound_Close(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	out, err := NewOutbound[order](ctx, s, newPubSub(t), "orders.v1", WithTopic(ordersTopic))
	require.NoError(t, err)

	publishOrders(t, s, order{ID: "a"})
	out.Close(ctx)
	out.Close(ctx)
	publishOrders(t, s, order{ID: "b"})
	assert.Equal(t, int64(1), out.Forwarded())
}

func TestOutbound_InPolicy(t *testing.T) {
	ctx := context.Background()
	s := newService(t, eventbus.WithSequentialPolicy("bridge", 16))
	out, err := NewOutbound[order](ctx, s, newPubSub(t), "orders.v1", WithTopic(ordersTopic), InPolicy("bridge"))
	require.NoError(t, err)
	defer out.Close(ctx)

	publishOrders(t, s, order{ID: "a"}, order{ID: "b"})
	assert.Eventually(t, func() bool { return out.Forwarded() == 2 }, 5*time.Second, 5*time.Millisecond)
}

func TestNewOutbound_Invalid(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	pubSub := newPubSub(t)

	tests := []struct {
		name      string
		service   *eventbus.Service
		publisher message.Publisher
		target    string
		opts      []Option
		check     func(error) bool
	}{
		{"no service", nil, pubSub, "t", nil, errors.IsInvalidInputError},
		{"no publisher", s, nil, "t", nil, errors.IsInvalidInputError},
		{"no target", s, pubSub, "", nil, errors.IsInvalidInputError},
		{"undeclared channel", s, pubSub, "t", []Option{WithTopic("other")}, errors.IsChannelNotDeclaredError},
		{
			"unknown policy", s, pubSub, "t", []Option{WithTopic(ordersTopic), InPolicy("missing")},
			func(err error) bool { return err != nil },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewOutbound[order](ctx, test.service, test.publisher, test.target, test.opts...)
			assert.True(t, test.check(err), err)
		})
	}
}

func TestNewInbound_Invalid(t *testing.T) {
	ctx := context.Background()
	s := newService(t)
	pubSub := newPubSub(t)

	tests := []struct {
		name       string
		service    *eventbus.Service
		subscriber message.Subscriber
		source     string
		opts       []Option
		check      func(error) bool
	}{
		{"no service", nil, pubSub, "t", nil, errors.IsInvalidInputError},
		{"no subscriber", s, nil, "t", nil, errors.IsInvalidInputError},
		{"no source", s, pubSub, "", nil, errors.IsInvalidInputError},
		{"undeclared channel", s, pubSub, "t", []Option{WithTopic("other")}, errors.IsChannelNotDeclaredError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewInbound[order](ctx, test.service, test.subscriber, test.source, test.opts...)
			assert.True(t, test.check(err), err)
		})
	}
}

func TestInbound_Rejects(t *testing.T) {
	ctx := context.Background()
	pubSub := newPubSub(t)
	s := newService(t)

	in, err := NewInbound[order](ctx, s, pubSub, "orders.v1", WithTopic(ordersTopic))
	require.NoError(t, err)
	defer in.Close()

	require.NoError(t, pubSub.Publish("orders.v1", message.NewMessage(newMessageID(), []byte("not json"))))
	require.Eventually(t, func() bool { return in.Rejected() == 1 }, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, s.Close(ctx))
	require.NoError(t, pubSub.Publish("orders.v1", message.NewMessage(newMessageID(), []byte(`{"id":"a"}`))))
	require.Eventually(t, func() bool { return in.Rejected() == 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Zero(t, in.Received())
}

func TestInbound_Close(t *testing.T) {
	ctx := context.Background()
	pubSub := newPubSub(t)
	s := newService(t)

	in, err := NewInbound[order](ctx, s, pubSub, "orders.v1", WithTopic(ordersTopic))
	require.NoError(t, err)
	in.Close()
	in.Close()

	require.NoError(t, pubSub.Publish("orders.v1", message.NewMessage(newMessageID(), []byte(`{"id":"a"}`))))
	assert.Never(t, func() bool { return in.Received() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestNewMessageID_Sorted(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = newMessageID()
	}
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
}

func TestLoggerAdapter(t *testing.T) {
	var buf bytes.Buffer
	InitLogOutput(&buf)
	defer InitLogOutput(io.Discard)

	logger := NewLoggerAdapter(context.Background()).With(watermill.LogFields{"topic": "orders"})
	logger.Error("Publish failed.", fmt.Errorf("boom"), watermill.LogFields{"attempt": 2})
	logger.Info("Subscribed.", nil)

	out := buf.String()
	assert.Contains(t, out, "Publish failed.")
	assert.Contains(t, out, "topic=orders")
	assert.Contains(t, out, "attempt=2")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "Subscribed.")
	assert.Contains(t, out, "logLayer=bridge")
}
