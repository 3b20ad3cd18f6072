// Copyright 2025 NetApp, Inc. All Rights Reserved.

package bridge

import (
	"context"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus"
	"github.com/netapp/guts/utils/errors"
)

// Inbound publishes the messages of a subscriber topic on the channel of T. Every message is acked, including
// the ones that cannot be decoded or published, so a bad message is never redelivered.
type Inbound[T any] struct {
	channel *eventbus.Channel[T]
	source  string
	codec   Codec

	cancel context.CancelFunc
	done   chan struct{}

	received atomic.Int64
	rejected atomic.Int64
}

// NewInbound subscribes to source and starts publishing its messages on the declared channel of T.
func NewInbound[T any](
	ctx context.Context, s *eventbus.Service, subscriber message.Subscriber, source string, opts ...Option,
) (*Inbound[T], error) {
	if s == nil || subscriber == nil {
		return nil, errors.InvalidInputError("inbound bridge needs a service and a subscriber")
	}
	if source == "" {
		return nil, errors.InvalidInputError("inbound bridge needs a source topic")
	}

	o := newOptions(opts)
	channel, err := eventbus.GetChannel[T](ctx, s, o.topic)
	if err != nil {
		return nil, err
	}

	ctx = GenerateRequestContext(context.WithoutCancel(ctx), "", ContextSourceInternal, WorkflowBridgeReceive,
		LogLayerBridge)
	runCtx, cancel := context.WithCancel(ctx)
	messages, err := subscriber.Subscribe(runCtx, source)
	if err != nil {
		cancel()
		return nil, err
	}

	in := &Inbound[T]{
		channel: channel,
		source:  source,
		codec:   o.codec,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go in.run(runCtx, messages)

	Logc(ctx).WithFields(LogFields{
		"channel": channel.Key().String(),
		"source":  source,
	}).Debug("Receiving messages into channel.")
	return in, nil
}

func (in *Inbound[T]) run(ctx context.Context, messages <-chan *message.Message) {
	defer close(in.done)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			in.handle(ctx, msg)
		}
	}
}

func (in *Inbound[T]) handle(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	fields := LogFields{"source": in.source, "messageID": msg.UUID}
	var event T
	if err := in.codec.Unmarshal(msg.Payload, &event); err != nil {
		in.rejected.Add(1)
		Logc(ctx).WithFields(fields).WithError(err).Warn("Could not decode message.")
		return
	}
	if err := in.channel.Publish(ctx, event); err != nil {
		in.rejected.Add(1)
		Logc(ctx).WithFields(fields).WithError(err).Warn("Could not publish message.")
		return
	}
	in.received.Add(1)
}

// Received returns the number of messages published on the channel.
func (in *Inbound[T]) Received() int64 { return in.received.Load() }

// Rejected returns the number of messages dropped.
func (in *Inbound[T]) Rejected() int64 { return in.rejected.Load() }

// Close stops receiving and waits for the message in flight. The subscriber stays open.
func (in *Inbound[T]) Close() {
	in.cancel()
	<-in.done
}
