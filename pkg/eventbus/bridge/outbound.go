// Copyright 2025 NetApp, Inc. All Rights Reserved.

package bridge

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill/message"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

// Outbound is a subscriber of the channel of T that forwards every event to a message publisher. The service
// holds it weakly, so the caller keeps it reachable until Close.
type Outbound[T any] struct {
	publisher message.Publisher
	target    string
	key       types.ChannelKey
	codec     Codec
	policy    types.ThreadPolicy

	registration *eventbus.Registration
	forwarded    atomic.Int64
}

// NewOutbound subscribes to the declared channel of T and forwards its events to target on publisher.
// Forwarding failures go to the service's exception handler.
func NewOutbound[T any](
	ctx context.Context, s *eventbus.Service, publisher message.Publisher, target string, opts ...Option,
) (*Outbound[T], error) {
	if s == nil || publisher == nil {
		return nil, errors.InvalidInputError("outbound bridge needs a service and a publisher")
	}
	if target == "" {
		return nil, errors.InvalidInputError("outbound bridge needs a target topic")
	}

	o := newOptions(opts)
	out := &Outbound[T]{
		publisher: publisher,
		target:    target,
		key:       types.KeyOf[T](o.topic),
		codec:     o.codec,
		policy:    o.policy,
	}
	if !s.IsDeclared(out.key) {
		return nil, errors.ChannelNotDeclaredError(out.key.String())
	}

	ctx = GenerateRequestContext(ctx, "", ContextSourceInternal, WorkflowBridgeForward, LogLayerBridge)
	registration, err := eventbus.RegisterWith(ctx, s, out, out.forwardSpec())
	if err != nil {
		return nil, err
	}
	if registration.Bindings() == 0 {
		registration.Unregister(ctx)
		return nil, fmt.Errorf("could not subscribe to channel %s", out.key)
	}
	out.registration = registration

	Logc(ctx).WithFields(LogFields{
		"channel": out.key.String(),
		"target":  target,
	}).Debug("Forwarding channel to message publisher.")
	return out, nil
}

func (o *Outbound[T]) forwardSpec() types.MethodSpec {
	opts := []types.MethodOption{types.WithTopic(o.key.Topic())}
	if o.policy != types.PolicyNone {
		opts = append(opts, types.InPolicy(o.policy))
	}
	return types.Consumes("Forward", opts...)
}

// Forward encodes event and publishes it on the target topic.
func (o *Outbound[T]) Forward(event T) error {
	payload, err := o.codec.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not encode %T; %w", event, err)
	}

	msg := message.NewMessage(newMessageID(), payload)
	msg.Metadata.Set(MetadataChannel, o.key.String())
	msg.Metadata.Set(MetadataEventType, fmt.Sprintf("%T", event))
	if err = o.publisher.Publish(o.target, msg); err != nil {
		return fmt.Errorf("could not publish to %s; %w", o.target, err)
	}
	o.forwarded.Add(1)
	return nil
}

// Forwarded returns the number of events published so far.
func (o *Outbound[T]) Forwarded() int64 { return o.forwarded.Load() }

// Close stops forwarding. The publisher stays open.
func (o *Outbound[T]) Close(ctx context.Context) {
	o.registration.Unregister(ctx)
}
