// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eventbus

import (
	"context"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/channel"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

// Channel is a handle on the channel of events of type T. Its Publish needs no type check.
type Channel[T any] struct {
	service *Service
	channel *channel.Channel
}

// Declare declares the channel of T on the first topic given, or on the default topic.
func Declare[T any](ctx context.Context, s *Service, topic ...string) (types.ChannelKey, error) {
	key := types.KeyOf[T](topic...)
	return key, s.DeclareChannel(ctx, key)
}

// GetChannel returns a handle on the declared channel of T.
func GetChannel[T any](ctx context.Context, s *Service, topic ...string) (*Channel[T], error) {
	c, err := s.Channel(ctx, types.KeyOf[T](topic...))
	if err != nil {
		return nil, err
	}
	return &Channel[T]{service: s, channel: c}, nil
}

func (c *Channel[T]) Key() types.ChannelKey { return c.channel.Key() }

// Publish delivers event to the channel's subscribers.
func (c *Channel[T]) Publish(ctx context.Context, event T) error {
	if c.service.Closed() {
		return errors.NotReadyError("event service is closed")
	}
	c.channel.Publish(GenerateRequestContextForLayer(ctx, LogLayerEvents), event)
	return nil
}

// Subscribers lists the bindings of the channel in dispatch order.
func (c *Channel[T]) Subscribers() []channel.BindingInfo {
	return c.channel.Snapshot()
}
