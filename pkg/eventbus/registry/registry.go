// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package registry keeps the declared channel keys and creates one channel per key on first use.
package registry

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/channel"
	"github.com/netapp/guts/pkg/eventbus/types"
	"github.com/netapp/guts/utils/errors"
)

// Tracker receives every channel the registry creates.
type Tracker interface {
	Track(target types.Cleanable)
}

// holder creates its channel at most once.
type holder struct {
	once    sync.Once
	channel atomic.Pointer[channel.Channel]
}

type Registry struct {
	mu      sync.RWMutex
	holders map[types.ChannelKey]*holder

	tracker     Tracker
	channelOpts []channel.Option
}

type Option func(*Registry)

// WithTracker hands each created channel to tracker, normally the cleaner.
func WithTracker(tracker Tracker) Option {
	return func(r *Registry) {
		r.tracker = tracker
	}
}

// WithChannelOptions sets the options every created channel gets.
func WithChannelOptions(opts ...channel.Option) Option {
	return func(r *Registry) {
		r.channelOpts = append(r.channelOpts, opts...)
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{holders: make(map[types.ChannelKey]*holder)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DeclareChannel makes key usable. Declaring a key again is a no-op. It reports whether key was new.
func (r *Registry) DeclareChannel(ctx context.Context, key types.ChannelKey) (bool, error) {
	if key.EventType() == nil {
		return false, errors.InvalidInputError("channel key has no event type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.holders[key]; ok {
		return false, nil
	}
	r.holders[key] = &holder{}

	Logc(ctx).WithField("channel", key.String()).Debug("Declared event channel.")
	return true, nil
}

func (r *Registry) IsDeclared(key types.ChannelKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.holders[key]
	return ok
}

// Channel returns the channel of key, creating it on first use. Exactly one channel is ever created per key,
// whatever the number of concurrent callers.
func (r *Registry) Channel(ctx context.Context, key types.ChannelKey) (*channel.Channel, error) {
	r.mu.RLock()
	h, ok := r.holders[key]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ChannelNotDeclaredError(key.String())
	}

	h.once.Do(func() {
		c := channel.New(key, r.channelOpts...)
		if r.tracker != nil {
			r.tracker.Track(c)
		}
		h.channel.Store(c)
		Logc(ctx).WithField("channel", key.String()).Debug("Created event channel.")
	})
	return h.channel.Load(), nil
}

// Lookup returns the channel of key if it was already created.
func (r *Registry) Lookup(key types.ChannelKey) (*channel.Channel, bool) {
	r.mu.RLock()
	h, ok := r.holders[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	c := h.channel.Load()
	return c, c != nil
}

// Keys returns the declared keys sorted by their string form.
func (r *Registry) Keys() []types.ChannelKey {
	r.mu.RLock()
	keys := make([]types.ChannelKey, 0, len(r.holders))
	for key := range r.holders {
		keys = append(keys, key)
	}
	r.mu.RUnlock()

	slices.SortFunc(keys, func(a, b types.ChannelKey) int {
		return strings.Compare(a.String(), b.String())
	})
	return keys
}

// Channels returns the channels created so far, in key order.
func (r *Registry) Channels() []*channel.Channel {
	keys := r.Keys()
	channels := make([]*channel.Channel, 0, len(keys))
	for _, key := range keys {
		if c, ok := r.Lookup(key); ok {
			channels = append(channels, c)
		}
	}
	return channels
}
