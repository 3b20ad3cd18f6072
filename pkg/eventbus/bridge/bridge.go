// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package bridge connects event channels to message brokers. An Outbound forwards the events of a channel to a
// message.Publisher and an Inbound publishes the messages of a message.Subscriber topic on a channel. Any
// Watermill transport (in-memory Go channels, NATS, Kafka, AMQP, HTTP) can sit on the other side.
package bridge

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/oklog/ulid/v2"

	"github.com/netapp/guts/pkg/eventbus/types"
)

const (
	// MetadataChannel carries the key of the channel an event was published on.
	MetadataChannel = "guts_channel"

	// MetadataEventType carries the Go type of the event.
	MetadataEventType = "guts_event_type"
)

// Codec turns events into message payloads and back. sonic.API implements it.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var defaultCodec Codec = sonic.ConfigStd

type options struct {
	topic  string
	codec  Codec
	policy types.ThreadPolicy
}

type Option func(*options)

// WithTopic selects the channel topic. The default topic is used otherwise.
func WithTopic(topic string) Option {
	return func(o *options) {
		o.topic = topic
	}
}

// WithCodec replaces the JSON codec.
func WithCodec(codec Codec) Option {
	return func(o *options) {
		if codec != nil {
			o.codec = codec
		}
	}
}

// InPolicy runs the forwarding consumer of an Outbound under policy, off the publishing goroutine.
func InPolicy(policy types.ThreadPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

func newOptions(opts []Option) options {
	o := options{codec: defaultCodec}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newMessageID returns a time-sortable ULID, monotonic within a millisecond.
func newMessageID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
