// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package types defines the keys, contracts and descriptors shared by the event channel packages.
package types

//go:generate mockgen -destination=../../../mocks/mock_pkg/mock_eventbus/mock_types/mock_types.go -package=mock_types github.com/netapp/guts/pkg/eventbus/types Cleanable,CleanupScheduler,ErrorHandler,ExceptionHandler,Executor,ReturnHandler

import (
	"context"
	"fmt"
	"reflect"
)

// =============================================================================
// Channel keys
// =============================================================================

// ChannelKey identifies a channel by event type and topic. The empty topic is the default topic, so an absent
// topic and an empty one name the same channel. ChannelKey is comparable and used directly as a map key.
type ChannelKey struct {
	eventType reflect.Type
	topic     string
}

// NewChannelKey returns the key for eventType on topic.
func NewChannelKey(eventType reflect.Type, topic string) ChannelKey {
	return ChannelKey{eventType: eventType, topic: topic}
}

// KeyOf returns the key for events of type T. The first topic, if any, qualifies the channel.
func KeyOf[T any](topic ...string) ChannelKey {
	key := ChannelKey{eventType: reflect.TypeFor[T]()}
	if len(topic) > 0 {
		key.topic = topic[0]
	}
	return key
}

func (k ChannelKey) EventType() reflect.Type { return k.eventType }

func (k ChannelKey) Topic() string { return k.topic }

func (k ChannelKey) String() string {
	typeName := "<nil>"
	if k.eventType != nil {
		typeName = k.eventType.String()
	}
	if k.topic == "" {
		return typeName
	}
	return fmt.Sprintf("%s[%s]", typeName, k.topic)
}

// Accepts reports whether event may be published on the channel named by k.
func (k ChannelKey) Accepts(event any) bool {
	return Assignable(event, k.eventType)
}

// Assignable reports whether event can be passed where a value of type t is expected. A nil event is assignable
// to any type that has nil as a value.
func Assignable(event any, t reflect.Type) bool {
	if t == nil {
		return false
	}
	if event == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return true
		default:
			return false
		}
	}
	return reflect.TypeOf(event).AssignableTo(t)
}

// =============================================================================
// Thread policies and executors
// =============================================================================

// ThreadPolicy selects the executor a consumer is invoked on. The empty policy runs consumers in the
// publishing goroutine.
type ThreadPolicy string

const PolicyNone ThreadPolicy = ""

// Executor runs dispatch tasks. Implementations must be comparable (pointer receivers) since channels group
// bindings by executor.
type Executor interface {
	Execute(task func()) error
}

// =============================================================================
// Sinks
// =============================================================================

// ErrorHandler receives every subscriber method rejected during registration.
type ErrorHandler interface {
	HandleViolation(ctx context.Context, violation Violation)
}

// Failure describes one failed consumer or filter invocation.
type Failure struct {
	Err    error
	Method string
	Owner  any
	Event  any
	Key    ChannelKey
}

// ExceptionHandler receives every failed consumer or filter invocation. Other consumers still run.
type ExceptionHandler interface {
	HandleException(ctx context.Context, failure Failure)
}

// ReturnHandler receives values returned by consumers whose result type it was registered for.
type ReturnHandler interface {
	HandleReturn(ctx context.Context, value any) error
}

// =============================================================================
// Cleanup
// =============================================================================

// Cleanable is something the cleaner can sweep. Cleanup must be idempotent.
type Cleanable interface {
	Cleanup(ctx context.Context)
}

// CleanupScheduler accepts cleanables needing prompt attention. Enqueue must not block.
type CleanupScheduler interface {
	Enqueue(c Cleanable)
}

// =============================================================================
// Subscribers
// =============================================================================

// Subscriber is implemented by types owning consumer or filter methods. EventMethods is read once per type, so
// owners whose specs vary per instance register with eventbus.RegisterWith instead.
type Subscriber interface {
	EventMethods() []MethodSpec
}
