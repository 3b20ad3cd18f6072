// Copyright 2025 NetApp, Inc. All Rights Reserved.

package types

import (
	"reflect"
)

// MethodKind tells consumers from filters.
type MethodKind int

const (
	KindConsumer MethodKind = iota
	KindFilter
)

func (k MethodKind) String() string {
	if k == KindFilter {
		return "filter"
	}
	return "consumer"
}

// MethodSpec declares one consumer or filter of a subscriber type.
//
// The method is either looked up by Name on the owner type, or given as Func, a function whose first argument
// is the owner and whose second argument is the event. In both cases the event type is the type of that
// argument unless EventType overrides it with a supertype (an interface the argument type implements, or the
// argument type itself).
type MethodSpec struct {
	Kind MethodKind
	Name string
	Func any

	Topic     string
	EventType reflect.Type
	Priority  int
	Policies  []ThreadPolicy
	// FilterID pairs consumers with filters. The empty ID pairs with the empty ID.
	FilterID string
}

// MethodOption is a functional option for a MethodSpec.
type MethodOption func(*MethodSpec)

// Consumes declares the method called name as a consumer.
//
// Example:
//
//	func (p *Panel) EventMethods() []types.MethodSpec {
//	    return []types.MethodSpec{
//	        types.Consumes("OnOrder", types.WithTopic("orders"), types.WithPriority(-5)),
//	        types.Filters("BigOrder", types.WithTopic("orders")),
//	    }
//	}
func Consumes(name string, opts ...MethodOption) MethodSpec {
	return newSpec(KindConsumer, name, nil, opts)
}

// ConsumesFunc declares fn, of shape func(owner, event) or func(owner, event) R, as a consumer.
func ConsumesFunc(name string, fn any, opts ...MethodOption) MethodSpec {
	return newSpec(KindConsumer, name, fn, opts)
}

// Filters declares the method called name as a filter.
func Filters(name string, opts ...MethodOption) MethodSpec {
	return newSpec(KindFilter, name, nil, opts)
}

// FiltersFunc declares fn, of shape func(owner, event) bool, as a filter.
func FiltersFunc(name string, fn any, opts ...MethodOption) MethodSpec {
	return newSpec(KindFilter, name, fn, opts)
}

func newSpec(kind MethodKind, name string, fn any, opts []MethodOption) MethodSpec {
	spec := MethodSpec{Kind: kind, Name: name, Func: fn}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

func WithTopic(topic string) MethodOption {
	return func(s *MethodSpec) {
		s.Topic = topic
	}
}

// WithPriority orders consumers on a channel. Lower runs first, default is 0.
func WithPriority(priority int) MethodOption {
	return func(s *MethodSpec) {
		s.Priority = priority
	}
}

// InPolicy dispatches the consumer on the executor registered for policy.
func InPolicy(policy ThreadPolicy) MethodOption {
	return func(s *MethodSpec) {
		s.Policies = append(s.Policies, policy)
	}
}

// AsType subscribes to the channel of T instead of the argument's own type.
func AsType[T any]() MethodOption {
	return func(s *MethodSpec) {
		s.EventType = reflect.TypeFor[T]()
	}
}

func WithFilterID(id string) MethodOption {
	return func(s *MethodSpec) {
		s.FilterID = id
	}
}
