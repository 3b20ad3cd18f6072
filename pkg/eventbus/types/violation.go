// Copyright 2025 NetApp, Inc. All Rights Reserved.

package types

import (
	"fmt"
	"reflect"
	"strings"
)

// ViolationKind classifies a rejected subscriber method.
type ViolationKind int

const (
	ConsumerArity ViolationKind = iota + 1
	ConsumerReturn
	ChannelNotRegistered
	MultipleThreadPolicies
	FilterArity
	FilterReturn
	TypeNotSupertype
	UnknownThreadPolicy
	MethodNotFound
	ReceiverMismatch
)

var violationNames = map[ViolationKind]string{
	ConsumerArity:          "consumer_arity",
	ConsumerReturn:         "consumer_return",
	ChannelNotRegistered:   "channel_not_registered",
	MultipleThreadPolicies: "multiple_thread_policies",
	FilterArity:            "filter_arity",
	FilterReturn:           "filter_return",
	TypeNotSupertype:       "type_not_supertype",
	UnknownThreadPolicy:    "unknown_thread_policy",
	MethodNotFound:         "method_not_found",
	ReceiverMismatch:       "receiver_mismatch",
}

func (k ViolationKind) String() string {
	if name, ok := violationNames[k]; ok {
		return name
	}
	return fmt.Sprintf("violation(%d)", int(k))
}

// Violation is reported to the ErrorHandler for each subscriber method that could not be registered.
type Violation struct {
	Kind      ViolationKind
	OwnerType reflect.Type
	Method    string
	// Filter is set when the offending method is a filter.
	Filter bool
	// Key is the channel the method resolved to, when it got that far.
	Key      ChannelKey
	Policies []ThreadPolicy
}

func (v Violation) role() string {
	if v.Filter {
		return "filter"
	}
	return "consumer"
}

// Identity returns the owner-qualified method name.
func (v Violation) Identity() string {
	if v.OwnerType == nil {
		return v.Method
	}
	return v.OwnerType.String() + "." + v.Method
}

func (v Violation) Error() string {
	switch v.Kind {
	case ConsumerArity, FilterArity:
		return fmt.Sprintf("%s %s must have exactly one event argument", v.role(), v.Identity())
	case ConsumerReturn:
		return fmt.Sprintf("consumer %s must return at most one value", v.Identity())
	case FilterReturn:
		return fmt.Sprintf("filter %s must return bool", v.Identity())
	case ChannelNotRegistered:
		return fmt.Sprintf("%s %s matches no declared channel (type = %v, topic = '%s')",
			v.role(), v.Identity(), v.Key.EventType(), v.Key.Topic())
	case MultipleThreadPolicies:
		return fmt.Sprintf("consumer %s can have at most one thread policy, got %s",
			v.Identity(), joinPolicies(v.Policies))
	case UnknownThreadPolicy:
		return fmt.Sprintf("consumer %s uses thread policy %s which has no executor",
			v.Identity(), joinPolicies(v.Policies))
	case TypeNotSupertype:
		return fmt.Sprintf("%s %s declares event type %v which is not a supertype of its argument",
			v.role(), v.Identity(), v.Key.EventType())
	case MethodNotFound:
		return fmt.Sprintf("%s %s is not a method or function", v.role(), v.Identity())
	case ReceiverMismatch:
		return fmt.Sprintf("%s %s does not accept its owner as first argument", v.role(), v.Identity())
	default:
		return fmt.Sprintf("%s %s rejected: %v", v.role(), v.Identity(), v.Kind)
	}
}

func joinPolicies(policies []ThreadPolicy) string {
	names := make([]string, 0, len(policies))
	for _, p := range policies {
		names = append(names, string(p))
	}
	return "[" + strings.Join(names, ", ") + "]"
}
