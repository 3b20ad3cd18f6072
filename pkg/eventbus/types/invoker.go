// Copyright 2025 NetApp, Inc. All Rights Reserved.

package types

import (
	"reflect"

	"github.com/netapp/guts/utils/errors"
)

var (
	errorType = reflect.TypeFor[error]()
	boolType  = reflect.TypeFor[bool]()
)

// Invoker calls a validated consumer or filter function of shape func(owner, event) [R].
type Invoker struct {
	name   string
	fn     reflect.Value
	param  reflect.Type
	result reflect.Type
}

// NewInvoker wraps fn, which must already have been checked to take (owner, event) and return at most one value.
func NewInvoker(name string, fn reflect.Value) *Invoker {
	fnType := fn.Type()
	inv := &Invoker{name: name, fn: fn, param: fnType.In(1)}
	if fnType.NumOut() == 1 {
		inv.result = fnType.Out(0)
	}
	return inv
}

// Name is the owner-qualified method identity used in logs and sink reports.
func (i *Invoker) Name() string { return i.name }

// Param is the declared event argument type.
func (i *Invoker) Param() reflect.Type { return i.param }

// Result is the declared result type, or nil.
func (i *Invoker) Result() reflect.Type { return i.result }

// Accepts reports whether event's dynamic type fits the event argument.
func (i *Invoker) Accepts(event any) bool {
	return Assignable(event, i.param)
}

// Call invokes the function. A panic is recovered into a ConsumerPanicError and a returned non-nil error is
// passed through as err. Any other result is returned as a valid Value.
func (i *Invoker) Call(owner, event any) (result reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = reflect.Value{}
			err = errors.ConsumerPanicError(i.name, r)
		}
	}()

	eventValue := reflect.Zero(i.param)
	if event != nil {
		eventValue = reflect.ValueOf(event)
	}

	out := i.fn.Call([]reflect.Value{reflect.ValueOf(owner), eventValue})
	if len(out) == 0 {
		return reflect.Value{}, nil
	}
	if i.result == errorType {
		if e, _ := out[0].Interface().(error); e != nil {
			return reflect.Value{}, e
		}
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// CallFilter invokes a filter. A failed filter excludes the event.
func (i *Invoker) CallFilter(owner, event any) (bool, error) {
	result, err := i.Call(owner, event)
	if err != nil {
		return false, err
	}
	if !result.IsValid() || result.Type() != boolType {
		return false, errors.TypeAssertionError(i.name + " result.(bool)")
	}
	return result.Bool(), nil
}

// Subscription is one validated (consumer, optional filter) pairing produced for a subscriber type.
type Subscription struct {
	Key      ChannelKey
	Consumer *Invoker
	Filter   *Invoker
	Priority int
	Policy   ThreadPolicy
	Executor Executor
}
