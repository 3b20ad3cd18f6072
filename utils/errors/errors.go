// Copyright 2025 NetApp, Inc. All Rights Reserved.

package errors

import (
	"errors"
	"fmt"
)

// ///////////////////////////////////////////////////////////////////////////
// Wrappers for standard library errors package
// ///////////////////////////////////////////////////////////////////////////

func New(message string) error {
	return errors.New(message)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

// ///////////////////////////////////////////////////////////////////////////
// channelNotDeclaredError
// ///////////////////////////////////////////////////////////////////////////

type channelNotDeclaredError struct {
	message string
}

func (e *channelNotDeclaredError) Error() string { return e.message }

// ChannelNotDeclaredError is returned when a channel is looked up or published to before it was declared.
func ChannelNotDeclaredError(channel string) error {
	return &channelNotDeclaredError{
		message: fmt.Sprintf("channel %s was not declared", channel),
	}
}

func IsChannelNotDeclaredError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *channelNotDeclaredError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// consumerPanicError
// ///////////////////////////////////////////////////////////////////////////

type consumerPanicError struct {
	method    string
	recovered any
}

func (e *consumerPanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.method, e.recovered)
}

// Unwrap exposes the recovered value when the panic was raised with an error.
func (e *consumerPanicError) Unwrap() error {
	if err, ok := e.recovered.(error); ok {
		return err
	}
	return nil
}

// Recovered returns the value passed to panic.
func (e *consumerPanicError) Recovered() any { return e.recovered }

func ConsumerPanicError(method string, recovered any) error {
	return &consumerPanicError{method: method, recovered: recovered}
}

func IsConsumerPanicError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *consumerPanicError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// executorRejectedError
// ///////////////////////////////////////////////////////////////////////////

type executorRejectedError struct {
	inner   error
	message string
}

func (e *executorRejectedError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *executorRejectedError) Unwrap() error { return e.inner }

func ExecutorRejectedError(err error, message string, a ...any) error {
	return &executorRejectedError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsExecutorRejectedError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *executorRejectedError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// invalidInputError
// ///////////////////////////////////////////////////////////////////////////

type invalidInputError struct {
	message string
}

func (e *invalidInputError) Error() string { return e.message }

func InvalidInputError(message string, a ...any) error {
	if len(a) == 0 {
		return &invalidInputError{message: message}
	}
	return &invalidInputError{message: fmt.Sprintf(message, a...)}
}

func IsInvalidInputError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *invalidInputError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// unsupportedConfigError
// ///////////////////////////////////////////////////////////////////////////

type unsupportedConfigError struct {
	message string
}

func (e *unsupportedConfigError) Error() string { return e.message }

func UnsupportedConfigError(message string, a ...any) error {
	if len(a) == 0 {
		return &unsupportedConfigError{message: message}
	}
	return &unsupportedConfigError{message: fmt.Sprintf(message, a...)}
}

func IsUnsupportedConfigError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *unsupportedConfigError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// notReadyError
// ///////////////////////////////////////////////////////////////////////////

type notReadyError struct {
	message string
}

func (e *notReadyError) Error() string { return e.message }

func NotReadyError(message string, a ...any) error {
	if len(a) == 0 {
		return &notReadyError{message: message}
	}
	return &notReadyError{message: fmt.Sprintf(message, a...)}
}

func IsNotReadyError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *notReadyError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// typeAssertionError
// ///////////////////////////////////////////////////////////////////////////

type typeAssertionError struct {
	assertion string
}

func (e *typeAssertionError) Error() string {
	return fmt.Sprintf("could not perform assertion: %s", e.assertion)
}

func TypeAssertionError(assertion string) error {
	return &typeAssertionError{assertion}
}

func IsTypeAssertionError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *typeAssertionError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// interfaceNotSupportedError
// ///////////////////////////////////////////////////////////////////////////

type interfaceNotSupportedError struct {
	message string
}

func (e *interfaceNotSupportedError) Error() string { return e.message }

// InterfaceNotSupportedError creates a new error when a requested type doesn't support the requested interface.
func InterfaceNotSupportedError(requestedType, interfaceName string) error {
	return &interfaceNotSupportedError{
		message: fmt.Sprintf("requested type %q does not support interface %s",
			requestedType, interfaceName),
	}
}

// IsInterfaceNotSupportedError returns true if err is an interfaceNotSupportedError.
func IsInterfaceNotSupportedError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *interfaceNotSupportedError
	return errors.As(err, &errPtr)
}
