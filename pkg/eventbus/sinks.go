// Copyright 2025 NetApp, Inc. All Rights Reserved.

package eventbus

import (
	"context"
	"fmt"

	. "github.com/netapp/guts/logging"
	"github.com/netapp/guts/pkg/eventbus/types"
)

// LoggingErrorHandler logs invalid subscriber methods.
type LoggingErrorHandler struct{}

func (LoggingErrorHandler) HandleViolation(ctx context.Context, v types.Violation) {
	fields := LogFields{
		"kind":   v.Kind.String(),
		"method": v.Identity(),
	}
	if v.Key.EventType() != nil {
		fields["channel"] = v.Key.String()
	}
	Logc(ctx).WithFields(fields).Error(v.Error())
}

// LoggingExceptionHandler logs failed consumer and filter invocations.
type LoggingExceptionHandler struct{}

func (LoggingExceptionHandler) HandleException(ctx context.Context, f types.Failure) {
	Logc(ctx).WithFields(LogFields{
		"method":  f.Method,
		"channel": f.Key.String(),
		"owner":   fmt.Sprintf("%T", f.Owner),
		"event":   fmt.Sprintf("%T", f.Event),
	}).WithError(f.Err).Error("Event consumer failed.")
}

// ErrorHandlerFunc adapts a function to types.ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, v types.Violation)

func (f ErrorHandlerFunc) HandleViolation(ctx context.Context, v types.Violation) { f(ctx, v) }

// ExceptionHandlerFunc adapts a function to types.ExceptionHandler.
type ExceptionHandlerFunc func(ctx context.Context, f types.Failure)

func (f ExceptionHandlerFunc) HandleException(ctx context.Context, failure types.Failure) { f(ctx, failure) }
