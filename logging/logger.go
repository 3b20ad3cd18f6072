// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Logc returns a log entry carrying the request, workflow and layer values found in ctx.
func Logc(ctx context.Context) *log.Entry {
	if ctx == nil {
		ctx = context.Background()
	}

	entry := log.WithFields(log.Fields{
		"requestID":     ctx.Value(ContextKeyRequestID),
		"requestSource": ctx.Value(ContextKeyRequestSource),
	})

	if val := ctx.Value(ContextKeyWorkflow); val != nil {
		entry = entry.WithField(string(ContextKeyWorkflow), val)
	}
	if val := ctx.Value(ContextKeyLogLayer); val != nil {
		entry = entry.WithField(string(ContextKeyLogLayer), val)
	}

	return entry
}

// GenerateRequestContext returns a context with request ID, source, workflow and layer values. Values already
// present on ctx win over the arguments.
func GenerateRequestContext(
	ctx context.Context, requestID, requestSource string, workflow Workflow, logLayer LogLayer,
) context.Context {
	if ctx == nil {
		ctx = context.Background()
	} else {
		if v := ctx.Value(ContextKeyRequestID); v != nil {
			requestID = fmt.Sprint(v)
		}
		if v := ctx.Value(ContextKeyRequestSource); v != nil {
			requestSource = fmt.Sprint(v)
		}
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	if requestSource == "" {
		requestSource = "Unknown"
	}
	ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)
	ctx = context.WithValue(ctx, ContextKeyRequestSource, requestSource)

	if workflow != WorkflowNone && workflow != (Workflow{}) {
		ctx = context.WithValue(ctx, ContextKeyWorkflow, workflow)
	}

	return GenerateRequestContextForLayer(ctx, logLayer)
}

// GenerateRequestContextForLayer sets the log layer on ctx unless it already carries the same one.
func GenerateRequestContextForLayer(ctx context.Context, logLayer LogLayer) context.Context {
	if logLayer == LogLayerNone || logLayer == "" {
		return ctx
	}
	if ctx.Value(ContextKeyLogLayer) == logLayer {
		return ctx
	}
	return context.WithValue(ctx, ContextKeyLogLayer, logLayer)
}
