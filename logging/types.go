// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

import (
	log "github.com/sirupsen/logrus"
)

const (
	ContextKeyRequestID     ContextKey = "requestID"
	ContextKeyRequestSource ContextKey = "requestSource"
	ContextKeyWorkflow      ContextKey = "workflow"
	ContextKeyLogLayer      ContextKey = "logLayer"

	ContextSourceInternal = "Internal"
	ContextSourcePeriodic = "Periodic"
	ContextSourceCLI      = "CLI"
	ContextSourceGC       = "GC"
)

// ContextKey is used for context.Context value. The value requires a key that is not primitive type.
type ContextKey string

type WorkflowCategory string

func (w WorkflowCategory) String() string {
	return string(w)
}

type WorkflowOperation string

func (w WorkflowOperation) String() string {
	return string(w)
}

type Workflow struct {
	Category  WorkflowCategory
	Operation WorkflowOperation
}

func (w Workflow) String() string {
	return w.Category.String() + workflowCategorySeparator + w.Operation.String()
}

type LogLayer string

func (l LogLayer) String() string {
	return string(l)
}

type LogFields = log.Fields
