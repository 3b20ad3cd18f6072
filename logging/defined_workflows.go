// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

const (
	workflowCategorySeparator = "="

	CategoryEvent  = WorkflowCategory("event")
	CategoryPool   = WorkflowCategory("pool")
	CategoryPlugin = WorkflowCategory("plugin")
	CategoryCLI    = WorkflowCategory("cli")
	CategoryBridge = WorkflowCategory("bridge")
	CategoryNone   = WorkflowCategory("none")

	OpPublish    = WorkflowOperation("publish")
	OpDispatch   = WorkflowOperation("dispatch")
	OpRegister   = WorkflowOperation("register")
	OpDeclare    = WorkflowOperation("declare")
	OpCleanup    = WorkflowOperation("cleanup")
	OpCreate     = WorkflowOperation("create")
	OpActivate   = WorkflowOperation("activate")
	OpDeactivate = WorkflowOperation("deactivate")
	OpShutdown   = WorkflowOperation("shutdown")
	OpBench      = WorkflowOperation("bench")
	OpConfig     = WorkflowOperation("config")
	OpForward    = WorkflowOperation("forward")
	OpReceive    = WorkflowOperation("receive")
	OpNone       = WorkflowOperation("none")
)

var (
	WorkflowEventPublish  = Workflow{CategoryEvent, OpPublish}
	WorkflowEventDispatch = Workflow{CategoryEvent, OpDispatch}
	WorkflowEventRegister = Workflow{CategoryEvent, OpRegister}
	WorkflowEventDeclare  = Workflow{CategoryEvent, OpDeclare}
	WorkflowEventCleanup  = Workflow{CategoryEvent, OpCleanup}

	WorkflowPoolCreate   = Workflow{CategoryPool, OpCreate}
	WorkflowPoolShutdown = Workflow{CategoryPool, OpShutdown}

	WorkflowPluginActivate   = Workflow{CategoryPlugin, OpActivate}
	WorkflowPluginDeactivate = Workflow{CategoryPlugin, OpDeactivate}

	WorkflowCLIBench  = Workflow{CategoryCLI, OpBench}
	WorkflowCLIConfig = Workflow{CategoryCLI, OpConfig}

	WorkflowBridgeForward = Workflow{CategoryBridge, OpForward}
	WorkflowBridgeReceive = Workflow{CategoryBridge, OpReceive}

	WorkflowNone = Workflow{CategoryNone, OpNone}
)
