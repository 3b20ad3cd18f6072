// Copyright 2025 NetApp, Inc. All Rights Reserved.

package logging

const (
	LogLayerEvents          = LogLayer("events")
	LogLayerRegistry        = LogLayer("registry")
	LogLayerCleaner         = LogLayer("cleaner")
	LogLayerWorkerPool      = LogLayer("workerpool")
	LogLayerMetricsFrontend = LogLayer("metrics_frontend")
	LogLayerCLI             = LogLayer("cli")
	LogLayerBridge          = LogLayer("bridge")
	LogLayerAll             = LogLayer("all")
	LogLayerNone            = LogLayer("none")
)

var Layers = []LogLayer{
	LogLayerEvents,
	LogLayerRegistry,
	LogLayerCleaner,
	LogLayerWorkerPool,
	LogLayerMetricsFrontend,
	LogLayerCLI,
	LogLayerBridge,
	LogLayerAll,
}
