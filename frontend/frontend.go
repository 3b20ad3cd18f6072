// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package frontend holds the network surfaces a process can expose next to its event service.
package frontend

// Plugin is a frontend with a start/stop lifecycle.
type Plugin interface {
	Activate() error
	Deactivate() error
	GetName() string
	Version() string
}
