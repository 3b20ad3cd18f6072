// Copyright 2025 NetApp, Inc. All Rights Reserved.

package bridge

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	log "github.com/sirupsen/logrus"

	. "github.com/netapp/guts/logging"
)

// loggerAdapter routes Watermill logs through the context logger.
type loggerAdapter struct {
	entry *log.Entry
}

var _ watermill.LoggerAdapter = (*loggerAdapter)(nil)

// NewLoggerAdapter returns a Watermill logger writing to the logger of ctx.
func NewLoggerAdapter(ctx context.Context) watermill.LoggerAdapter {
	ctx = GenerateRequestContextForLayer(ctx, LogLayerBridge)
	return &loggerAdapter{entry: Logc(ctx)}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.with(fields).WithError(err).Error(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.with(fields).Info(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.with(fields).Debug(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.with(fields).Trace(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{entry: l.with(fields)}
}

func (l *loggerAdapter) with(fields watermill.LogFields) *log.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(LogFields(fields))
}
