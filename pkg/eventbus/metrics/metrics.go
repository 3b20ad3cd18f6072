// Copyright 2025 NetApp, Inc. All Rights Reserved.

// Package metrics exposes Prometheus collectors for the event channels. All methods are safe on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "guts"
	subsystem = "events"

	labelChannel = "channel"
	labelKind    = "kind"
	labelTrigger = "trigger"

	TriggerPeriodic = "periodic"
	TriggerQueued   = "queued"
)

type Metrics struct {
	published  *prometheus.CounterVec
	delivered  *prometheus.CounterVec
	failures   *prometheus.CounterVec
	violations *prometheus.CounterVec
	bindings   *prometheus.GaugeVec
	removed    *prometheus.CounterVec
	sweeps     *prometheus.CounterVec
}

// New registers the event collectors on reg. Registering twice on the same registry panics, so each service
// gets its own registry unless the caller shares one on purpose.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "published_total",
			Help:      "The number of events published, by channel",
		}, []string{labelChannel}),
		delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "deliveries_total",
			Help:      "The number of successful consumer invocations, by channel",
		}, []string{labelChannel}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "consumer_failures_total",
			Help:      "The number of consumer or filter invocations that failed, by channel",
		}, []string{labelChannel}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "violations_total",
			Help:      "The number of subscriber methods rejected at registration, by kind",
		}, []string{labelKind}),
		bindings: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bindings",
			Help:      "The number of bindings held by a channel, including dead ones not yet swept",
		}, []string{labelChannel}),
		removed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bindings_removed_total",
			Help:      "The number of dead bindings removed by cleanup, by channel",
		}, []string{labelChannel}),
		sweeps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sweeps_total",
			Help:      "The number of cleaner passes, by trigger",
		}, []string{labelTrigger}),
	}
}

func (m *Metrics) EventPublished(channel string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(channel).Inc()
}

func (m *Metrics) EventDelivered(channel string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(channel).Inc()
}

func (m *Metrics) ConsumerFailed(channel string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(channel).Inc()
}

func (m *Metrics) ViolationReported(kind string) {
	if m == nil {
		return
	}
	m.violations.WithLabelValues(kind).Inc()
}

func (m *Metrics) BindingsChanged(channel string, count int) {
	if m == nil {
		return
	}
	m.bindings.WithLabelValues(channel).Set(float64(count))
}

func (m *Metrics) BindingsRemoved(channel string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.removed.WithLabelValues(channel).Add(float64(count))
}

func (m *Metrics) SweepCompleted(trigger string) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(trigger).Inc()
}
