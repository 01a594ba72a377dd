// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package metrics provides Prometheus instrumentation for the router's
// hot path. A nil *Registry (the zero value) makes every recording
// method a no-op, so callers that never opt in pay no cost and pull in
// no global registry state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "slf"

// Component constants for ErrorsTotal label.
const (
	ComponentRouter = "router"
	ComponentSink   = "sink"
	ComponentRedis  = "redis"
)

// Registry bundles the counters and histograms a Router reports through.
// A nil *Registry is valid and records nothing.
type Registry struct {
	eventsForwardedTotal *prometheus.CounterVec
	bytesWrittenTotal    *prometheus.CounterVec
	rotationsTotal       prometheus.Counter
	retentionDeletions   prometheus.Counter
	forwardDuration      prometheus.Histogram
	errorsTotal          *prometheus.CounterVec
	diskUsage            *prometheus.GaugeVec
}

// NewRegistry registers a fresh set of collectors against reg. Pass
// prometheus.DefaultRegisterer for the process-wide default registry, or
// a prometheus.NewRegistry() for an isolated one in tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		eventsForwardedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_forwarded_total",
			Help:      "Total number of events forwarded by the router, by sink and status.",
		}, []string{"sink", "status"}),
		bytesWrittenTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Total bytes written to the active logfile.",
		}, []string{"app"}),
		rotationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rotations_total",
			Help:      "Total number of logfile rollovers performed.",
		}),
		retentionDeletions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deletions_total",
			Help:      "Total number of historical logfiles deleted by retention.",
		}),
		forwardDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forward_duration_seconds",
			Help:      "Duration of Router.Forward batches in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of swallowed errors by component and action.",
		}, []string{"component", "action"}),
		diskUsage: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "log_dir_usage_bytes",
			Help:      "Current size in bytes of the configured log directory.",
		}, []string{"path"}),
	}
}

// RecordForward records one event reaching (or failing to reach) a sink.
func (r *Registry) RecordForward(sink, status string) {
	if r == nil {
		return
	}
	r.eventsForwardedTotal.WithLabelValues(sink, status).Inc()
}

// AddBytesWritten adds n bytes to the app's running total.
func (r *Registry) AddBytesWritten(app string, n int) {
	if r == nil {
		return
	}
	r.bytesWrittenTotal.WithLabelValues(app).Add(float64(n))
}

// RecordRotation counts one logfile rollover.
func (r *Registry) RecordRotation() {
	if r == nil {
		return
	}
	r.rotationsTotal.Inc()
}

// RecordRetentionDeletion counts one historical file deleted by retention.
func (r *Registry) RecordRetentionDeletion() {
	if r == nil {
		return
	}
	r.retentionDeletions.Inc()
}

// ObserveForwardDuration records how long one Forward batch took.
func (r *Registry) ObserveForwardDuration(seconds float64) {
	if r == nil {
		return
	}
	r.forwardDuration.Observe(seconds)
}

// RecordError increments the errors_total counter for component/action.
func (r *Registry) RecordError(component, action string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(component, action).Inc()
}

// SetLogDirUsage sets the log_dir_usage_bytes gauge for path.
func (r *Registry) SetLogDirUsage(path string, bytes int64) {
	if r == nil {
		return
	}
	r.diskUsage.WithLabelValues(path).Set(float64(bytes))
}
