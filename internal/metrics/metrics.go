// Package metrics exposes notefs's operational counters via
// prometheus/client_golang, grounded on the Prometheus instrumentation
// pattern used by the filesystem adapters elsewhere in the ecosystem
// (rclone, JuiceFS) rather than the teacher's OpenTelemetry pipeline,
// which has no collector to report to in this module (see DESIGN.md).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Handle bundles every metric notefs records during a mount's
// lifetime.
type Handle struct {
	OpsTotal      *prometheus.CounterVec
	OpErrorsTotal *prometheus.CounterVec
	OpDuration    *prometheus.HistogramVec
}

// New registers notefs's metrics against reg and returns a Handle for
// recording them. Passing prometheus.NewRegistry() keeps tests free of
// global registry collisions.
func New(reg prometheus.Registerer) *Handle {
	h := &Handle{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notefs",
			Name:      "ops_total",
			Help:      "Count of filesystem operations served, by op name.",
		}, []string{"op"}),
		OpErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notefs",
			Name:      "op_errors_total",
			Help:      "Count of filesystem operations that returned an error, by op name and errno.",
		}, []string{"op", "errno"}),
		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "notefs",
			Name:      "op_duration_seconds",
			Help:      "Latency of filesystem operations, by op name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
	reg.MustRegister(h.OpsTotal, h.OpErrorsTotal, h.OpDuration)
	return h
}
