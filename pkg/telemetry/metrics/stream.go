package metrics

import (
	"mercator-hq/chatrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics tracks what is written to SSE clients.
type StreamMetrics struct {
	frames      *prometheus.CounterVec
	passthrough *prometheus.CounterVec
	truncations prometheus.Counter
	active      prometheus.Gauge
}

// NewStreamMetrics creates and registers stream metrics with the provided registry.
func NewStreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StreamMetrics {
	sm := &StreamMetrics{
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "frames_total",
				Help:      "Total number of SSE frames written to clients by kind",
			},
			[]string{"kind"},
		),

		passthrough: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "passthrough_total",
				Help:      "Upstream lines forwarded verbatim because they were not JSON",
			},
			[]string{"provider"},
		),

		truncations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "truncations_total",
				Help:      "Attachments truncated before inlining",
			},
		),

		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_streams",
				Help:      "Number of SSE streams currently open",
			},
		),
	}

	registry.MustRegister(
		sm.frames,
		sm.passthrough,
		sm.truncations,
		sm.active,
	)

	return sm
}

// RecordFrame records one frame.
func (sm *StreamMetrics) RecordFrame(kind string) {
	sm.frames.WithLabelValues(kind).Inc()
}

// RecordPassthrough records one verbatim line.
func (sm *StreamMetrics) RecordPassthrough(provider string) {
	sm.passthrough.WithLabelValues(provider).Inc()
}

// RecordTruncation records one truncated attachment.
func (sm *StreamMetrics) RecordTruncation() {
	sm.truncations.Inc()
}
