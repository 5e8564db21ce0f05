package metrics

import (
	"time"

	"mercator-hq/chatrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks chat request outcomes and latencies.
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	firstDelta      *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of chat requests by outcome",
			},
			[]string{"provider", "model", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of chat requests in seconds, including the full stream",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),

		firstDelta: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "first_delta_seconds",
				Help:      "Time from opening the upstream call to the first text delta",
				Buckets:   cfg.FirstDeltaBuckets,
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.firstDelta,
	)

	return rm
}

// RecordRequest records a finished request.
func (rm *RequestMetrics) RecordRequest(provider, model, outcome string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(provider, model, outcome).Inc()
	rm.requestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
}

// RecordFirstDelta records time to first delta.
func (rm *RequestMetrics) RecordFirstDelta(provider, model string, latency time.Duration) {
	rm.firstDelta.WithLabelValues(provider, model).Observe(latency.Seconds())
}
