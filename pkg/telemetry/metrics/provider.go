package metrics

import (
	"mercator-hq/chatrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks upstream provider health and failures.
type ProviderMetrics struct {
	// Provider health status (gauge: 1=healthy, 0=unhealthy)
	health *prometheus.GaugeVec

	// Provider error counter
	errors *prometheus.CounterVec

	// Total calls to provider
	requests *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the provided registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total number of calls to each provider",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.errors,
		pm.requests,
	)

	return pm
}

// UpdateHealth updates the health status of a provider.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordError records an error from a provider.
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordRequest records a call to a provider.
func (pm *ProviderMetrics) RecordRequest(provider, model string) {
	pm.requests.WithLabelValues(provider, model).Inc()
}
