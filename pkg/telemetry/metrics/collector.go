package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/chatrelay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes.
const (
	OutcomeDone         = "done"
	OutcomeError        = "error"
	OutcomeRejected     = "rejected"
	OutcomeDisconnected = "disconnected"
)

// Collector owns every relay metric and the registry they are registered in.
// A nil *Collector is valid and records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics
	streamMetrics   *StreamMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "chatrelay",
//		Subsystem: "relay",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Streams run from sub-second to minutes
		cfg.RequestDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
	}
	if len(cfg.FirstDeltaBuckets) == 0 {
		cfg.FirstDeltaBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.streamMetrics = NewStreamMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// model returns the label to use for model, collapsing it to "other" once
// the cardinality limit is reached.
func (c *Collector) model(provider, model, extra string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s:%s", provider, model, extra)) {
		return "other"
	}
	return model
}

// RecordRequest records a finished chat request.
//
// Parameters:
//   - provider: resolved provider id, or "" when resolution failed
//   - model: requested model
//   - outcome: one of the Outcome constants
//   - duration: time from request receipt to close
func (c *Collector) RecordRequest(provider, model, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	model = c.model(provider, model, outcome)
	c.requestMetrics.RecordRequest(provider, model, outcome, duration)
}

// RecordFirstDelta records the latency from opening the upstream call to
// the first text delta.
func (c *Collector) RecordFirstDelta(provider, model string, latency time.Duration) {
	if !c.enabled() {
		return
	}

	c.requestMetrics.RecordFirstDelta(provider, c.model(provider, model, "first"), latency)
}

// RecordUpstreamCall records one call to a provider.
func (c *Collector) RecordUpstreamCall(provider, model string) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordRequest(provider, c.model(provider, model, "upstream"))
}

// RecordProviderError records an upstream failure.
//
// Parameters:
//   - provider: provider id
//   - errorType: one of "auth", "rate_limit", "timeout", "server_error",
//     "client_error", "network", "stream", "upstream"
func (c *Collector) RecordProviderError(provider, errorType string) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.RecordError(provider, errorType)
}

// UpdateProviderHealth updates the health gauge of a provider.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}

	c.providerMetrics.UpdateHealth(provider, healthy)
}

// RecordFrame records one SSE frame written to a client.
// kind is "text", "error" or "done".
func (c *Collector) RecordFrame(kind string) {
	if !c.enabled() {
		return
	}

	c.streamMetrics.RecordFrame(kind)
}

// RecordPassthrough records an upstream line forwarded verbatim.
func (c *Collector) RecordPassthrough(provider string) {
	if !c.enabled() {
		return
	}

	c.streamMetrics.RecordPassthrough(provider)
}

// RecordTruncation records an attachment cut to its inlining bound.
func (c *Collector) RecordTruncation() {
	if !c.enabled() {
		return
	}

	c.streamMetrics.RecordTruncation()
}

// StreamOpened increments the active stream gauge.
func (c *Collector) StreamOpened() {
	if !c.enabled() {
		return
	}

	c.streamMetrics.active.Inc()
}

// StreamClosed decrements the active stream gauge.
func (c *Collector) StreamClosed() {
	if !c.enabled() {
		return
	}

	c.streamMetrics.active.Dec()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
