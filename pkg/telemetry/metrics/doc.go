// Package metrics provides Prometheus metrics for the chat relay.
//
// # Metrics
//
//   - requests_total{provider,model,outcome}: chat requests by how they ended
//     (done, error, rejected, disconnected)
//   - request_duration_seconds{provider,model}: time from request to close
//   - first_delta_seconds{provider,model}: time from upstream open to the
//     first text delta
//   - frames_total{kind}: SSE frames written (text, error, done)
//   - passthrough_total{provider}: upstream lines forwarded verbatim because
//     they were not JSON
//   - truncations_total: attachments cut to the inlining bound
//   - active_streams: streams currently open
//   - provider_health{provider}: 1 healthy, 0 unhealthy
//   - provider_errors_total{provider,error_type}: upstream failures by class
//   - provider_requests_total{provider,model}: upstream calls
//
// All names are prefixed with the configured namespace and subsystem
// (default chatrelay_relay_).
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRequest("openai", "gpt-4o", metrics.OutcomeDone, elapsed)
//	http.Handle("/metrics", collector.Handler())
//
// # Cardinality
//
// Model names come from clients. Once 10,000 distinct label sets have been
// seen, further unseen models are recorded as "other".
package metrics
