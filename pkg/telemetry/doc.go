// Package telemetry groups the relay's observability packages.
//
// # Components
//
//   - logging: slog-based structured logging with credential redaction
//     and request-scoped attributes (request ID, provider, model)
//   - metrics: Prometheus collectors for requests, frames, upstream calls
//     and provider health, served on the configured metrics path
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides(path)
//	if err != nil {
//		return err
//	}
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordFrame("text")
//
// A nil *metrics.Collector is valid and records nothing, so callers never
// need to check whether metrics are enabled.
//
// # Redaction
//
// Credentials are redacted from every logged attribute before it reaches
// the handler:
//
//   - API keys: sk-abc123... → sk-***
//   - Authorization values: Bearer abc... → Bearer ***
//   - Query and form values: api_key=abc → api_key=***
package telemetry
