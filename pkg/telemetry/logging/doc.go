// Package logging provides structured logging with credential redaction.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON and text output with a configurable level
//   - Redaction of API keys and bearer tokens in every logged attribute
//   - Request id, provider and model taken from the context
//
// The redaction and context fields live in a slog.Handler, so code that logs
// through the slog package functions is covered once the logger is installed
// as the default:
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Slog())
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "upstream opened",
//	    "api_key", "sk-abc123", // logged as "sk-a***"
//	)
//
// # Redaction
//
// Attributes whose key names a credential (api_key, authorization, token,
// secret, credential, ...) are masked to a four-character prefix. String
// values anywhere are scanned for sk- style keys, bearer tokens and
// api_key=... assignments.
package logging
