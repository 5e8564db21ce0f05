package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateRelay(&cfg.Relay, cfg.Providers)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateAttachments(&cfg.Attachments)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateProxy validates proxy configuration.
func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxHeaderBytes > 10*1024*1024 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_header_bytes",
			Message: "max header bytes exceeds reasonable limit (10MB)",
		})
	}
	if cfg.MaxRequestBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "proxy.max_request_body_bytes",
			Message: "max request body bytes must be non-negative",
		})
	}

	return errs
}

// validateRelay validates relay defaults.
func validateRelay(cfg *RelayConfig, providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultProvider == "" {
		errs = append(errs, FieldError{
			Field:   "relay.default_provider",
			Message: "default provider is required",
		})
	} else if _, ok := providers[cfg.DefaultProvider]; !ok {
		errs = append(errs, FieldError{
			Field:   "relay.default_provider",
			Message: fmt.Sprintf("default provider %q is not configured", cfg.DefaultProvider),
		})
	}

	switch cfg.HistoryMode {
	case HistoryModeFull, HistoryModeSingle:
	default:
		errs = append(errs, FieldError{
			Field:   "relay.history_mode",
			Message: fmt.Sprintf("invalid history mode %q: must be %q or %q", cfg.HistoryMode, HistoryModeFull, HistoryModeSingle),
		})
	}

	if cfg.MaxLineBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.max_line_bytes",
			Message: "max line bytes must be positive",
		})
	}
	if cfg.MaxResponseBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "relay.max_response_bytes",
			Message: "max response bytes must be positive",
		})
	}

	return errs
}

// validateProviders validates provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	knownShapes := make(map[string]bool, len(DefaultResponseShapes))
	for _, s := range DefaultResponseShapes {
		knownShapes[s] = true
	}

	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		provider := providers[name]
		prefix := fmt.Sprintf("providers.%s", name)

		// An empty base URL is allowed: requests must then carry an endpoint.
		if provider.BaseURL != "" {
			u, err := url.Parse(provider.BaseURL)
			if err != nil {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: fmt.Sprintf("invalid URL format: %v", err),
				})
			} else if u.Scheme != "http" && u.Scheme != "https" {
				errs = append(errs, FieldError{
					Field:   prefix + ".base_url",
					Message: "base URL must use http or https",
				})
			}
		}

		if provider.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}

		for _, shape := range provider.ResponseShapes {
			if !knownShapes[shape] {
				errs = append(errs, FieldError{
					Field:   prefix + ".response_shapes",
					Message: fmt.Sprintf("unknown response shape %q (known: %s)", shape, strings.Join(DefaultResponseShapes, ", ")),
				})
			}
		}
	}

	return errs
}

// validateAttachments validates attachment configuration.
func validateAttachments(cfg *AttachmentsConfig) []FieldError {
	var errs []FieldError

	if cfg.UploadDir == "" {
		errs = append(errs, FieldError{
			Field:   "attachments.upload_dir",
			Message: "upload directory is required",
		})
	}
	if cfg.MaxFileBytes <= 0 {
		errs = append(errs, FieldError{
			Field:   "attachments.max_file_bytes",
			Message: "max file bytes must be positive",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.path",
				Message: "sqlite path is required when backend is sqlite",
			})
		}
		if cfg.SQLite.Driver != SQLiteDriverPure && cfg.SQLite.Driver != SQLiteDriverCGO {
			errs = append(errs, FieldError{
				Field:   "audit.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be %q or %q", cfg.SQLite.Driver, SQLiteDriverPure, SQLiteDriverCGO),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "audit.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.recorder.async_buffer",
			Message: "async buffer must be non-negative",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Query.MaxLimit > 0 && cfg.Query.DefaultLimit > cfg.Query.MaxLimit {
		errs = append(errs, FieldError{
			Field:   "audit.query.default_limit",
			Message: "default limit must not exceed max limit",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/' when metrics are enabled",
		})
	}

	return errs
}
