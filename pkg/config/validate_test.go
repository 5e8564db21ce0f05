package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := Validate(NewDefault()); err != nil {
		t.Fatalf("expected defaults to be valid, got %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty listen address", func(c *Config) { c.Proxy.ListenAddress = "" }, "proxy.listen_address"},
		{"negative write timeout", func(c *Config) { c.Proxy.WriteTimeout = -1 }, "proxy.write_timeout"},
		{"huge headers", func(c *Config) { c.Proxy.MaxHeaderBytes = 20 * 1024 * 1024 }, "proxy.max_header_bytes"},
		{"unknown default provider", func(c *Config) { c.Relay.DefaultProvider = "nobody" }, "relay.default_provider"},
		{"bad history mode", func(c *Config) { c.Relay.HistoryMode = "partial" }, "relay.history_mode"},
		{"zero line bytes", func(c *Config) { c.Relay.MaxLineBytes = 0 }, "relay.max_line_bytes"},
		{"no providers", func(c *Config) { c.Providers = nil }, "providers"},
		{"bad base url scheme", func(c *Config) {
			p := c.Providers["openai"]
			p.BaseURL = "ftp://example.com"
			c.Providers["openai"] = p
		}, "providers.openai.base_url"},
		{"unknown shape", func(c *Config) {
			p := c.Providers["openai"]
			p.ResponseShapes = []string{"openai", "cohere"}
			c.Providers["openai"] = p
		}, "providers.openai.response_shapes"},
		{"empty upload dir", func(c *Config) { c.Attachments.UploadDir = "" }, "attachments.upload_dir"},
		{"bad audit backend", func(c *Config) { c.Audit.Backend = "postgres" }, "audit.backend"},
		{"bad sqlite driver", func(c *Config) {
			c.Audit.Backend = "sqlite"
			c.Audit.SQLite.Driver = "pgx"
		}, "audit.sqlite.driver"},
		{"negative retention", func(c *Config) { c.Audit.Retention.Days = -1 }, "audit.retention.days"},
		{"limit order", func(c *Config) { c.Audit.Query.DefaultLimit = 50000 }, "audit.query.default_limit"},
		{"bad log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"bad metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)

			err := Validate(cfg)
			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}

			found := false
			for _, fe := range vErr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got %v", tt.field, vErr.Errors)
			}
		})
	}
}

func TestValidate_EmptyBaseURLAllowed(t *testing.T) {
	cfg := NewDefault()
	cfg.Providers["custom"] = ProviderConfig{ResponseShapes: DefaultResponseShapes}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected provider without base URL to be valid, got %v", err)
	}
}

func TestValidate_DisabledAuditSkipsChecks(t *testing.T) {
	cfg := NewDefault()
	cfg.Audit.Enabled = false
	cfg.Audit.Backend = "anything"
	if err := Validate(cfg); err != nil {
		t.Errorf("expected disabled audit to skip validation, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if single.Error() != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message %q", single.Error())
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "with 2 errors") || !strings.Contains(multi.Error(), "  - b: worse") {
		t.Errorf("unexpected message %q", multi.Error())
	}
}
