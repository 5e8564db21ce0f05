package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "CHATRELAY_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Fields the file omits keep their defaults, so a partial file is valid.
// An empty path yields the default configuration.
// The configuration is not modified by environment variables; use
// LoadConfigWithEnvOverrides for that functionality.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefault()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CHATRELAY_SECTION_FIELD (e.g., CHATRELAY_PROXY_LISTEN_ADDRESS).
// Environment variables always take precedence over file-based configuration.
//
// OPENAI_API_KEY and PORT are also honoured for compatibility with common
// deployment setups; the CHATRELAY_ forms win when both are set.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Compatibility variables first so CHATRELAY_ variables override them.
	if val := os.Getenv("PORT"); val != "" {
		host, _, err := net.SplitHostPort(cfg.Proxy.ListenAddress)
		if err != nil {
			host = ""
		}
		cfg.Proxy.ListenAddress = net.JoinHostPort(host, val)
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		cfg.Relay.DefaultAPIKey = val
	}

	// Proxy overrides
	setString(&cfg.Proxy.ListenAddress, "PROXY_LISTEN_ADDRESS")
	setDuration(&cfg.Proxy.ReadTimeout, "PROXY_READ_TIMEOUT")
	setDuration(&cfg.Proxy.WriteTimeout, "PROXY_WRITE_TIMEOUT")
	setDuration(&cfg.Proxy.IdleTimeout, "PROXY_IDLE_TIMEOUT")
	setDuration(&cfg.Proxy.ShutdownTimeout, "PROXY_SHUTDOWN_TIMEOUT")
	setInt(&cfg.Proxy.MaxHeaderBytes, "PROXY_MAX_HEADER_BYTES")
	setInt64(&cfg.Proxy.MaxRequestBodyBytes, "PROXY_MAX_REQUEST_BODY_BYTES")
	setBool(&cfg.Proxy.CORS.Enabled, "PROXY_CORS_ENABLED")
	if val := os.Getenv(EnvPrefix + "PROXY_CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Proxy.CORS.AllowedOrigins = splitList(val)
	}

	// Relay overrides
	setString(&cfg.Relay.DefaultProvider, "RELAY_DEFAULT_PROVIDER")
	setString(&cfg.Relay.DefaultModel, "RELAY_DEFAULT_MODEL")
	setString(&cfg.Relay.DefaultAPIKey, "RELAY_DEFAULT_API_KEY")
	setString(&cfg.Relay.SystemPrompt, "RELAY_SYSTEM_PROMPT")
	setString(&cfg.Relay.HistoryMode, "RELAY_HISTORY_MODE")
	setInt(&cfg.Relay.MaxLineBytes, "RELAY_MAX_LINE_BYTES")

	// Provider overrides for every configured or built-in provider
	names := make(map[string]struct{}, len(cfg.Providers)+len(DefaultProviderBaseURLs))
	for name := range cfg.Providers {
		names[name] = struct{}{}
	}
	for name := range DefaultProviderBaseURLs {
		names[name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	for _, name := range sorted {
		applyProviderEnvOverrides(cfg, name)
	}

	// Catalog overrides
	setString(&cfg.Catalog.ModelsFile, "CATALOG_MODELS_FILE")
	setBool(&cfg.Catalog.Watch, "CATALOG_WATCH")

	setString(&cfg.Credentials.Dir, "CREDENTIALS_DIR")
	setString(&cfg.Credentials.SSMPrefix, "CREDENTIALS_SSM_PREFIX")

	// Attachment overrides
	setString(&cfg.Attachments.UploadDir, "ATTACHMENTS_UPLOAD_DIR")
	setInt64(&cfg.Attachments.MaxFileBytes, "ATTACHMENTS_MAX_FILE_BYTES")
	setBool(&cfg.Attachments.ConvertHTML, "ATTACHMENTS_CONVERT_HTML")

	// Audit overrides
	setBool(&cfg.Audit.Enabled, "AUDIT_ENABLED")
	setString(&cfg.Audit.Backend, "AUDIT_BACKEND")
	setString(&cfg.Audit.SQLite.Path, "AUDIT_SQLITE_PATH")
	setString(&cfg.Audit.SQLite.Driver, "AUDIT_SQLITE_DRIVER")
	setInt(&cfg.Audit.Retention.Days, "AUDIT_RETENTION_DAYS")
	setInt64(&cfg.Audit.Retention.MaxRecords, "AUDIT_RETENTION_MAX_RECORDS")
	setString(&cfg.Audit.Retention.Schedule, "AUDIT_RETENTION_SCHEDULE")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "TELEMETRY_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Logging.AddSource, "TELEMETRY_LOGGING_ADD_SOURCE")
	setBool(&cfg.Telemetry.Metrics.Enabled, "TELEMETRY_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.Path, "TELEMETRY_METRICS_PATH")
}

// applyProviderEnvOverrides applies environment variable overrides for a specific provider.
// Provider environment variables follow the format CHATRELAY_PROVIDERS_<NAME>_<FIELD>
// where NAME is the uppercase provider name.
func applyProviderEnvOverrides(cfg *Config, providerName string) {
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}

	provider, exists := cfg.Providers[providerName]
	prefix := "PROVIDERS_" + strings.ToUpper(strings.ReplaceAll(providerName, "-", "_")) + "_"

	modified := setString(&provider.BaseURL, prefix+"BASE_URL")
	modified = setString(&provider.APIKey, prefix+"API_KEY") || modified
	modified = setDuration(&provider.Timeout, prefix+"TIMEOUT") || modified

	// Only update the map if we found at least one override
	if modified || exists {
		cfg.Providers[providerName] = provider
	}
}

func setString(dst *string, key string) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
		return true
	}
	return false
}

func setBool(dst *bool, key string) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
			return true
		}
	}
	return false
}

func setInt(dst *int, key string) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
			return true
		}
	}
	return false
}

func setInt64(dst *int64, key string) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
			return true
		}
	}
	return false
}

func setDuration(dst *time.Duration, key string) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
			return true
		}
	}
	return false
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
