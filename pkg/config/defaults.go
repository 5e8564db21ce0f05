package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress       = "0.0.0.0:3000"
	DefaultReadTimeout         = 30 * time.Second
	DefaultWriteTimeout        = 0
	DefaultIdleTimeout         = 120 * time.Second
	DefaultShutdownTimeout     = 30 * time.Second
	DefaultMaxHeaderBytes      = 1048576  // 1MB
	DefaultMaxRequestBodyBytes = 10485760 // 10MB

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Relay defaults
	DefaultProvider         = "openai"
	DefaultModel            = "gpt-3.5-turbo"
	DefaultSystemPrompt     = "You are a helpful assistant."
	DefaultHistoryMode      = HistoryModeFull
	DefaultMaxLineBytes     = 1 << 20
	DefaultMaxResponseBytes = int64(32 << 20)

	// Provider defaults
	DefaultProviderTimeout     = 60 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// Catalog defaults
	DefaultCatalogDebounce = 100 * time.Millisecond

	// Credential defaults
	DefaultSecretEnvPrefix = "CHATRELAY_SECRET_"

	// Attachment defaults
	DefaultUploadDir    = "uploads"
	DefaultMaxFileBytes = int64(50 << 20)

	// Audit defaults
	DefaultAuditEnabled              = true
	DefaultAuditBackend              = "memory"
	DefaultAuditSQLitePath           = "data/audit.db"
	DefaultAuditSQLiteDriver         = SQLiteDriverPure
	DefaultAuditSQLiteMaxOpenConns   = 10
	DefaultAuditSQLiteMaxIdleConns   = 5
	DefaultAuditSQLiteWALMode        = true
	DefaultAuditSQLiteBusyTimeout    = 5 * time.Second
	DefaultAuditRecorderAsyncBuffer  = 1000
	DefaultAuditRecorderWriteTimeout = 5 * time.Second
	DefaultAuditRetentionDays        = 30
	DefaultAuditRetentionSchedule    = "0 3 * * *"
	DefaultAuditQueryDefaultLimit    = 100
	DefaultAuditQueryMaxLimit        = 10000

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultRedactCredentials = true
	DefaultMetricsEnabled    = true
	DefaultPrometheusPath    = "/metrics"
	DefaultMetricsNamespace  = "chatrelay"
	DefaultMetricsSubsystem  = "relay"
)

// Response shape names, in default priority order.
var DefaultResponseShapes = []string{"error", "openai", "anthropic", "gemini", "generic"}

// DefaultProviderBaseURLs are the built-in upstreams. Each speaks the
// OpenAI-compatible chat completions request format.
var DefaultProviderBaseURLs = map[string]string{
	"openai":    "https://api.openai.com/v1",
	"anthropic": "https://api.anthropic.com/v1",
	"deepseek":  "https://api.deepseek.com/v1",
	"gemini":    "https://generativelanguage.googleapis.com/v1beta/openai",
}

// NewDefault returns a configuration with every field set to its default,
// including the built-in providers.
func NewDefault() *Config {
	cfg := &Config{
		Proxy: ProxyConfig{
			CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Audit: AuditConfig{
			Enabled: DefaultAuditEnabled,
			SQLite:  AuditSQLiteConfig{WALMode: DefaultAuditSQLiteWALMode},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactCredentials: DefaultRedactCredentials},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
		Providers: make(map[string]ProviderConfig, len(DefaultProviderBaseURLs)),
	}

	for name, baseURL := range DefaultProviderBaseURLs {
		cfg.Providers[name] = ProviderConfig{BaseURL: baseURL}
	}

	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
//
// Boolean fields whose default is true are only set by NewDefault, since a
// false zero value cannot be told apart from an explicit false here.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxRequestBodyBytes == 0 {
		cfg.Proxy.MaxRequestBodyBytes = DefaultMaxRequestBodyBytes
	}
	applyCORSDefaults(&cfg.Proxy.CORS)

	// Relay defaults
	if cfg.Relay.DefaultProvider == "" {
		cfg.Relay.DefaultProvider = DefaultProvider
	}
	if cfg.Relay.DefaultModel == "" {
		cfg.Relay.DefaultModel = DefaultModel
	}
	if cfg.Relay.SystemPrompt == "" {
		cfg.Relay.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Relay.HistoryMode == "" {
		cfg.Relay.HistoryMode = DefaultHistoryMode
	}
	if cfg.Relay.MaxLineBytes == 0 {
		cfg.Relay.MaxLineBytes = DefaultMaxLineBytes
	}
	if cfg.Relay.MaxResponseBytes == 0 {
		cfg.Relay.MaxResponseBytes = DefaultMaxResponseBytes
	}

	// Provider defaults - applied to each provider
	for name, provider := range cfg.Providers {
		if provider.BaseURL == "" {
			provider.BaseURL = DefaultProviderBaseURLs[name]
		}
		if provider.Timeout == 0 {
			provider.Timeout = DefaultProviderTimeout
		}
		if len(provider.ResponseShapes) == 0 {
			provider.ResponseShapes = append([]string(nil), DefaultResponseShapes...)
		}
		if provider.MaxIdleConns == 0 {
			provider.MaxIdleConns = DefaultMaxIdleConns
		}
		if provider.MaxIdleConnsPerHost == 0 {
			provider.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
		}
		if provider.IdleConnTimeout == 0 {
			provider.IdleConnTimeout = DefaultIdleConnTimeout
		}
		cfg.Providers[name] = provider
	}

	// Catalog defaults
	if cfg.Catalog.Debounce == 0 {
		cfg.Catalog.Debounce = DefaultCatalogDebounce
	}

	if cfg.Credentials.EnvPrefix == "" {
		cfg.Credentials.EnvPrefix = DefaultSecretEnvPrefix
	}

	// Attachment defaults
	if cfg.Attachments.UploadDir == "" {
		cfg.Attachments.UploadDir = DefaultUploadDir
	}
	if cfg.Attachments.MaxFileBytes == 0 {
		cfg.Attachments.MaxFileBytes = DefaultMaxFileBytes
	}

	applyAuditDefaults(&cfg.Audit)

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.RequestDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.RequestDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
	}
	if len(cfg.Telemetry.Metrics.FirstDeltaBuckets) == 0 {
		cfg.Telemetry.Metrics.FirstDeltaBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	}
}

// applyCORSDefaults applies default values to CORS configuration.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}

// applyAuditDefaults applies default values to audit configuration.
func applyAuditDefaults(audit *AuditConfig) {
	if audit.Backend == "" {
		audit.Backend = DefaultAuditBackend
	}
	if audit.SQLite.Path == "" {
		audit.SQLite.Path = DefaultAuditSQLitePath
	}
	if audit.SQLite.Driver == "" {
		audit.SQLite.Driver = DefaultAuditSQLiteDriver
	}
	if audit.SQLite.MaxOpenConns == 0 {
		audit.SQLite.MaxOpenConns = DefaultAuditSQLiteMaxOpenConns
	}
	if audit.SQLite.MaxIdleConns == 0 {
		audit.SQLite.MaxIdleConns = DefaultAuditSQLiteMaxIdleConns
	}
	if audit.SQLite.BusyTimeout == 0 {
		audit.SQLite.BusyTimeout = DefaultAuditSQLiteBusyTimeout
	}
	if audit.Recorder.AsyncBuffer == 0 {
		audit.Recorder.AsyncBuffer = DefaultAuditRecorderAsyncBuffer
	}
	if audit.Recorder.WriteTimeout == 0 {
		audit.Recorder.WriteTimeout = DefaultAuditRecorderWriteTimeout
	}
	if audit.Retention.Days == 0 {
		audit.Retention.Days = DefaultAuditRetentionDays
	}
	if audit.Retention.Schedule == "" {
		audit.Retention.Schedule = DefaultAuditRetentionSchedule
	}
	if audit.Query.DefaultLimit == 0 {
		audit.Query.DefaultLimit = DefaultAuditQueryDefaultLimit
	}
	if audit.Query.MaxLimit == 0 {
		audit.Query.MaxLimit = DefaultAuditQueryMaxLimit
	}
}
