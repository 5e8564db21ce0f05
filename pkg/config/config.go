package config

import "time"

// Config is the root configuration structure for the chat relay.
type Config struct {
	// Proxy contains HTTP server configuration including listen address,
	// timeouts, and CORS.
	Proxy ProxyConfig `yaml:"proxy"`

	// Relay contains request handling defaults: fallback provider and model,
	// the relay-wide credential, the system prompt and history handling.
	Relay RelayConfig `yaml:"relay"`

	// Providers contains the upstream provider registry.
	// Keys are provider ids (e.g., "openai", "anthropic").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Catalog configures the model list served by GET /api/models.
	Catalog CatalogConfig `yaml:"catalog"`

	// Attachments configures how file references are resolved to text.
	Attachments AttachmentsConfig `yaml:"attachments"`

	// Credentials configures how ${secret:name} references are resolved.
	Credentials CredentialsConfig `yaml:"credentials"`

	// Audit configures the per-request audit log.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP server.
type ProxyConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "0.0.0.0:3000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Zero disables it, which streaming responses require.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxRequestBodyBytes limits the chat request body.
	// Default: 10485760 (10MB)
	MaxRequestBodyBytes int64 `yaml:"max_request_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins. ["*"] allows all.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Content-Type", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the client.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls Access-Control-Allow-Credentials.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// History modes.
const (
	// HistoryModeFull forwards the client's conversation history.
	HistoryModeFull = "history"

	// HistoryModeSingle ignores history and sends only the latest message.
	HistoryModeSingle = "single"
)

// RelayConfig contains defaults applied to every chat request.
type RelayConfig struct {
	// DefaultProvider is used when neither the request, the catalog nor the
	// model name identifies a provider.
	// Default: "openai"
	DefaultProvider string `yaml:"default_provider"`

	// DefaultModel is used when the request names no model.
	// Default: "gpt-3.5-turbo"
	DefaultModel string `yaml:"default_model"`

	// DefaultAPIKey is the relay-wide credential used when neither the
	// request nor the provider supplies one. Usually set via OPENAI_API_KEY.
	DefaultAPIKey string `yaml:"default_api_key"`

	// SystemPrompt is prepended when the request carries none.
	// Default: "You are a helpful assistant."
	SystemPrompt string `yaml:"system_prompt"`

	// HistoryMode selects "history" (forward prior turns) or "single".
	// Default: "history"
	HistoryMode string `yaml:"history_mode"`

	// MaxLineBytes is the largest single upstream SSE line accepted.
	// Default: 1048576
	MaxLineBytes int `yaml:"max_line_bytes"`

	// MaxResponseBytes bounds non-streaming upstream bodies.
	// Default: 33554432
	MaxResponseBytes int64 `yaml:"max_response_bytes"`
}

// ProviderConfig contains configuration for a single upstream provider.
type ProviderConfig struct {
	// BaseURL is the default endpoint. A bare base URL gets
	// "/chat/completions" appended; a full URL is used verbatim.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the provider's default credential.
	APIKey string `yaml:"api_key"`

	// Timeout bounds the wait for upstream response headers.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// Headers are extra headers sent on every call to this provider.
	Headers map[string]string `yaml:"headers"`

	// ResponseShapes is the ordered list of response shapes recognized for
	// this provider. Options: "error", "openai", "anthropic", "gemini", "generic".
	// Default: ["error", "openai", "anthropic", "gemini", "generic"]
	ResponseShapes []string `yaml:"response_shapes"`

	// MaxIdleConns is the maximum number of idle pooled connections.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections stay pooled.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// CatalogConfig configures the model catalog.
type CatalogConfig struct {
	// ModelsFile is an optional YAML file replacing the built-in model list.
	ModelsFile string `yaml:"models_file"`

	// Watch reloads ModelsFile when it changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce is the quiet period before a changed file is reloaded.
	// Default: 100ms
	Debounce time.Duration `yaml:"debounce"`
}

// CredentialsConfig configures secret reference resolution for provider
// API keys and headers.
type CredentialsConfig struct {
	// EnvPrefix is prepended to the upper-cased secret name to form the
	// environment variable that holds it.
	// Default: "CHATRELAY_SECRET_"
	EnvPrefix string `yaml:"env_prefix"`

	// Dir is a directory of secret files, one secret per file. Files must
	// be mode 0600 or 0400. Empty disables file secrets.
	Dir string `yaml:"dir"`

	// SSMPrefix enables AWS Systems Manager Parameter Store lookups. The
	// secret name is appended to the prefix to form the parameter name.
	// Empty disables Parameter Store.
	SSMPrefix string `yaml:"ssm_prefix"`
}

// AttachmentsConfig configures file reference resolution.
type AttachmentsConfig struct {
	// UploadDir is the directory uploaded files are stored in.
	// Default: "uploads"
	UploadDir string `yaml:"upload_dir"`

	// MaxFileBytes is the largest attachment read from disk.
	// Default: 52428800 (50MB)
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// ConvertHTML converts .html/.htm attachments to Markdown before inlining.
	// Default: false
	ConvertHTML bool `yaml:"convert_html"`
}

// AuditConfig configures the request audit log.
type AuditConfig struct {
	// Enabled controls whether audit records are written.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite AuditSQLiteConfig `yaml:"sqlite"`

	// Recorder configures asynchronous recording.
	Recorder AuditRecorderConfig `yaml:"recorder"`

	// Retention configures record pruning.
	Retention AuditRetentionConfig `yaml:"retention"`

	// Query configures query limits.
	Query AuditQueryConfig `yaml:"query"`
}

// SQLite driver names.
const (
	// SQLiteDriverPure is modernc.org/sqlite, which needs no cgo.
	SQLiteDriverPure = "sqlite"

	// SQLiteDriverCGO is github.com/mattn/go-sqlite3.
	SQLiteDriverCGO = "sqlite3"
)

// AuditSQLiteConfig contains SQLite backend configuration.
type AuditSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver: "sqlite" or "sqlite3".
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the connection pool size.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the idle pool size.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditRecorderConfig configures asynchronous audit recording.
type AuditRecorderConfig struct {
	// AsyncBuffer is the pending record queue size.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AuditRetentionConfig configures audit record pruning.
type AuditRetentionConfig struct {
	// Days is how long records are kept. Zero keeps records forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords caps the number of stored records. Zero means no cap.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is the cron expression for pruning runs.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// AuditQueryConfig configures audit query limits.
type AuditQueryConfig struct {
	// DefaultLimit applies when a query sets no limit.
	// Default: 100
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps any query limit.
	// Default: 10000
	MaxLimit int `yaml:"max_limit"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactCredentials masks API keys and bearer tokens in log attributes.
	// Default: true
	RedactCredentials bool `yaml:"redact_credentials"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "chatrelay"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "relay"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for stream duration (seconds).
	// Default: [0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`

	// FirstDeltaBuckets defines histogram buckets for time to first delta (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10]
	FirstDeltaBuckets []float64 `yaml:"first_delta_buckets"`
}
