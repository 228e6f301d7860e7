package config

import "time"

// Config is the root configuration structure for Vulcan. It contains all
// configuration sections for the HTTP gateway, the usage quota ledger, the
// billing collaborator, the artifact store, capability execution, the
// registered tools, and telemetry.
type Config struct {
	// Server contains HTTP gateway configuration including listen address,
	// timeouts, and upload limits.
	Server ServerConfig `yaml:"server"`

	// Quota contains configuration for the usage ledger: the free-tier
	// limit and the persistence backend.
	Quota QuotaConfig `yaml:"quota"`

	// Billing contains configuration for the external billing collaborator
	// (the order ledger consulted for premium status).
	Billing BillingConfig `yaml:"billing"`

	// Artifacts contains configuration for the artifact store and its
	// retention sweep.
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Executor contains configuration for capability execution: poll
	// cadence, deadlines, and retry bounds for asynchronous jobs.
	Executor ExecutorConfig `yaml:"executor"`

	// Tools contains configuration for the external processing services
	// backing the registered tools.
	Tools ToolsConfig `yaml:"tools"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP gateway server.
type ServerConfig struct {
	// ListenAddress is the address and port for the gateway to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Uploads count against this timeout.
	// Default: 60s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Processing time counts against this timeout, so it must
	// exceed the executor's poll deadline.
	// Default: 180s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxUploadBytes is the maximum accepted size of a multipart upload
	// body. Requests exceeding it are rejected before processing.
	// Default: 104857600 (100MB)
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Use ["*"] to allow all origins.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Content-Type", "X-Request-ID", "X-Client-Token"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600 (1 hour)
	MaxAge int `yaml:"max_age"`
}

// QuotaConfig contains configuration for the usage ledger.
type QuotaConfig struct {
	// FreeLimit is the number of successful tool runs a non-premium
	// identity may perform.
	// Default: 5
	FreeLimit int `yaml:"free_limit"`

	// Backend selects the ledger persistence backend.
	// One of: "file", "memory", "sqlite", "redis".
	// Default: "file"
	Backend string `yaml:"backend"`

	// FilePath is the path of the JSON record set used by the file backend.
	// Default: "data/usage.json"
	FilePath string `yaml:"file_path"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Redis configures the redis backend for multi-process deployments.
	Redis RedisConfig `yaml:"redis"`

	// CompactAfter is how long an identity may stay idle before its usage
	// record becomes eligible for compaction. Zero disables compaction.
	// Default: 720h (30 days)
	CompactAfter time.Duration `yaml:"compact_after"`
}

// SQLiteConfig contains connection settings for a SQLite-backed store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RedisConfig contains connection settings for the redis ledger backend.
type RedisConfig struct {
	// Addr is the redis server address ("host:port").
	// Default: "127.0.0.1:6379"
	Addr string `yaml:"addr"`

	// Password is the redis AUTH password. Empty disables auth.
	Password string `yaml:"password"`

	// DB is the redis database index.
	// Default: 0
	DB int `yaml:"db"`

	// KeyPrefix is prepended to every ledger key.
	// Default: "vulcan:usage:"
	KeyPrefix string `yaml:"key_prefix"`
}

// BillingConfig contains configuration for the billing collaborator.
type BillingConfig struct {
	// OrdersPath is the path of the order ledger JSON consulted for
	// premium status.
	// Default: "data/orders.json"
	OrdersPath string `yaml:"orders_path"`

	// Watch enables an fsnotify watcher that invalidates the cached order
	// ledger when the file changes. When disabled the ledger is re-read
	// on every premium check.
	// Default: true
	Watch bool `yaml:"watch"`
}

// ArtifactsConfig contains configuration for the artifact store.
type ArtifactsConfig struct {
	// Dir is the directory holding artifact blobs.
	// Default: "data/artifacts"
	Dir string `yaml:"dir"`

	// SQLite configures the metadata database.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// TTL is how long an artifact stays retrievable after creation.
	// Default: 30m
	TTL time.Duration `yaml:"ttl"`

	// ReclaimSchedule is a cron expression for the retention sweep.
	// Empty disables scheduled reclamation.
	// Default: "*/5 * * * *"
	ReclaimSchedule string `yaml:"reclaim_schedule"`
}

// ExecutorConfig contains configuration for capability execution.
type ExecutorConfig struct {
	// PollInterval is the delay between status polls for asynchronous jobs.
	// Default: 1s
	PollInterval time.Duration `yaml:"poll_interval"`

	// PollDeadline is the overall wall-clock budget for an asynchronous
	// job, measured from submission. Exceeding it fails the request with
	// a poll timeout.
	// Default: 2m
	PollDeadline time.Duration `yaml:"poll_deadline"`

	// MaxPollAttempts bounds the number of status polls regardless of the
	// deadline. Zero means the deadline alone bounds the loop.
	// Default: 120
	MaxPollAttempts int `yaml:"max_poll_attempts"`

	// DownloadTimeout bounds a single result download from an upstream
	// service, separate from the processing deadline.
	// Default: 2m
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// ToolsConfig contains configuration for the external processing services.
type ToolsConfig struct {
	// Convert configures the cloud document-conversion service.
	Convert ConvertConfig `yaml:"convert"`

	// Media configures the media resolver service for URL-driven tools.
	Media MediaConfig `yaml:"media"`
}

// ConvertConfig contains configuration for the document-conversion service.
type ConvertConfig struct {
	// BaseURL is the service API root.
	// Example: "https://api.converter.example/v3"
	BaseURL string `yaml:"base_url"`

	// TokenURL is the OAuth2 client-credentials token endpoint.
	TokenURL string `yaml:"token_url"`

	// ClientID is the OAuth2 client id.
	ClientID string `yaml:"client_id"`

	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `yaml:"client_secret"`

	// Timeout bounds a single API call to the service.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// MediaConfig contains configuration for the media resolver service.
type MediaConfig struct {
	// ResolverURL is the endpoint that resolves a page URL into a direct
	// media URL and metadata.
	ResolverURL string `yaml:"resolver_url"`

	// Timeout bounds the resolver call. The media download itself is
	// bounded by the executor's download timeout.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus namespace for all metrics.
	// Default: "vulcan"
	Namespace string `yaml:"namespace"`

	// RequestDurationBuckets overrides the histogram buckets for request
	// durations, in seconds.
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
