package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 60 * time.Second
	DefaultWriteTimeout    = 180 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576   // 1MB
	DefaultMaxUploadBytes  = 104857600 // 100MB

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Quota defaults
	DefaultFreeLimit       = 5
	DefaultQuotaBackend    = "file"
	DefaultUsageFilePath   = "data/usage.json"
	DefaultUsageSQLitePath = "data/usage.db"
	DefaultCompactAfter    = 720 * time.Hour // 30 days

	// SQLite defaults (shared by ledger and artifact stores)
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Redis defaults
	DefaultRedisAddr      = "127.0.0.1:6379"
	DefaultRedisKeyPrefix = "vulcan:usage:"

	// Billing defaults
	DefaultOrdersPath   = "data/orders.json"
	DefaultBillingWatch = true

	// Artifact defaults
	DefaultArtifactDir        = "data/artifacts"
	DefaultArtifactSQLitePath = "data/artifacts.db"
	DefaultArtifactTTL        = 30 * time.Minute
	DefaultReclaimSchedule    = "*/5 * * * *"

	// Executor defaults
	DefaultPollInterval    = time.Second
	DefaultPollDeadline    = 2 * time.Minute
	DefaultMaxPollAttempts = 120
	DefaultDownloadTimeout = 2 * time.Minute

	// Tool service defaults
	DefaultConvertTimeout = 60 * time.Second
	DefaultMediaTimeout   = 30 * time.Second

	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "vulcan"
)

// ApplyDefaults fills in default values for any unset configuration fields.
// It is called automatically by LoadConfig before validation.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}

	// CORS
	if cfg.Server.CORS.AllowedOrigins == nil {
		cfg.Server.CORS.Enabled = DefaultCORSEnabled
		cfg.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.CORS.AllowedMethods == nil {
		cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if cfg.Server.CORS.AllowedHeaders == nil {
		cfg.Server.CORS.AllowedHeaders = []string{"Content-Type", "X-Request-ID", "X-Client-Token"}
	}
	if cfg.Server.CORS.MaxAge == 0 {
		cfg.Server.CORS.MaxAge = DefaultCORSMaxAge
	}

	// Quota
	if cfg.Quota.FreeLimit == 0 {
		cfg.Quota.FreeLimit = DefaultFreeLimit
	}
	if cfg.Quota.Backend == "" {
		cfg.Quota.Backend = DefaultQuotaBackend
	}
	if cfg.Quota.FilePath == "" {
		cfg.Quota.FilePath = DefaultUsageFilePath
	}
	if cfg.Quota.SQLite.Path == "" {
		cfg.Quota.SQLite.Path = DefaultUsageSQLitePath
	}
	applySQLiteDefaults(&cfg.Quota.SQLite)
	if cfg.Quota.Redis.Addr == "" {
		cfg.Quota.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Quota.Redis.KeyPrefix == "" {
		cfg.Quota.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Quota.CompactAfter == 0 {
		cfg.Quota.CompactAfter = DefaultCompactAfter
	}

	// Billing
	if cfg.Billing.OrdersPath == "" {
		cfg.Billing.OrdersPath = DefaultOrdersPath
		cfg.Billing.Watch = DefaultBillingWatch
	}

	// Artifacts
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = DefaultArtifactDir
	}
	if cfg.Artifacts.SQLite.Path == "" {
		cfg.Artifacts.SQLite.Path = DefaultArtifactSQLitePath
	}
	applySQLiteDefaults(&cfg.Artifacts.SQLite)
	if cfg.Artifacts.TTL == 0 {
		cfg.Artifacts.TTL = DefaultArtifactTTL
	}
	if cfg.Artifacts.ReclaimSchedule == "" {
		cfg.Artifacts.ReclaimSchedule = DefaultReclaimSchedule
	}

	// Executor
	if cfg.Executor.PollInterval == 0 {
		cfg.Executor.PollInterval = DefaultPollInterval
	}
	if cfg.Executor.PollDeadline == 0 {
		cfg.Executor.PollDeadline = DefaultPollDeadline
	}
	if cfg.Executor.MaxPollAttempts == 0 {
		cfg.Executor.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if cfg.Executor.DownloadTimeout == 0 {
		cfg.Executor.DownloadTimeout = DefaultDownloadTimeout
	}

	// Tools
	if cfg.Tools.Convert.Timeout == 0 {
		cfg.Tools.Convert.Timeout = DefaultConvertTimeout
	}
	if cfg.Tools.Media.Timeout == 0 {
		cfg.Tools.Media.Timeout = DefaultMediaTimeout
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}

func applySQLiteDefaults(cfg *SQLiteConfig) {
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.BusyTimeout == 0 {
		cfg.WALMode = DefaultSQLiteWALMode
		cfg.BusyTimeout = DefaultSQLiteBusyTimeout
	}
}
