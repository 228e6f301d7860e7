package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention VULCAN_SECTION_FIELD (e.g., VULCAN_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
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

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format VULCAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("VULCAN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("VULCAN_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("VULCAN_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("VULCAN_SERVER_MAX_UPLOAD_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxUploadBytes = n
		}
	}

	// Quota overrides
	if val := os.Getenv("VULCAN_QUOTA_FREE_LIMIT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Quota.FreeLimit = n
		}
	}
	if val := os.Getenv("VULCAN_QUOTA_BACKEND"); val != "" {
		cfg.Quota.Backend = val
	}
	if val := os.Getenv("VULCAN_QUOTA_FILE_PATH"); val != "" {
		cfg.Quota.FilePath = val
	}
	if val := os.Getenv("VULCAN_QUOTA_REDIS_ADDR"); val != "" {
		cfg.Quota.Redis.Addr = val
	}
	if val := os.Getenv("VULCAN_QUOTA_REDIS_PASSWORD"); val != "" {
		cfg.Quota.Redis.Password = val
	}

	// Billing overrides
	if val := os.Getenv("VULCAN_BILLING_ORDERS_PATH"); val != "" {
		cfg.Billing.OrdersPath = val
	}
	if val := os.Getenv("VULCAN_BILLING_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Billing.Watch = b
		}
	}

	// Artifact overrides
	if val := os.Getenv("VULCAN_ARTIFACTS_DIR"); val != "" {
		cfg.Artifacts.Dir = val
	}
	if val := os.Getenv("VULCAN_ARTIFACTS_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Artifacts.TTL = d
		}
	}
	if val := os.Getenv("VULCAN_ARTIFACTS_RECLAIM_SCHEDULE"); val != "" {
		cfg.Artifacts.ReclaimSchedule = val
	}

	// Executor overrides
	if val := os.Getenv("VULCAN_EXECUTOR_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Executor.PollInterval = d
		}
	}
	if val := os.Getenv("VULCAN_EXECUTOR_POLL_DEADLINE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Executor.PollDeadline = d
		}
	}

	// Tool service overrides (credentials are typically supplied this way)
	if val := os.Getenv("VULCAN_CONVERT_BASE_URL"); val != "" {
		cfg.Tools.Convert.BaseURL = val
	}
	if val := os.Getenv("VULCAN_CONVERT_TOKEN_URL"); val != "" {
		cfg.Tools.Convert.TokenURL = val
	}
	if val := os.Getenv("VULCAN_CONVERT_CLIENT_ID"); val != "" {
		cfg.Tools.Convert.ClientID = val
	}
	if val := os.Getenv("VULCAN_CONVERT_CLIENT_SECRET"); val != "" {
		cfg.Tools.Convert.ClientSecret = val
	}
	if val := os.Getenv("VULCAN_MEDIA_RESOLVER_URL"); val != "" {
		cfg.Tools.Media.ResolverURL = val
	}

	// Telemetry overrides
	if val := os.Getenv("VULCAN_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("VULCAN_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("VULCAN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
