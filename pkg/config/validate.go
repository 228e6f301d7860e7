package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError represents a configuration validation failure.
type ValidationError struct {
	// Field is the configuration field that failed validation.
	Field string

	// Message describes why validation failed.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration field %q: %s", e.Field, e.Message)
}

// Validate checks the configuration for consistency and returns the first
// validation error encountered. It assumes defaults have already been applied.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}
	if err := validateQuota(&cfg.Quota); err != nil {
		return err
	}
	if err := validateArtifacts(&cfg.Artifacts); err != nil {
		return err
	}
	if err := validateExecutor(&cfg.Executor); err != nil {
		return err
	}
	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return err
	}
	return nil
}

func validateServer(cfg *ServerConfig) error {
	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		return &ValidationError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("must be host:port, got %q", cfg.ListenAddress),
		}
	}
	if cfg.MaxUploadBytes < 0 {
		return &ValidationError{
			Field:   "server.max_upload_bytes",
			Message: "must be non-negative",
		}
	}
	return nil
}

func validateQuota(cfg *QuotaConfig) error {
	if cfg.FreeLimit < 0 {
		return &ValidationError{
			Field:   "quota.free_limit",
			Message: "must be non-negative",
		}
	}
	switch cfg.Backend {
	case "file", "memory", "sqlite", "redis":
	default:
		return &ValidationError{
			Field:   "quota.backend",
			Message: fmt.Sprintf("must be one of file, memory, sqlite, redis; got %q", cfg.Backend),
		}
	}
	if cfg.Backend == "file" && cfg.FilePath == "" {
		return &ValidationError{
			Field:   "quota.file_path",
			Message: "required for the file backend",
		}
	}
	if cfg.Backend == "redis" && cfg.Redis.Addr == "" {
		return &ValidationError{
			Field:   "quota.redis.addr",
			Message: "required for the redis backend",
		}
	}
	return nil
}

func validateArtifacts(cfg *ArtifactsConfig) error {
	if cfg.Dir == "" {
		return &ValidationError{
			Field:   "artifacts.dir",
			Message: "must not be empty",
		}
	}
	if cfg.TTL <= 0 {
		return &ValidationError{
			Field:   "artifacts.ttl",
			Message: "must be positive",
		}
	}
	if cfg.ReclaimSchedule != "" {
		if _, err := cron.ParseStandard(cfg.ReclaimSchedule); err != nil {
			return &ValidationError{
				Field:   "artifacts.reclaim_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			}
		}
	}
	return nil
}

func validateExecutor(cfg *ExecutorConfig) error {
	if cfg.PollInterval <= 0 {
		return &ValidationError{
			Field:   "executor.poll_interval",
			Message: "must be positive",
		}
	}
	if cfg.PollDeadline <= 0 {
		return &ValidationError{
			Field:   "executor.poll_deadline",
			Message: "must be positive",
		}
	}
	if cfg.MaxPollAttempts < 0 {
		return &ValidationError{
			Field:   "executor.max_poll_attempts",
			Message: "must be non-negative",
		}
	}
	if cfg.PollDeadline < cfg.PollInterval {
		return &ValidationError{
			Field:   "executor.poll_deadline",
			Message: "must be at least the poll interval",
		}
	}
	return nil
}

func validateTelemetry(cfg *TelemetryConfig) error {
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error; got %q", cfg.Logging.Level),
		}
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		return &ValidationError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text; got %q", cfg.Logging.Format),
		}
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return &ValidationError{
			Field:   "telemetry.metrics.path",
			Message: "must start with /",
		}
	}
	return nil
}
