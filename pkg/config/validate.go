package config

import (
	"fmt"
	"strings"
)

// FieldError represents a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "retention.tiers[1].name").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every validation failure in a configuration.
type ValidationError struct {
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

// Validate checks the whole configuration and returns a ValidationError
// carrying every failure, or nil when the configuration is valid.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateRegistry(&cfg.Registry)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateQuota(&cfg.Quota)...)
	errs = append(errs, validateDurations(cfg)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateRegistry(cfg *RegistryConfig) []FieldError {
	var errs []FieldError
	if cfg.Path == "" {
		errs = append(errs, FieldError{"registry.path", "must not be empty"})
	}
	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{"registry.max_open_conns", "must be non-negative"})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{"registry.max_idle_conns", "must be non-negative"})
	}
	return errs
}

// validateRetention delegates the structural rules (granularity order,
// keep counts) to the policy's own validation so the config layer and
// the evaluator can never disagree.
func validateRetention(cfg *RetentionConfig) []FieldError {
	if err := cfg.Policy().Validate(); err != nil {
		return []FieldError{{"retention", err.Error()}}
	}
	return nil
}

func validateQuota(cfg *QuotaConfig) []FieldError {
	var errs []FieldError
	if cfg.MaxTotalBytes < 0 {
		errs = append(errs, FieldError{"quota.max_total_bytes", "must be non-negative (0 for unlimited)"})
	}
	if cfg.MaxCount < 0 {
		errs = append(errs, FieldError{"quota.max_count", "must be non-negative (0 for unlimited)"})
	}
	return errs
}

func validateDurations(cfg *Config) []FieldError {
	var errs []FieldError
	if cfg.Verify.Timeout <= 0 {
		errs = append(errs, FieldError{"verify.timeout", "must be positive"})
	}
	if cfg.Verify.FreshnessWindow <= 0 {
		errs = append(errs, FieldError{"verify.freshness_window", "must be positive"})
	}
	if cfg.Prune.DeleteTimeout <= 0 {
		errs = append(errs, FieldError{"prune.delete_timeout", "must be positive"})
	}
	if cfg.Cycle.LeaseTTL <= 0 {
		errs = append(errs, FieldError{"cycle.lease_ttl", "must be positive"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("unknown level %q (want debug, info, warn, or error)", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("unknown format %q (want json or text)", cfg.Logging.Format)})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{"telemetry.metrics.listen_address",
			"must not be empty when metrics are enabled"})
	}
	return errs
}
