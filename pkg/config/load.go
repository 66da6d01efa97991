package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults,
// and validates the result.
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

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides with SNAPVAULT_SECTION_FIELD
// naming (e.g. SNAPVAULT_REGISTRY_PATH). Environment variables always
// take precedence over the file.
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

// applyEnvOverrides applies SNAPVAULT_* environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SNAPVAULT_REGISTRY_PATH"); val != "" {
		cfg.Registry.Path = val
	}
	if val := os.Getenv("SNAPVAULT_STORAGE_ROOT"); val != "" {
		cfg.Storage.Root = val
	}
	if val := os.Getenv("SNAPVAULT_QUOTA_MAX_TOTAL_BYTES"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.MaxTotalBytes = n
		}
	}
	if val := os.Getenv("SNAPVAULT_QUOTA_MAX_COUNT"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Quota.MaxCount = n
		}
	}
	if val := os.Getenv("SNAPVAULT_VERIFY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Verify.Timeout = d
		}
	}
	if val := os.Getenv("SNAPVAULT_VERIFY_FRESHNESS_WINDOW"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Verify.FreshnessWindow = d
		}
	}
	if val := os.Getenv("SNAPVAULT_CYCLE_SCHEDULE"); val != "" {
		cfg.Cycle.Schedule = val
	}
	if val := os.Getenv("SNAPVAULT_CYCLE_LEASE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Cycle.LeaseTTL = d
		}
	}
	if val := os.Getenv("SNAPVAULT_CYCLE_LEASE_PATH"); val != "" {
		cfg.Cycle.LeasePath = val
	}
	if val := os.Getenv("SNAPVAULT_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("SNAPVAULT_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}
