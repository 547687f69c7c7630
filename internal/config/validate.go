package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validate checks the Config for invalid or out-of-range values.
// It returns a combined error if any checks fail.
func validate(cfg *Config) error {
	var errs []string

	// Client validation
	if cfg.Client.BaseURL == "" {
		errs = append(errs, "client.base_url must not be empty")
	} else if u, err := url.Parse(cfg.Client.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("client.base_url must be an absolute URL, got %q", cfg.Client.BaseURL))
	}
	if !isValidEnum(cfg.Client.LogLevel, ValidLogLevels) {
		errs = append(errs, fmt.Sprintf("client.log_level must be one of %v, got %q", ValidLogLevels, cfg.Client.LogLevel))
	}
	if cfg.Client.DataDir == "" {
		errs = append(errs, "client.data_dir must not be empty")
	}
	if cfg.Client.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("client.timeout must be non-negative, got %d", cfg.Client.Timeout))
	}

	// Cache validation
	if cfg.Cache.TTLSeconds < 0 {
		errs = append(errs, fmt.Sprintf("cache.ttl_seconds must be non-negative, got %d", cfg.Cache.TTLSeconds))
	}
	if cfg.Cache.MaxEntries < 0 {
		errs = append(errs, fmt.Sprintf("cache.max_entries must be non-negative, got %d", cfg.Cache.MaxEntries))
	}
	if cfg.Cache.RetentionDays < 0 {
		errs = append(errs, fmt.Sprintf("cache.retention_days must be non-negative, got %d", cfg.Cache.RetentionDays))
	}

	// Relations validation
	if cfg.Relations.PageLimit < 1 {
		errs = append(errs, fmt.Sprintf("relations.page_limit must be at least 1, got %d", cfg.Relations.PageLimit))
	}

	// Tracing validation
	if cfg.Tracing.Enabled {
		if !isValidEnum(cfg.Tracing.Exporter, ValidTracingExporters) {
			errs = append(errs, fmt.Sprintf("tracing.exporter must be one of %v, got %q", ValidTracingExporters, cfg.Tracing.Exporter))
		}
		if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
			errs = append(errs, fmt.Sprintf("tracing.sample_rate must be between 0 and 1, got %g", cfg.Tracing.SampleRate))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// isValidEnum reports whether value is one of the allowed values.
func isValidEnum(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
