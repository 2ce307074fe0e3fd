package config

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Storage.validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if c.Dictionary.Timeout <= 0 {
		return fmt.Errorf("dictionary.timeout must be > 0 (got %v)", c.Dictionary.Timeout)
	}
	if c.Dictionary.RatePerSecond <= 0 || c.Dictionary.Burst < 1 {
		return fmt.Errorf("dictionary.rate_per_second must be > 0 and burst >= 1 (got %v, %d)",
			c.Dictionary.RatePerSecond, c.Dictionary.Burst)
	}

	if err := c.Lookup.validate(); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if c.Limits.MaxHighlights <= 0 || c.Limits.MaxNotes <= 0 {
		return fmt.Errorf("limits must be > 0 (got highlights=%d, notes=%d)", c.Limits.MaxHighlights, c.Limits.MaxNotes)
	}

	if c.Cleanup.StartupDays <= 0 || c.Cleanup.InstallDays <= 0 || c.Cleanup.DefaultDays <= 0 {
		return fmt.Errorf("cleanup days must be > 0")
	}

	if !domain.IsHexColor(c.Settings.HighlightColor) {
		return fmt.Errorf("settings.highlight_color must be a hex color (got %q)", c.Settings.HighlightColor)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be > 0 (got %d)", c.RateLimit.RequestsPerMinute)
	}

	return nil
}

func (s *StorageConfig) validate() error {
	switch s.Driver {
	case DriverMemory:
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for driver %q", s.Driver)
		}
	case DriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("dsn is required for driver %q", s.Driver)
		}
	default:
		return fmt.Errorf("unknown driver %q", s.Driver)
	}
	if s.QuotaBytes <= 0 {
		return fmt.Errorf("quota_bytes must be > 0 (got %d)", s.QuotaBytes)
	}
	return nil
}

func (l *LookupConfig) validate() error {
	if l.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", l.Timeout)
	}
	if l.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be > 0 (got %v)", l.CacheTTL)
	}
	if l.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be > 0 (got %d)", l.CacheSize)
	}
	if l.ErrorDismiss <= 0 {
		return fmt.Errorf("error_dismiss must be > 0 (got %v)", l.ErrorDismiss)
	}
	return nil
}
