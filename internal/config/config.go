package config

import (
	"time"

	"github.com/heartmarshall/study-helper/internal/domain"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	Lookup     LookupConfig     `yaml:"lookup"`
	Limits     LimitsConfig     `yaml:"limits"`
	Cleanup    CleanupConfig    `yaml:"cleanup"`
	Settings   SettingsConfig   `yaml:"settings"`
	Log        LogConfig        `yaml:"log"`
	CORS       CORSConfig       `yaml:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Client     ClientConfig     `yaml:"client"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"   env:"SERVER_MAX_BODY_BYTES"   env-default:"1048576"`
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the record store.
type StorageConfig struct {
	Driver          string        `yaml:"driver"             env:"STORAGE_DRIVER"             env-default:"sqlite"`
	SQLitePath      string        `yaml:"sqlite_path"        env:"STORAGE_SQLITE_PATH"        env-default:"./study-helper.db"`
	DSN             string        `yaml:"dsn"                env:"STORAGE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"STORAGE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"STORAGE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"STORAGE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"STORAGE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	QuotaBytes      int64         `yaml:"quota_bytes"        env:"STORAGE_QUOTA_BYTES"        env-default:"5242880"`
	EnforceQuota    bool          `yaml:"enforce_quota"      env:"STORAGE_ENFORCE_QUOTA"      env-default:"false"`
}

// DictionaryConfig holds remote dictionary settings.
type DictionaryConfig struct {
	BaseURL       string        `yaml:"base_url"        env:"DICTIONARY_BASE_URL"        env-default:"https://api.dictionaryapi.dev/api/v2/entries/en"`
	Timeout       time.Duration `yaml:"timeout"         env:"DICTIONARY_TIMEOUT"         env-default:"8s"`
	RatePerSecond float64       `yaml:"rate_per_second" env:"DICTIONARY_RATE_PER_SECOND" env-default:"5"`
	Burst         int           `yaml:"burst"           env:"DICTIONARY_BURST"           env-default:"10"`
}

// LookupConfig holds page-side lookup settings.
type LookupConfig struct {
	Timeout      time.Duration `yaml:"timeout"       env:"LOOKUP_TIMEOUT"       env-default:"10s"`
	CacheTTL     time.Duration `yaml:"cache_ttl"     env:"LOOKUP_CACHE_TTL"     env-default:"5m"`
	CacheSize    int           `yaml:"cache_size"    env:"LOOKUP_CACHE_SIZE"    env-default:"100"`
	ErrorDismiss time.Duration `yaml:"error_dismiss" env:"LOOKUP_ERROR_DISMISS" env-default:"3s"`
}

// LimitsConfig holds per-domain collection caps.
type LimitsConfig struct {
	MaxHighlights int `yaml:"max_highlights" env:"LIMITS_MAX_HIGHLIGHTS" env-default:"1000"`
	MaxNotes      int `yaml:"max_notes"      env:"LIMITS_MAX_NOTES"      env-default:"500"`
}

// MaxItems returns the cap for records of type t.
func (l LimitsConfig) MaxItems(t domain.RecordType) int {
	if t == domain.RecordTypeHighlights {
		return l.MaxHighlights
	}
	return l.MaxNotes
}

// CleanupConfig holds the age thresholds of the sweeps.
type CleanupConfig struct {
	StartupDays int  `yaml:"startup_days" env:"CLEANUP_STARTUP_DAYS" env-default:"60"`
	InstallDays int  `yaml:"install_days" env:"CLEANUP_INSTALL_DAYS" env-default:"30"`
	DefaultDays int  `yaml:"default_days" env:"CLEANUP_DEFAULT_DAYS" env-default:"30"`
	OnStartup   bool `yaml:"on_startup"   env:"CLEANUP_ON_STARTUP"   env-default:"true"`
}

// SettingsConfig holds the settings written when none are stored yet.
type SettingsConfig struct {
	HighlightingEnabled bool   `yaml:"highlighting_enabled" env:"SETTINGS_HIGHLIGHTING_ENABLED" env-default:"true"`
	DefinitionsEnabled  bool   `yaml:"definitions_enabled"  env:"SETTINGS_DEFINITIONS_ENABLED"  env-default:"true"`
	NotesEnabled        bool   `yaml:"notes_enabled"        env:"SETTINGS_NOTES_ENABLED"        env-default:"true"`
	HighlightColor      string `yaml:"highlight_color"      env:"SETTINGS_HIGHLIGHT_COLOR"      env-default:"#ffeb3b"`
}

// Defaults converts the section into domain settings.
func (s SettingsConfig) Defaults() domain.Settings {
	return domain.Settings{
		HighlightingEnabled: s.HighlightingEnabled,
		DefinitionsEnabled:  s.DefinitionsEnabled,
		NotesEnabled:        s.NotesEnabled,
		HighlightColor:      s.HighlightColor,
	}
}

// LogConfig holds logging settings. An empty File logs to stderr only.
type LogConfig struct {
	Level      string `yaml:"level"        env:"LOG_LEVEL"        env-default:"info"`
	Format     string `yaml:"format"       env:"LOG_FORMAT"       env-default:"json"`
	File       string `yaml:"file"         env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"LOG_MAX_SIZE_MB"  env-default:"100"`
	MaxBackups int    `yaml:"max_backups"  env:"LOG_MAX_BACKUPS"  env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS" env-default:"28"`
}

// RateLimitConfig holds per-client limits of the message endpoint.
type RateLimitConfig struct {
	Enabled           bool          `yaml:"enabled"             env:"RATE_LIMIT_ENABLED"             env-default:"true"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" env-default:"600"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"    env:"RATE_LIMIT_CLEANUP_INTERVAL"    env-default:"1m"`
}

// ClientConfig holds settings of the command-line client.
type ClientConfig struct {
	ServerURL      string        `yaml:"server_url"      env:"CLIENT_SERVER_URL"      env-default:"http://localhost:8080"`
	Timeout        time.Duration `yaml:"timeout"         env:"CLIENT_TIMEOUT"         env-default:"15s"`
	ViewportWidth  int           `yaml:"viewport_width"  env:"CLIENT_VIEWPORT_WIDTH"  env-default:"1280"`
	ViewportHeight int           `yaml:"viewport_height" env:"CLIENT_VIEWPORT_HEIGHT" env-default:"800"`
}
