// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Spec       SpecConfig       `yaml:"spec"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Database   DatabaseConfig   `yaml:"database"`
	Violations ViolationsConfig `yaml:"violations"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	OpenAPI    OpenAPIConfig    `yaml:"openapi"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SpecConfig configures the service document.
type SpecConfig struct {
	// Path is the OpenAPI document driving dispatch. Required.
	Path string `yaml:"path"`

	// Watch reloads the document when the file changes.
	Watch bool `yaml:"watch"`
}

// DispatchConfig configures operation resolution and response capture.
type DispatchConfig struct {
	// DefaultModule is the fallback handler module when neither an
	// override nor a conventional module applies.
	DefaultModule string `yaml:"default_module"`

	// CaptureLimit bounds the per-response validation copy in bytes.
	CaptureLimit int `yaml:"capture_limit"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// ViolationsConfig configures the contract-violation store.
type ViolationsConfig struct {
	// MaxEntries caps the in-memory store. Ignored for sqlite.
	MaxEntries int `yaml:"max_entries"`

	// Retention prunes sqlite records older than this on startup.
	// Zero keeps everything.
	Retention time.Duration `yaml:"retention"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// OpenAPIConfig configures serving the document back over HTTP.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /.well-known/openapi.json and /swagger
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	SPECGATE_SPEC_PATH        - OpenAPI document path (required)
//	SPECGATE_SPEC_WATCH       - Reload document on file change (default: false)
//	SPECGATE_SERVER_HOST      - Server host (default: 0.0.0.0)
//	SPECGATE_SERVER_PORT      - Server port (default: 8080)
//	SPECGATE_DEFAULT_MODULE   - Fallback handler module (default: default)
//	SPECGATE_CAPTURE_LIMIT    - Response capture limit in bytes
//	SPECGATE_DATABASE_DRIVER  - Violation store: sqlite or memory (default: sqlite)
//	SPECGATE_DATABASE_DSN     - Database path (default: specgate.db)
//	SPECGATE_LOG_LEVEL        - Log level: debug, info, warn, error (default: info)
//	SPECGATE_LOG_FORMAT       - Log format: json or console (default: json)
//	SPECGATE_METRICS_ENABLED  - Enable /metrics endpoint (default: true)
//	SPECGATE_OPENAPI_ENABLED  - Enable document endpoints (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
// This is the recommended method for Docker deployments.
func LoadWithFallback(path string) (*Config, error) {
	// Try loading from file first
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	// Check if we have enough env vars to run
	if os.Getenv("SPECGATE_SPEC_PATH") != "" {
		return LoadFromEnv()
	}

	// No config available
	return nil, fmt.Errorf("no configuration found: provide config file or set SPECGATE_SPEC_PATH")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("SPECGATE_SPEC_PATH") != ""
}

// applyEnvOverrides applies SPECGATE_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("SPECGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SPECGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SPECGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("SPECGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Document configuration
	if v := os.Getenv("SPECGATE_SPEC_PATH"); v != "" {
		cfg.Spec.Path = v
	}
	if v := os.Getenv("SPECGATE_SPEC_WATCH"); v != "" {
		cfg.Spec.Watch = parseBool(v)
	}

	// Dispatch configuration
	if v := os.Getenv("SPECGATE_DEFAULT_MODULE"); v != "" {
		cfg.Dispatch.DefaultModule = v
	}
	if v := os.Getenv("SPECGATE_CAPTURE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Dispatch.CaptureLimit = n
		}
	}

	// Database configuration
	if v := os.Getenv("SPECGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SPECGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Violation store configuration
	if v := os.Getenv("SPECGATE_VIOLATIONS_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Violations.MaxEntries = n
		}
	}
	if v := os.Getenv("SPECGATE_VIOLATIONS_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Violations.Retention = d
		}
	}

	// Logging configuration
	if v := os.Getenv("SPECGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SPECGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("SPECGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("SPECGATE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// OpenAPI configuration
	if v := os.Getenv("SPECGATE_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Dispatch.DefaultModule == "" {
		cfg.Dispatch.DefaultModule = "default"
	}
	if cfg.Dispatch.CaptureLimit == 0 {
		cfg.Dispatch.CaptureLimit = 1 << 20
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "specgate.db"
	}

	if cfg.Violations.MaxEntries == 0 {
		cfg.Violations.MaxEntries = 1000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validate(cfg *Config) error {
	if cfg.Spec.Path == "" {
		return fmt.Errorf("spec.path is required")
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.driver is 'sqlite'")
	}

	if cfg.Dispatch.CaptureLimit < 0 {
		return fmt.Errorf("dispatch.capture_limit must not be negative, got %d", cfg.Dispatch.CaptureLimit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
