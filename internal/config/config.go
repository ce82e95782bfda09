// Package config provides configuration management for siftarr using
// Viper. It supports configuration from files, environment variables, and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/siftarr/siftarr/internal/models"
)

// Default configuration values.
const (
	defaultServerPort       = 8080
	defaultServerTimeout    = 30 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultRaceDeadline     = 10 * time.Second
	defaultProbeStepTimeout = 5 * time.Second
	defaultCacheTTL         = 5 * time.Minute
	defaultCacheMaxEntries  = 10
	defaultMaxRetries       = 3
	defaultRetryBackoffBase = 1 * time.Second
	defaultHTTPTimeout      = 30 * time.Second
	defaultRetryAttempts    = 3
	defaultRetryDelay       = 1 * time.Second
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = 30 * time.Second
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	Database DatabaseConfig           `mapstructure:"database"`
	Logging  LoggingConfig            `mapstructure:"logging"`
	Probe    ProbeConfig              `mapstructure:"probe"`
	Filter   FilterConfig             `mapstructure:"filter"`
	Recovery RecoveryConfig           `mapstructure:"recovery"`
	HTTP     HTTPConfig               `mapstructure:"http"`
	Refresh  RefreshConfig            `mapstructure:"refresh"`
	Origins  []models.OriginCandidate `mapstructure:"origins"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds the preference store configuration.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `mapstructure:"path"`
	// LogLevel controls GORM logging: silent, error, warn, info.
	LogLevel string `mapstructure:"log_level"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// ProbeConfig holds origin probing and racing configuration.
type ProbeConfig struct {
	// RaceDeadline is the shared wall-clock deadline for a whole race.
	RaceDeadline time.Duration `mapstructure:"race_deadline"`
	// StepTimeout is the sub-deadline for the availability check inside
	// one probe.
	StepTimeout time.Duration `mapstructure:"step_timeout"`
	// CacheTTL is how long ranked race results stay fresh.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// CacheMaxEntries caps the result cache; oldest entries are evicted
	// first.
	CacheMaxEntries int `mapstructure:"cache_max_entries"`
	// SwitchThreshold is the relative latency improvement required
	// before a switch is recommended.
	SwitchThreshold float64 `mapstructure:"switch_threshold"`
}

// FilterConfig holds manifest ad-filtering configuration.
type FilterConfig struct {
	// Patterns seeds the ad pattern set. Runtime additions are persisted
	// through the store and merged on startup.
	Patterns []string `mapstructure:"patterns"`
}

// RecoveryConfig holds playback fault-recovery configuration.
type RecoveryConfig struct {
	// MaxRetries is the per-fault-class retry bound before a session is
	// declared fatal.
	MaxRetries int `mapstructure:"max_retries"`
	// BackoffBase is the base delay for the doubling retry backoff.
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// HTTPConfig holds the outbound HTTP client configuration.
type HTTPConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	CircuitThreshold int           `mapstructure:"circuit_threshold"`
	CircuitTimeout   time.Duration `mapstructure:"circuit_timeout"`
	UserAgent        string        `mapstructure:"user_agent"`
}

// RefreshConfig holds the scheduled cache-warming configuration.
type RefreshConfig struct {
	// Enabled turns periodic re-racing of pinned titles on.
	Enabled bool `mapstructure:"enabled"`
	// Cron is a 5-field cron expression for the refresh schedule.
	Cron string `mapstructure:"cron"`
	// Titles are the pinned titles to keep warm in the result cache.
	Titles []string `mapstructure:"titles"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration and are
// prefixed with SIFTARR, using underscores for nesting.
// Example: SIFTARR_SERVER_PORT=8080.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/siftarr")
		v.AddConfigPath("$HOME/.siftarr")
	}

	v.SetEnvPrefix("SIFTARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - defaults and env vars apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.path", "siftarr.db")
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Probe defaults
	v.SetDefault("probe.race_deadline", defaultRaceDeadline)
	v.SetDefault("probe.step_timeout", defaultProbeStepTimeout)
	v.SetDefault("probe.cache_ttl", defaultCacheTTL)
	v.SetDefault("probe.cache_max_entries", defaultCacheMaxEntries)
	v.SetDefault("probe.switch_threshold", 0.5)

	// Filter defaults: the common ad URL fragments seen in the wild.
	v.SetDefault("filter.patterns", []string{"/ads/", "/adjump/", "doubleclick"})

	// Recovery defaults
	v.SetDefault("recovery.max_retries", defaultMaxRetries)
	v.SetDefault("recovery.backoff_base", defaultRetryBackoffBase)

	// HTTP client defaults
	v.SetDefault("http.timeout", defaultHTTPTimeout)
	v.SetDefault("http.retry_attempts", defaultRetryAttempts)
	v.SetDefault("http.retry_delay", defaultRetryDelay)
	v.SetDefault("http.circuit_threshold", defaultCircuitThreshold)
	v.SetDefault("http.circuit_timeout", defaultCircuitTimeout)
	v.SetDefault("http.user_agent", "siftarr/1.0")

	// Refresh defaults
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.cron", "*/10 * * * *")
	v.SetDefault("refresh.titles", []string{})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.Probe.RaceDeadline <= 0 {
		return fmt.Errorf("probe.race_deadline must be positive")
	}
	if c.Probe.StepTimeout <= 0 {
		return fmt.Errorf("probe.step_timeout must be positive")
	}
	if c.Probe.StepTimeout > c.Probe.RaceDeadline {
		return fmt.Errorf("probe.step_timeout must not exceed probe.race_deadline")
	}
	if c.Probe.CacheMaxEntries < 1 {
		return fmt.Errorf("probe.cache_max_entries must be at least 1")
	}
	if c.Probe.SwitchThreshold <= 0 || c.Probe.SwitchThreshold >= 1 {
		return fmt.Errorf("probe.switch_threshold must be between 0 and 1 exclusive")
	}

	if c.Recovery.MaxRetries < 1 {
		return fmt.Errorf("recovery.max_retries must be at least 1")
	}

	for i := range c.Origins {
		if err := c.Origins[i].Validate(); err != nil {
			return fmt.Errorf("origins[%d]: %w", i, err)
		}
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
