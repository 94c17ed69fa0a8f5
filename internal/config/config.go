package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Iron-Ham/camlock/internal/logging"
)

// Config represents the complete camlock configuration
type Config struct {
	Lock    LockConfig    `mapstructure:"lock" yaml:"lock"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LockConfig controls where lock records live and how holders heartbeat
type LockConfig struct {
	// Dir is the shared directory holding lock records.
	// If empty, defaults to the platform temp directory.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// IntervalMs is how often a holder rewrites its heartbeat (default: 2000)
	IntervalMs int `mapstructure:"interval_ms" yaml:"interval_ms"`
	// StaleMultiplier is how many intervals may pass before a record is
	// treated as abandoned (default: 2)
	StaleMultiplier int `mapstructure:"stale_multiplier" yaml:"stale_multiplier"`
	// MaxRetries bounds the fallback copy attempts of one write (default: 5)
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
	// Disabled turns device locking off entirely (default: false)
	Disabled bool `mapstructure:"disabled" yaml:"disabled"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the directory for camlock.log. If empty, logs go to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Lock: LockConfig{
			Dir:             "",
			IntervalMs:      2000,
			StaleMultiplier: 2,
			MaxRetries:      5,
			Disabled:        false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// Interval returns the heartbeat interval as a time.Duration
func (c *LockConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// StaleAfter returns the age at which a heartbeat is no longer live
func (c *LockConfig) StaleAfter() time.Duration {
	return c.Interval() * time.Duration(c.StaleMultiplier)
}

// Rotation returns the log rotation settings
func (c *LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Lock defaults
	viper.SetDefault("lock.dir", defaults.Lock.Dir)
	viper.SetDefault("lock.interval_ms", defaults.Lock.IntervalMs)
	viper.SetDefault("lock.stale_multiplier", defaults.Lock.StaleMultiplier)
	viper.SetDefault("lock.max_retries", defaults.Lock.MaxRetries)
	viper.SetDefault("lock.disabled", defaults.Lock.Disabled)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "camlock")
	}
	// Fall back to ~/.config/camlock
	home, err := os.UserHomeDir()
	if err != nil {
		return ".camlock"
	}
	return filepath.Join(home, ".config", "camlock")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
