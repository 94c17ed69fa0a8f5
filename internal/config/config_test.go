package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	// Verify default lock config
	if cfg.Lock.Dir != "" {
		t.Errorf("Lock.Dir = %q, want empty", cfg.Lock.Dir)
	}
	if cfg.Lock.IntervalMs != 2000 {
		t.Errorf("Lock.IntervalMs = %d, want 2000", cfg.Lock.IntervalMs)
	}
	if cfg.Lock.StaleMultiplier != 2 {
		t.Errorf("Lock.StaleMultiplier = %d, want 2", cfg.Lock.StaleMultiplier)
	}
	if cfg.Lock.MaxRetries != 5 {
		t.Errorf("Lock.MaxRetries = %d, want 5", cfg.Lock.MaxRetries)
	}
	if cfg.Lock.Disabled {
		t.Error("Lock.Disabled should be false by default")
	}

	// Verify default logging config
	if !cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("Logging.MaxSizeMB = %d, want 10", cfg.Logging.MaxSizeMB)
	}
	if cfg.Logging.MaxBackups != 3 {
		t.Errorf("Logging.MaxBackups = %d, want 3", cfg.Logging.MaxBackups)
	}
}

func TestLockConfig_Durations(t *testing.T) {
	tests := []struct {
		intervalMs int
		multiplier int
		interval   time.Duration
		staleAfter time.Duration
	}{
		{2000, 2, 2 * time.Second, 4 * time.Second},
		{500, 3, 500 * time.Millisecond, 1500 * time.Millisecond},
		{0, 2, 0, 0},
	}

	for _, tt := range tests {
		cfg := LockConfig{IntervalMs: tt.intervalMs, StaleMultiplier: tt.multiplier}
		if got := cfg.Interval(); got != tt.interval {
			t.Errorf("Interval() with %dms = %v, want %v", tt.intervalMs, got, tt.interval)
		}
		if got := cfg.StaleAfter(); got != tt.staleAfter {
			t.Errorf("StaleAfter() with %dms x%d = %v, want %v", tt.intervalMs, tt.multiplier, got, tt.staleAfter)
		}
	}
}

func TestLoggingConfig_Rotation(t *testing.T) {
	cfg := LoggingConfig{MaxSizeMB: 20, MaxBackups: 5, Compress: true}
	rc := cfg.Rotation()
	if rc.MaxSizeMB != 20 || rc.MaxBackups != 5 || !rc.Compress {
		t.Errorf("Rotation() = %+v", rc)
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		result := ConfigDir()
		expected := filepath.Join("/custom/config", "camlock")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		result := ConfigDir()

		// Should be based on home directory
		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, ".config", "camlock")
		if result != expected {
			t.Errorf("ConfigDir() = %q, want %q", result, expected)
		}
	})
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	result := ConfigFile()
	expected := filepath.Join("/custom/config", "camlock", "config.yaml")
	if result != expected {
		t.Errorf("ConfigFile() = %q, want %q", result, expected)
	}
}

func TestGet(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	// Set defaults in viper first (normally done by cmd init)
	SetDefaults()

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}
	if cfg.Lock.IntervalMs != 2000 {
		t.Errorf("Get().Lock.IntervalMs = %d, want 2000", cfg.Lock.IntervalMs)
	}
}

func TestLoad_FromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "lock:\n  dir: /var/run/camlock\n  interval_ms: 500\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Lock.Dir != "/var/run/camlock" {
		t.Errorf("Lock.Dir = %q, want /var/run/camlock", cfg.Lock.Dir)
	}
	if cfg.Lock.IntervalMs != 500 {
		t.Errorf("Lock.IntervalMs = %d, want 500", cfg.Lock.IntervalMs)
	}
	// Keys missing from the file keep their defaults
	if cfg.Lock.MaxRetries != 5 {
		t.Errorf("Lock.MaxRetries = %d, want 5", cfg.Lock.MaxRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
	viper.Set("lock.interval_ms", 0)
	viper.Set("lock.max_retries", 0)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected validation error")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("Load() returned %d errors, want 2: %v", len(verrs), verrs)
	}

	// Get falls back to defaults
	if cfg := Get(); cfg.Lock.IntervalMs != 2000 {
		t.Errorf("Get().Lock.IntervalMs = %d, want default 2000", cfg.Lock.IntervalMs)
	}
}
