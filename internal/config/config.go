// Package config loads winsnap configuration: restore timings, app
// exclusions, launch commands, and daemon behavior. Values come from
// defaults, then the YAML config file, then WINSNAP_* environment
// overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/winsnap/internal/restore"
)

const envPrefix = "winsnap"

// Config is the effective application configuration.
type Config struct {
	// LayoutsDir overrides where layout records are stored. Empty means
	// the standard data directory.
	LayoutsDir string `yaml:"layouts_dir" envconfig:"LAYOUTS_DIR"`

	// AutoRestore makes the daemon restore AutoRestoreLayout when the
	// display topology changes.
	AutoRestore            bool   `yaml:"auto_restore" envconfig:"AUTO_RESTORE"`
	AutoRestoreLayout      string `yaml:"auto_restore_layout" envconfig:"AUTO_RESTORE_LAYOUT"`
	DisplayChangeDetection bool   `yaml:"display_change_detection" envconfig:"DISPLAY_CHANGE_DETECTION"`
	ScanIntervalMs         int    `yaml:"scan_interval_ms" envconfig:"SCAN_INTERVAL_MS"`

	// Restore policy knobs, all in milliseconds.
	SettleDelayMs        int `yaml:"settle_delay_ms" envconfig:"SETTLE_DELAY_MS"`
	MaxApplyAttempts     int `yaml:"max_apply_attempts" envconfig:"MAX_APPLY_ATTEMPTS"`
	ApplyBackoffMs       int `yaml:"apply_backoff_ms" envconfig:"APPLY_BACKOFF_MS"`
	WindowPauseMs        int `yaml:"window_pause_ms" envconfig:"WINDOW_PAUSE_MS"`
	LaunchTimeoutMs      int `yaml:"launch_timeout_ms" envconfig:"LAUNCH_TIMEOUT_MS"`
	LaunchPollIntervalMs int `yaml:"launch_poll_interval_ms" envconfig:"LAUNCH_POLL_INTERVAL_MS"`

	// ExcludeApps lists app identities never captured into snapshots.
	ExcludeApps []string `yaml:"exclude_apps" envconfig:"EXCLUDE_APPS"`

	// LaunchCommands maps an app identity to the command template used
	// to launch it, e.g. "firefox" or "flatpak run {{app_id}}".
	LaunchCommands map[string]string `yaml:"launch_commands" ignored:"true"`

	// Notifications enables desktop notifications for save/restore.
	Notifications bool `yaml:"notifications" envconfig:"NOTIFICATIONS"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		AutoRestore:            false,
		DisplayChangeDetection: true,
		ScanIntervalMs:         5000,
		SettleDelayMs:          1000,
		MaxApplyAttempts:       3,
		ApplyBackoffMs:         500,
		WindowPauseMs:          200,
		LaunchTimeoutMs:        10000,
		LaunchPollIntervalMs:   500,
		LaunchCommands:         map[string]string{},
		Notifications:          true,
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() (string, error) {
	if cfgHome := os.Getenv("XDG_CONFIG_HOME"); cfgHome != "" {
		return filepath.Join(cfgHome, "winsnap", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "winsnap", "config.yaml"), nil
}

// Load reads the config from the standard location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from path. A missing file is not an error:
// defaults plus environment overrides apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.ScanIntervalMs <= 0 {
		return fmt.Errorf("scan_interval_ms must be positive, got %d", c.ScanIntervalMs)
	}
	if c.MaxApplyAttempts < 1 {
		return fmt.Errorf("max_apply_attempts must be at least 1, got %d", c.MaxApplyAttempts)
	}
	if c.LaunchTimeoutMs <= 0 {
		return fmt.Errorf("launch_timeout_ms must be positive, got %d", c.LaunchTimeoutMs)
	}
	if c.LaunchPollIntervalMs <= 0 {
		return fmt.Errorf("launch_poll_interval_ms must be positive, got %d", c.LaunchPollIntervalMs)
	}
	if c.SettleDelayMs < 0 || c.ApplyBackoffMs < 0 || c.WindowPauseMs < 0 {
		return fmt.Errorf("settle_delay_ms, apply_backoff_ms and window_pause_ms must not be negative")
	}
	if c.AutoRestore && c.AutoRestoreLayout == "" {
		return fmt.Errorf("auto_restore requires auto_restore_layout")
	}
	return nil
}

// Policy converts the config timings into a restore policy.
func (c *Config) Policy() restore.Policy {
	return restore.Policy{
		LaunchPollInterval: time.Duration(c.LaunchPollIntervalMs) * time.Millisecond,
		LaunchTimeout:      time.Duration(c.LaunchTimeoutMs) * time.Millisecond,
		SettleDelay:        time.Duration(c.SettleDelayMs) * time.Millisecond,
		ApplyAttempts:      c.MaxApplyAttempts,
		ApplyBackoff:       time.Duration(c.ApplyBackoffMs) * time.Millisecond,
		WindowPause:        time.Duration(c.WindowPauseMs) * time.Millisecond,
	}
}

// ScanInterval returns the daemon topology poll cadence.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMs) * time.Millisecond
}
