package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	want := DefaultConfig()
	if cfg.ScanIntervalMs != want.ScanIntervalMs ||
		cfg.MaxApplyAttempts != want.MaxApplyAttempts ||
		cfg.SettleDelayMs != want.SettleDelayMs {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !cfg.Notifications || !cfg.DisplayChangeDetection {
		t.Error("notifications and display change detection should default on")
	}
}

func TestLoadFromPath_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
settle_delay_ms: 250
max_apply_attempts: 5
exclude_apps:
  - org.gnome.Nautilus
launch_commands:
  firefox: firefox --new-window
notifications: false
`)
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SettleDelayMs != 250 || cfg.MaxApplyAttempts != 5 {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Notifications {
		t.Error("notifications should be disabled")
	}
	// Unset keys keep their defaults.
	if cfg.LaunchTimeoutMs != 10000 {
		t.Errorf("launch_timeout_ms = %d, want default 10000", cfg.LaunchTimeoutMs)
	}
	if cfg.LaunchCommands["firefox"] != "firefox --new-window" {
		t.Errorf("launch_commands not parsed: %+v", cfg.LaunchCommands)
	}
	if len(cfg.ExcludeApps) != 1 || cfg.ExcludeApps[0] != "org.gnome.Nautilus" {
		t.Errorf("exclude_apps not parsed: %+v", cfg.ExcludeApps)
	}
}

func TestLoadFromPath_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "settle_delay_ms: 250\n")
	t.Setenv("WINSNAP_SETTLE_DELAY_MS", "900")
	t.Setenv("WINSNAP_AUTO_RESTORE", "true")
	t.Setenv("WINSNAP_AUTO_RESTORE_LAYOUT", "desk")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SettleDelayMs != 900 {
		t.Errorf("env override not applied, settle_delay_ms = %d", cfg.SettleDelayMs)
	}
	if !cfg.AutoRestore || cfg.AutoRestoreLayout != "desk" {
		t.Errorf("auto restore env overrides not applied: %+v", cfg)
	}
}

func TestLoadFromPath_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "settle_delay_ms: [not a number\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"zero scan interval", func(c *Config) { c.ScanIntervalMs = 0 }, "scan_interval_ms"},
		{"zero apply attempts", func(c *Config) { c.MaxApplyAttempts = 0 }, "max_apply_attempts"},
		{"zero launch timeout", func(c *Config) { c.LaunchTimeoutMs = 0 }, "launch_timeout_ms"},
		{"zero poll interval", func(c *Config) { c.LaunchPollIntervalMs = 0 }, "launch_poll_interval_ms"},
		{"negative backoff", func(c *Config) { c.ApplyBackoffMs = -1 }, "not be negative"},
		{"auto restore without layout", func(c *Config) { c.AutoRestore = true }, "auto_restore_layout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPolicyConversion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SettleDelayMs = 1500
	cfg.MaxApplyAttempts = 4

	p := cfg.Policy()
	if p.SettleDelay != 1500*time.Millisecond {
		t.Errorf("settle delay = %v", p.SettleDelay)
	}
	if p.ApplyAttempts != 4 {
		t.Errorf("apply attempts = %d", p.ApplyAttempts)
	}
	if p.LaunchTimeout != 10*time.Second || p.LaunchPollInterval != 500*time.Millisecond {
		t.Errorf("launch timings = %v/%v", p.LaunchTimeout, p.LaunchPollInterval)
	}
	if cfg.ScanInterval() != 5*time.Second {
		t.Errorf("scan interval = %v", cfg.ScanInterval())
	}
}
