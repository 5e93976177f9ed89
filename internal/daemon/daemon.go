// Package daemon runs the background watcher: it polls the display
// topology, restores the configured layout when monitors change, and
// hot-reloads its config file.
package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/1broseidon/winsnap/internal/config"
	"github.com/1broseidon/winsnap/internal/engine"
)

// Daemon watches for display topology changes and triggers automatic
// layout restores.
type Daemon struct {
	engine     *engine.Engine
	configPath string
	logger     *slog.Logger
	reloadChan chan struct{}

	mu      sync.RWMutex
	cfg     *config.Config
	lastSig string
}

// New creates a daemon. reloadChan receives external reload requests
// (from the IPC server); it may be nil.
func New(cfg *config.Config, eng *engine.Engine, configPath string, reloadChan chan struct{}, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Daemon{
		engine:     eng,
		configPath: configPath,
		logger:     logger,
		reloadChan: reloadChan,
		cfg:        cfg,
	}
}

// Config returns the daemon's current configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// LastSignature returns the most recently observed topology signature.
func (d *Daemon) LastSignature() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastSig
}

// Run starts the watch loop. Blocks until the context is cancelled.
func (d *Daemon) Run(ctx context.Context) {
	interval := d.Config().ScanInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	watcher := d.startConfigWatcher(ctx)
	if watcher != nil {
		defer watcher.Close()
	}

	// Seed the signature so startup never counts as a change.
	if sig, err := d.engine.TopologySignature(); err == nil {
		d.setSignature(sig)
	}

	d.logger.Info("daemon started", "scan_interval", interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("daemon stopped")
			return
		case <-ticker.C:
			d.tick()
		case <-d.reloadChan:
			d.reloadConfig()
			if next := d.Config().ScanInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// tick performs one topology check.
func (d *Daemon) tick() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("daemon tick panic recovered", "error", err)
		}
	}()

	cfg := d.Config()
	if !cfg.DisplayChangeDetection {
		return
	}

	sig, err := d.engine.TopologySignature()
	if err != nil {
		d.logger.Warn("topology check failed", "error", err)
		return
	}

	last := d.LastSignature()
	d.setSignature(sig)
	if last == "" || sig == last {
		return
	}

	d.logger.Info("display topology changed", "signature", sig)
	if !cfg.AutoRestore || cfg.AutoRestoreLayout == "" {
		return
	}

	report, err := d.engine.RestoreLayout(cfg.AutoRestoreLayout)
	if err != nil {
		d.logger.Error("automatic restore failed", "layout", cfg.AutoRestoreLayout, "error", err)
		return
	}
	counts := report.Counts()
	d.logger.Info("automatic restore finished",
		"layout", cfg.AutoRestoreLayout,
		"restored", counts.Restored,
		"not_found", counts.NotFound,
		"failed", counts.Failed)
}

func (d *Daemon) setSignature(sig string) {
	d.mu.Lock()
	d.lastSig = sig
	d.mu.Unlock()
}

// reloadConfig re-reads the config file and swaps it in. A bad config
// keeps the previous one.
func (d *Daemon) reloadConfig() {
	cfg, err := config.LoadFromPath(d.configPath)
	if err != nil {
		d.logger.Error("config reload failed, keeping previous config", "error", err)
		return
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	d.logger.Info("config reloaded", "path", d.configPath)
}

// startConfigWatcher watches the config file's directory and funnels
// write events into the reload channel. Watching the directory instead
// of the file survives editors that replace the file on save.
func (d *Daemon) startConfigWatcher(ctx context.Context) *fsnotify.Watcher {
	if d.configPath == "" || d.reloadChan == nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.logger.Warn("config watcher unavailable", "error", err)
		return nil
	}
	if err := watcher.Add(filepath.Dir(d.configPath)); err != nil {
		d.logger.Warn("failed to watch config directory", "error", err)
		watcher.Close()
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != d.configPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case d.reloadChan <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return watcher
}
