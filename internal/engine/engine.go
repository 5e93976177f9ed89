// Package engine ties the store, capture path, and restorer together
// behind the operations the CLI, daemon, and MCP surfaces share.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/winsnap/internal/capture"
	"github.com/1broseidon/winsnap/internal/config"
	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/notify"
	"github.com/1broseidon/winsnap/internal/restore"
	"github.com/1broseidon/winsnap/internal/store"
)

// Desktop is the live-desktop surface the engine needs: window
// scanning, display topology, and window placement. The X11 connection
// implements it.
type Desktop interface {
	capture.Scanner
	restore.Topology
	restore.Applier
	Displays() []restore.Display
	TopologySignature() string
}

// Engine exposes the snapshot and restore operations. A nil desktop
// means no display session is available; operations that need one fail
// with restore.ErrPermission.
type Engine struct {
	cfg      *config.Config
	store    *store.Store
	desktop  Desktop
	launcher restore.Launcher
	notifier *notify.Notifier
	logger   *slog.Logger
}

// New assembles an engine. desktop may be nil when no display session
// could be opened; a nil logger discards output.
func New(cfg *config.Config, st *store.Store, desktop Desktop, launcher restore.Launcher, notifier *notify.Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:      cfg,
		store:    st,
		desktop:  desktop,
		launcher: launcher,
		notifier: notifier,
		logger:   logger,
	}
}

// HasDesktop reports whether a display session is available.
func (e *Engine) HasDesktop() bool { return e.desktop != nil }

// SaveLayout captures the current windows and persists them under name.
func (e *Engine) SaveLayout(name string) (*layout.Layout, error) {
	if e.desktop == nil {
		return nil, restore.ErrPermission
	}

	states, err := capture.Scan(e.desktop, e.desktop, e.cfg.ExcludeApps, e.logger)
	if err != nil {
		return nil, err
	}
	saved, err := e.store.Save(name, states)
	if err != nil {
		return nil, err
	}

	e.logger.Info("layout saved", "layout", saved.Name, "windows", len(saved.Windows))
	e.notifier.Send("Layout saved", fmt.Sprintf("%q with %d windows", saved.Name, len(saved.Windows)))
	return saved, nil
}

// RestoreLayout loads a stored layout and reproduces it on the live
// desktop.
func (e *Engine) RestoreLayout(name string) (*restore.Report, error) {
	l, err := e.store.Load(name)
	if err != nil {
		return nil, err
	}

	restorer := restore.New(e.desktop, e.launcher, e.desktop, e.logger)
	report, err := restorer.Restore(l, e.cfg.Policy(), e.desktop != nil)
	if err != nil {
		return nil, err
	}

	counts := report.Counts()
	e.notifier.Send("Layout restored",
		fmt.Sprintf("%q: %d restored, %d not found, %d failed",
			name, counts.Restored, counts.NotFound, counts.Failed))
	return report, nil
}

// ListLayouts returns the stored layout names, sorted.
func (e *Engine) ListLayouts() ([]string, error) {
	return e.store.List()
}

// ShowLayout loads one stored layout.
func (e *Engine) ShowLayout(name string) (*layout.Layout, error) {
	return e.store.Load(name)
}

// DeleteLayout removes a stored layout.
func (e *Engine) DeleteLayout(name string) error {
	if err := e.store.Delete(name); err != nil {
		return err
	}
	e.logger.Info("layout deleted", "layout", name)
	return nil
}

// TopologySignature fingerprints the current display arrangement for
// change detection. Empty without a desktop session.
func (e *Engine) TopologySignature() (string, error) {
	if e.desktop == nil {
		return "", restore.ErrPermission
	}
	if err := e.desktop.Refresh(); err != nil {
		return "", &restore.TopologyError{Err: err}
	}
	return e.desktop.TopologySignature(), nil
}
