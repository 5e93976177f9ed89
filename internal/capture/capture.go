// Package capture builds window snapshots from the live desktop.
package capture

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/restore"
)

// WindowMeta is the full metadata for one live window, as read from
// the OS.
type WindowMeta struct {
	AppName   string
	AppID     string
	Title     string
	Frame     layout.Frame // absolute screen coordinates
	Level     layout.Level
	Minimized bool
	Hidden    bool
}

// Scanner reads all capturable windows from the OS.
type Scanner interface {
	ScanWindows() ([]WindowMeta, error)
}

// Topology lists the current displays for window-to-display
// assignment.
type Topology interface {
	Refresh() error
	Displays() []restore.Display
	MainDisplay() (restore.Display, bool)
}

// Scan captures the current window states. Each window is assigned to
// the display containing its frame center (main display when none
// contains it), and its origin is stored display-local so a later
// restore can remap it onto whatever topology exists then. Windows
// matching an excluded app identity, or with no usable identity or
// title, are skipped.
func Scan(scanner Scanner, topo Topology, exclude []string, logger *slog.Logger) ([]layout.WindowState, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := topo.Refresh(); err != nil {
		return nil, fmt.Errorf("failed to read display topology: %w", err)
	}
	metas, err := scanner.ScanWindows()
	if err != nil {
		return nil, fmt.Errorf("failed to scan windows: %w", err)
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[strings.TrimSpace(id)] = struct{}{}
	}

	displays := topo.Displays()
	var states []layout.WindowState
	for _, m := range metas {
		if _, ok := excluded[m.AppID]; ok {
			continue
		}
		if strings.TrimSpace(m.AppName) == "" || strings.TrimSpace(m.AppID) == "" {
			logger.Debug("skipping window without identity", "title", m.Title)
			continue
		}
		if strings.TrimSpace(m.Title) == "" {
			// Untitled windows cannot be matched back on restore.
			logger.Debug("skipping untitled window", "app_id", m.AppID)
			continue
		}

		display, ok := displayFor(m.Frame, displays)
		if !ok {
			if display, ok = topo.MainDisplay(); !ok {
				// A session with no displays cannot produce a valid
				// snapshot entry for this window.
				logger.Warn("no display for window, skipping",
					"app_id", m.AppID, "title", m.Title)
				continue
			}
		}

		frame := m.Frame
		frame.X -= display.Frame.X
		frame.Y -= display.Frame.Y

		states = append(states, layout.WindowState{
			AppName:   m.AppName,
			AppID:     m.AppID,
			Title:     m.Title,
			Frame:     frame,
			DisplayID: display.ID,
			Level:     m.Level,
			Minimized: m.Minimized,
			Hidden:    m.Hidden,
		})
	}
	return states, nil
}

// displayFor finds the display containing the frame's center point.
func displayFor(f layout.Frame, displays []restore.Display) (restore.Display, bool) {
	cx := f.X + f.Width/2
	cy := f.Y + f.Height/2
	for _, d := range displays {
		if cx >= d.Frame.X && cx < d.Frame.X+d.Frame.Width &&
			cy >= d.Frame.Y && cy < d.Frame.Y+d.Frame.Height {
			return d, true
		}
	}
	return restore.Display{}, false
}
