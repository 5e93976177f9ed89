package restore

import (
	"errors"

	"github.com/1broseidon/winsnap/internal/layout"
)

// ErrWindowNotFound is returned by an Applier when the target window no
// longer exists. It is never retried.
var ErrWindowNotFound = errors.New("window not found")

// Display describes one attached display. Frame is in absolute screen
// coordinates.
type Display struct {
	ID    string
	Name  string
	Frame layout.Frame
	Main  bool
}

// Topology exposes the current display arrangement. Implementations
// re-query the OS on Refresh; the restorer calls Refresh exactly once
// per restore and holds no state across calls.
type Topology interface {
	Refresh() error
	MainDisplay() (Display, bool)
	DisplayByID(id string) (Display, bool)
	// ToAbsolute converts a display-local point to absolute screen
	// coordinates. ok is false when the display is unknown.
	ToAbsolute(displayID string, x, y float64) (ax, ay float64, ok bool)
}

// Launcher starts applications and reports liveness, keyed by the
// stable application identity captured in the snapshot.
type Launcher interface {
	IsRunning(appID string) bool
	Launch(appID string) error
}

// LiveWindow is a currently-open window as seen by the Applier.
type LiveWindow struct {
	ID      uint32
	AppName string
	AppID   string
	Title   string
	Frame   layout.Frame
}

// ApplyTarget is one logical apply: position, size, level, and
// visibility together.
type ApplyTarget struct {
	Window     LiveWindow
	Frame      layout.Frame
	Level      layout.Level
	Visibility layout.Visibility
}

// Applier enumerates live windows and applies a target state to one of
// them. Apply returns ErrWindowNotFound (possibly wrapped) when the
// window vanished between enumeration and apply.
type Applier interface {
	Enumerate() ([]LiveWindow, error)
	Apply(target ApplyTarget) error
}
