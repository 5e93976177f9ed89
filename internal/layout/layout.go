package layout

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frame represents a window position and size in screen units.
type Frame struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Level classifies how a window stacks relative to other windows.
type Level int

const (
	LevelNormal Level = iota
	LevelFloating
	LevelModal
	LevelSystemChrome
)

var levelNames = map[Level]string{
	LevelNormal:       "normal",
	LevelFloating:     "floating",
	LevelModal:        "modal",
	LevelSystemChrome: "system-chrome",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "normal"
}

// ParseLevel maps a raw level name to a Level. Unknown values normalize
// to LevelNormal so hand-edited records stay loadable.
func ParseLevel(s string) Level {
	for level, name := range levelNames {
		if s == name {
			return level
		}
	}
	return LevelNormal
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("window_level must be a string: %w", err)
	}
	*l = ParseLevel(s)
	return nil
}

// Visibility is the single visibility state a window is put into at
// apply time. Minimized wins over hidden, hidden wins over shown.
type Visibility int

const (
	VisibilityShown Visibility = iota
	VisibilityMinimized
	VisibilityHidden
)

func (v Visibility) String() string {
	switch v {
	case VisibilityMinimized:
		return "minimized"
	case VisibilityHidden:
		return "hidden"
	default:
		return "shown"
	}
}

// WindowState is one captured window: identity, geometry, display
// assignment, and visibility at capture time.
type WindowState struct {
	AppName   string `json:"app_name"`
	AppID     string `json:"app_id"`
	Title     string `json:"title"`
	Frame     Frame  `json:"frame"`
	DisplayID string `json:"display_id"`
	Level     Level  `json:"window_level"`
	Minimized bool   `json:"is_minimized"`
	Hidden    bool   `json:"is_hidden"`
}

// Visibility collapses the minimized/hidden flags into the one state
// applied on restore.
func (w WindowState) Visibility() Visibility {
	switch {
	case w.Minimized:
		return VisibilityMinimized
	case w.Hidden:
		return VisibilityHidden
	default:
		return VisibilityShown
	}
}

// Layout is a named, timestamped, ordered collection of window states.
// Window order is restore order.
type Layout struct {
	Name      string        `json:"layout_name"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Windows   []WindowState `json:"windows"`
}
