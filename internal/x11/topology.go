package x11

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/restore"
)

// Refresh re-reads the active displays via XRandR. Display IDs are the
// RandR output names (e.g. "eDP-1", "HDMI-1"), which stay stable across
// sessions for the same physical setup.
func (c *Connection) Refresh() error {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primaryOutput randr.Output
	if primary, err := randr.GetOutputPrimary(c.XUtil.Conn(), c.Root).Reply(); err == nil {
		primaryOutput = primary.Output
	}

	var displays []restore.Display
	mainID := ""
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		isPrimary := false
		if outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outputInfo.Name)
		}
		for _, out := range crtcInfo.Outputs {
			if out == primaryOutput {
				isPrimary = true
				break
			}
		}

		displays = append(displays, restore.Display{
			ID:   name,
			Name: name,
			Frame: layout.Frame{
				X:      float64(crtcInfo.X),
				Y:      float64(crtcInfo.Y),
				Width:  float64(crtcInfo.Width),
				Height: float64(crtcInfo.Height),
			},
			Main: isPrimary,
		})
		if isPrimary {
			mainID = name
		}
	}
	if len(displays) == 0 {
		return fmt.Errorf("no active displays found")
	}

	// Without an explicit primary, the display at the origin (or the
	// first one) acts as main.
	if mainID == "" {
		mainIdx := 0
		for i, d := range displays {
			if d.Frame.X == 0 && d.Frame.Y == 0 {
				mainIdx = i
				break
			}
		}
		displays[mainIdx].Main = true
		mainID = displays[mainIdx].ID
	}

	c.displays = displays
	c.mainID = mainID
	return nil
}

// Displays returns the displays from the last Refresh.
func (c *Connection) Displays() []restore.Display {
	return c.displays
}

// MainDisplay returns the primary display from the last Refresh.
func (c *Connection) MainDisplay() (restore.Display, bool) {
	return c.DisplayByID(c.mainID)
}

// DisplayByID looks up a display by its RandR output name.
func (c *Connection) DisplayByID(id string) (restore.Display, bool) {
	for _, d := range c.displays {
		if d.ID == id {
			return d, true
		}
	}
	return restore.Display{}, false
}

// ToAbsolute converts display-local coordinates to absolute screen
// coordinates by adding the display's origin.
func (c *Connection) ToAbsolute(displayID string, x, y float64) (float64, float64, bool) {
	d, ok := c.DisplayByID(displayID)
	if !ok {
		return 0, 0, false
	}
	return d.Frame.X + x, d.Frame.Y + y, true
}

// TopologySignature returns a stable fingerprint of the current display
// arrangement. The daemon polls it to detect monitor changes.
func (c *Connection) TopologySignature() string {
	parts := make([]string, 0, len(c.displays))
	for _, d := range c.displays {
		parts = append(parts, fmt.Sprintf("%s:%g,%g,%gx%g", d.ID, d.Frame.X, d.Frame.Y, d.Frame.Width, d.Frame.Height))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
