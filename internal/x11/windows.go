package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/winsnap/internal/capture"
	"github.com/1broseidon/winsnap/internal/layout"
	"github.com/1broseidon/winsnap/internal/restore"
)

// Enumerate lists the current normal application windows with their
// identities and absolute frames.
func (c *Connection) Enumerate() ([]restore.LiveWindow, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	windows := make([]restore.LiveWindow, 0, len(clients))
	for _, windowID := range clients {
		if !c.isNormalWindow(windowID) {
			continue
		}
		frame, ok := c.windowFrame(windowID)
		if !ok {
			continue
		}
		appName, appID := c.windowIdentity(windowID)
		windows = append(windows, restore.LiveWindow{
			ID:      uint32(windowID),
			AppName: appName,
			AppID:   appID,
			Title:   c.windowTitle(windowID),
			Frame:   frame,
		})
	}
	return windows, nil
}

// ScanWindows reads the full capture metadata for every normal window.
func (c *Connection) ScanWindows() ([]capture.WindowMeta, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	metas := make([]capture.WindowMeta, 0, len(clients))
	for _, windowID := range clients {
		if !c.isNormalWindow(windowID) {
			continue
		}
		frame, ok := c.windowFrame(windowID)
		if !ok {
			continue
		}
		appName, appID := c.windowIdentity(windowID)

		minimized := false
		hidden := false
		level := layout.LevelNormal
		if states, err := ewmh.WmStateGet(c.XUtil, windowID); err == nil {
			for _, state := range states {
				switch state {
				case "_NET_WM_STATE_HIDDEN":
					minimized = true
				case "_NET_WM_STATE_SKIP_TASKBAR":
					hidden = true
				case "_NET_WM_STATE_ABOVE":
					level = layout.LevelFloating
				case "_NET_WM_STATE_MODAL":
					level = layout.LevelModal
				}
			}
		}

		metas = append(metas, capture.WindowMeta{
			AppName:   appName,
			AppID:     appID,
			Title:     c.windowTitle(windowID),
			Frame:     frame,
			Level:     level,
			Minimized: minimized,
			Hidden:    hidden,
		})
	}
	return metas, nil
}

// Apply places one window: unmaximize, move/resize to the target frame,
// then settle its stacking level and visibility. A window that no
// longer exists reports restore.ErrWindowNotFound.
func (c *Connection) Apply(target restore.ApplyTarget) error {
	windowID := xproto.Window(target.Window.ID)

	if _, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply(); err != nil {
		return fmt.Errorf("window %d: %w", target.Window.ID, restore.ErrWindowNotFound)
	}

	c.unmaximize(windowID)

	x := int(target.Frame.X)
	y := int(target.Frame.Y)
	w := int(target.Frame.Width)
	h := int(target.Frame.Height)
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, w, h); err != nil {
		// Fallback to direct window manipulation for WMs without
		// _NET_MOVERESIZE_WINDOW support.
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, w, h)
	}

	c.applyLevel(windowID, target.Level)
	return c.applyVisibility(windowID, target.Visibility)
}

func (c *Connection) unmaximize(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT", "_NET_WM_STATE_FULLSCREEN":
			ewmh.WmStateReq(c.XUtil, windowID, ewmhStateRemove, state)
		}
	}
}

const (
	ewmhStateRemove = 0
	ewmhStateAdd    = 1
)

func (c *Connection) applyLevel(windowID xproto.Window, level layout.Level) {
	action := ewmhStateRemove
	if level == layout.LevelFloating || level == layout.LevelSystemChrome {
		action = ewmhStateAdd
	}
	ewmh.WmStateReq(c.XUtil, windowID, action, "_NET_WM_STATE_ABOVE")
	if level == layout.LevelModal {
		ewmh.WmStateReq(c.XUtil, windowID, ewmhStateAdd, "_NET_WM_STATE_MODAL")
	}
}

func (c *Connection) applyVisibility(windowID xproto.Window, v layout.Visibility) error {
	switch v {
	case layout.VisibilityMinimized:
		return c.iconify(windowID)
	case layout.VisibilityHidden:
		return ewmh.WmStateReq(c.XUtil, windowID, ewmhStateAdd, "_NET_WM_STATE_SKIP_TASKBAR")
	default:
		if err := ewmh.WmStateReq(c.XUtil, windowID, ewmhStateRemove, "_NET_WM_STATE_SKIP_TASKBAR"); err != nil {
			return err
		}
		// Deiconify by mapping the window again.
		return xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check()
	}
}

// iconify minimizes a window via WM_CHANGE_STATE.
func (c *Connection) iconify(windowID xproto.Window) error {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len("WM_CHANGE_STATE")), "WM_CHANGE_STATE").Reply()
	if err != nil {
		return err
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   reply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

func (c *Connection) isNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_MENU":
			return false
		}
	}
	return len(types) == 0
}

func (c *Connection) windowFrame(windowID xproto.Window) (layout.Frame, bool) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return layout.Frame{}, false
	}
	translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), windowID, c.Root, 0, 0).Reply()
	if err != nil {
		return layout.Frame{}, false
	}
	return layout.Frame{
		X:      float64(translate.DstX),
		Y:      float64(translate.DstY),
		Width:  float64(geom.Width),
		Height: float64(geom.Height),
	}, true
}

// windowIdentity maps WM_CLASS to the snapshot identity: the class name
// is the human-facing app name, the lowercased instance is the launch
// identity (it usually matches the binary name).
func (c *Connection) windowIdentity(windowID xproto.Window) (appName, appID string) {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return "", ""
	}
	appName = strings.TrimSpace(wmClass.Class)
	appID = strings.ToLower(strings.TrimSpace(wmClass.Instance))
	if appID == "" {
		appID = strings.ToLower(appName)
	}
	return appName, appID
}

func (c *Connection) windowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}
