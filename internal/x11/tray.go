package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// maxTrayDepth bounds the walk below the tray manager window. Panels embed
// icons in intermediate socket windows, so direct children are not enough.
const maxTrayDepth = 3

// TrayIcon is a client window embedded in the system tray.
type TrayIcon struct {
	Window   xproto.Window
	PID      int
	Class    string
	Instance string
	Mapped   bool
	HasIcon  bool
}

// TrayManager returns the window owning the _NET_SYSTEM_TRAY_S<screen>
// selection, or 0 when no tray is running.
func (c *Connection) TrayManager() (xproto.Window, error) {
	selection, err := c.atom(fmt.Sprintf("_NET_SYSTEM_TRAY_S%d", c.Screen))
	if err != nil {
		return 0, err
	}
	reply, err := xproto.GetSelectionOwner(c.XUtil.Conn(), selection).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query tray selection owner: %w", err)
	}
	return reply.Owner, nil
}

// TrayIcons lists the icon windows embedded under the tray manager. Windows
// without WM_CLASS are taken to be the tray's own containers and are walked
// rather than reported.
func (c *Connection) TrayIcons() ([]TrayIcon, error) {
	manager, err := c.TrayManager()
	if err != nil {
		return nil, err
	}
	if manager == 0 {
		return nil, nil
	}

	var icons []TrayIcon
	c.collectTrayIcons(manager, 0, &icons)
	return icons, nil
}

func (c *Connection) collectTrayIcons(parent xproto.Window, depth int, icons *[]TrayIcon) {
	if depth >= maxTrayDepth {
		return
	}
	tree, err := xproto.QueryTree(c.XUtil.Conn(), parent).Reply()
	if err != nil {
		return
	}

	for _, child := range tree.Children {
		instance, class := c.windowClass(child)
		if class == "" && instance == "" {
			c.collectTrayIcons(child, depth+1, icons)
			continue
		}
		*icons = append(*icons, TrayIcon{
			Window:   child,
			PID:      c.windowPID(child),
			Class:    class,
			Instance: instance,
			Mapped:   c.isMapped(child),
			HasIcon:  c.hasIcon(child),
		})
	}
}

// hasIcon reports whether win carries _NET_WM_ICON data or is large enough
// to draw one. Empty XEmbed sockets are left at 1x1 by most panels.
func (c *Connection) hasIcon(win xproto.Window) bool {
	if icons, err := ewmh.WmIconGet(c.XUtil, win); err == nil && len(icons) > 0 {
		return true
	}
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return false
	}
	return drawableIcon(geom.Width, geom.Height)
}

// drawableIcon reports whether a tray slot of the given size can show an
// icon.
func drawableIcon(width, height uint16) bool {
	return width > 1 && height > 1
}

// ClickWindow sends a synthetic primary button press and release to win, the
// way a user click on a tray icon would.
func (c *Connection) ClickWindow(win xproto.Window) error {
	press := xproto.ButtonPressEvent{
		Detail:     xproto.ButtonIndex1,
		Time:       xproto.TimeCurrentTime,
		Root:       c.Root,
		Event:      win,
		EventX:     1,
		EventY:     1,
		SameScreen: true,
	}
	buf := press.Bytes()
	if err := xproto.SendEventChecked(c.XUtil.Conn(), false, win, xproto.EventMaskButtonPress, string(buf)).Check(); err != nil {
		return fmt.Errorf("failed to send button press: %w", err)
	}

	press.State = xproto.KeyButMaskButton1
	buf = press.Bytes()
	buf[0] = xproto.ButtonRelease
	if err := xproto.SendEventChecked(c.XUtil.Conn(), false, win, xproto.EventMaskButtonRelease, string(buf)).Check(); err != nil {
		return fmt.Errorf("failed to send button release: %w", err)
	}
	return nil
}

func (c *Connection) isMapped(win xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), win).Reply()
	if err != nil {
		return false
	}
	return attrs.MapState == xproto.MapStateViewable
}
