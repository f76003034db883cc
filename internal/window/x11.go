package window

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/screenhand/screenhand/internal/geometry"
)

// X11API drives windows through EWMH on an X display.
type X11API struct {
	xu   *xgbutil.XUtil
	root xproto.Window
}

// NewX11API connects to the X server named by $DISPLAY.
func NewX11API() (*X11API, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	return &X11API{xu: xu, root: xu.RootWin()}, nil
}

// List returns the window manager's client list.
func (a *X11API) List() ([]Handle, error) {
	clients, err := ewmh.ClientListGet(a.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	handles := make([]Handle, len(clients))
	for i, win := range clients {
		handles[i] = Handle(win)
	}
	return handles, nil
}

// Title reads _NET_WM_NAME, falling back to the ICCCM WM_NAME for clients
// that never set the EWMH property.
func (a *X11API) Title(h Handle) (string, error) {
	win := xproto.Window(h)
	if title, err := ewmh.WmNameGet(a.xu, win); err == nil && title != "" {
		return title, nil
	}
	title, err := icccm.WmNameGet(a.xu, win)
	if err != nil {
		return "", fmt.Errorf("failed to read window title: %w", err)
	}
	return title, nil
}

// Class reads the WM_CLASS class component.
func (a *X11API) Class(h Handle) (string, error) {
	wmClass, err := icccm.WmClassGet(a.xu, xproto.Window(h))
	if err != nil {
		return "", fmt.Errorf("failed to read window class: %w", err)
	}
	return wmClass.Class, nil
}

// Geometry returns the window frame in root coordinates. The window's own
// geometry is relative to its parent, so the origin is translated.
func (a *X11API) Geometry(h Handle) (geometry.Rect, error) {
	win := xproto.Window(h)

	geom, err := xproto.GetGeometry(a.xu.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to read window geometry: %w", err)
	}

	translate, err := xproto.TranslateCoordinates(a.xu.Conn(), win, a.root, 0, 0).Reply()
	if err != nil {
		return geometry.Rect{}, fmt.Errorf("failed to translate window origin: %w", err)
	}

	return geometry.RectAt(
		geometry.Point{X: int(translate.DstX), Y: int(translate.DstY)},
		int(geom.Width), int(geom.Height),
	), nil
}

// SetGeometry moves and resizes the window. A maximized window ignores
// move requests, so the maximized states are dropped first.
func (a *X11API) SetGeometry(h Handle, r geometry.Rect) error {
	win := xproto.Window(h)

	if states, err := ewmh.WmStateGet(a.xu, win); err == nil {
		for _, state := range states {
			if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
				ewmh.WmStateReq(a.xu, win, 0, state)
			}
		}
	}

	err := ewmh.MoveresizeWindow(a.xu, win, r.Left, r.Top, r.Width(), r.Height())
	if err != nil {
		// Some window managers ignore the EWMH request; configure the
		// window directly instead.
		xwindow.New(a.xu, win).MoveResize(r.Left, r.Top, r.Width(), r.Height())
	}
	return nil
}

// Visible reports whether the window is mapped.
func (a *X11API) Visible(h Handle) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(a.xu.Conn(), xproto.Window(h)).Reply()
	if err != nil {
		return false, fmt.Errorf("failed to read window attributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// Maximized reports whether the window carries both maximized states.
func (a *X11API) Maximized(h Handle) (bool, error) {
	states, err := ewmh.WmStateGet(a.xu, xproto.Window(h))
	if err != nil {
		return false, fmt.Errorf("failed to read window state: %w", err)
	}

	horz, vert := false, false
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ":
			horz = true
		case "_NET_WM_STATE_MAXIMIZED_VERT":
			vert = true
		}
	}
	return horz && vert, nil
}

// Activate raises and focuses the window via _NET_ACTIVE_WINDOW. The
// client message is built manually; the xgbutil helper panics on some
// library versions over a uint/int type assertion.
func (a *X11API) Activate(h Handle) error {
	atomReply, err := xproto.InternAtom(a.xu.Conn(), false,
		uint16(len("_NET_ACTIVE_WINDOW")), "_NET_ACTIVE_WINDOW").Reply()
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // direct user action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: xproto.Window(h),
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		a.xu.Conn(),
		false,
		a.root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// Close disconnects from the X server.
func (a *X11API) Close() {
	a.xu.Conn().Close()
}
