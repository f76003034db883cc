package capture

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/screenhand/screenhand/internal/geometry"
)

// X11Grabber captures the root window of an X display via GetImage.
type X11Grabber struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
}

// NewX11Grabber connects to the X server named by $DISPLAY.
func NewX11Grabber() (*X11Grabber, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		conn.Close()
		return nil, fmt.Errorf("no default X screen")
	}

	return &X11Grabber{conn: conn, screen: screen}, nil
}

// Grab captures the requested region of the root window, or the whole
// screen when region is nil. The request is clamped to the screen bounds.
func (g *X11Grabber) Grab(region *geometry.Rect) (*image.RGBA, error) {
	screenRect := geometry.NewRect(0, 0, int(g.screen.WidthInPixels), int(g.screen.HeightInPixels))

	target := screenRect
	if region != nil {
		target = region.Intersect(screenRect)
		if target.Empty() {
			return nil, fmt.Errorf("capture region %s is outside the screen", region)
		}
	}

	width := target.Width()
	height := target.Height()

	reply, err := xproto.GetImage(
		g.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(g.screen.Root),
		int16(target.Left), int16(target.Top),
		uint16(width), uint16(height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("GetImage failed: %w", err)
	}

	// ZPixmap data for 24/32-bit visuals is 4 bytes per pixel, BGRx order.
	expected := width * height * 4
	if len(reply.Data) < expected {
		return nil, fmt.Errorf("short GetImage reply: got %d bytes, want %d", len(reply.Data), expected)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < expected; i += 4 {
		b := reply.Data[i]
		gr := reply.Data[i+1]
		r := reply.Data[i+2]

		img.Pix[i] = r
		img.Pix[i+1] = gr
		img.Pix[i+2] = b
		// Force opaque alpha; composited windows can carry transparent
		// pixels that destabilize template scores.
		img.Pix[i+3] = 255
	}

	return img, nil
}

// Size returns the root window dimensions.
func (g *X11Grabber) Size() (int, int, error) {
	return int(g.screen.WidthInPixels), int(g.screen.HeightInPixels), nil
}

// Close disconnects from the X server.
func (g *X11Grabber) Close() {
	g.conn.Close()
}
