package input

import (
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/screenhand/screenhand/internal/geometry"
)

// clickGap separates press and release so applications register the click.
const clickGap = 30 * time.Millisecond

// X11Synthesizer injects events through the XTEST extension.
type X11Synthesizer struct {
	xu   *xgbutil.XUtil
	conn *xgb.Conn
	root xproto.Window
}

// NewX11Synthesizer connects to the X server and initializes XTEST and
// the keyboard mapping.
func NewX11Synthesizer() (*X11Synthesizer, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	conn := xu.Conn()
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension unavailable: %w", err)
	}
	keybind.Initialize(xu)

	return &X11Synthesizer{xu: xu, conn: conn, root: xu.RootWin()}, nil
}

// MoveTo warps the pointer to an absolute screen position.
func (s *X11Synthesizer) MoveTo(p geometry.Point) error {
	return xtest.FakeInputChecked(
		s.conn, xproto.MotionNotify, 0, 0,
		s.root, int16(p.X), int16(p.Y), 0,
	).Check()
}

// Click moves to the position and presses then releases the button.
func (s *X11Synthesizer) Click(p geometry.Point, button Button) error {
	if err := s.MoveTo(p); err != nil {
		return err
	}
	time.Sleep(clickGap)
	if err := s.button(xproto.ButtonPress, button); err != nil {
		return err
	}
	time.Sleep(clickGap)
	return s.button(xproto.ButtonRelease, button)
}

// DoubleClick performs two clicks in quick succession.
func (s *X11Synthesizer) DoubleClick(p geometry.Point, button Button) error {
	if err := s.Click(p, button); err != nil {
		return err
	}
	time.Sleep(clickGap)
	return s.Click(p, button)
}

// KeyTap presses and releases a named key.
func (s *X11Synthesizer) KeyTap(key string) error {
	code, err := s.keycode(key)
	if err != nil {
		return err
	}
	if err := s.key(xproto.KeyPress, code); err != nil {
		return err
	}
	time.Sleep(clickGap)
	return s.key(xproto.KeyRelease, code)
}

// Hotkey holds the keys down in order and releases them in reverse, so
// ("Control_L", "a") selects all.
func (s *X11Synthesizer) Hotkey(keys ...string) error {
	codes := make([]xproto.Keycode, 0, len(keys))
	for _, k := range keys {
		code, err := s.keycode(k)
		if err != nil {
			return err
		}
		codes = append(codes, code)
	}

	for _, code := range codes {
		if err := s.key(xproto.KeyPress, code); err != nil {
			return err
		}
	}
	var lastErr error
	for i := len(codes) - 1; i >= 0; i-- {
		if err := s.key(xproto.KeyRelease, codes[i]); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Type sends the text one keystroke at a time, holding Shift where the
// character requires it.
func (s *X11Synthesizer) Type(text string) error {
	shift, err := s.keycode("Shift_L")
	if err != nil {
		return err
	}
	for _, r := range text {
		name, shifted, ok := keyForRune(r)
		if !ok {
			return fmt.Errorf("no key produces %q", r)
		}
		code, err := s.keycode(name)
		if err != nil {
			return err
		}
		if shifted {
			if err := s.key(xproto.KeyPress, shift); err != nil {
				return err
			}
		}
		if err := s.key(xproto.KeyPress, code); err != nil {
			return err
		}
		if err := s.key(xproto.KeyRelease, code); err != nil {
			return err
		}
		if shifted {
			if err := s.key(xproto.KeyRelease, shift); err != nil {
				return err
			}
		}
		time.Sleep(typeGap)
	}
	return nil
}

func (s *X11Synthesizer) keycode(name string) (xproto.Keycode, error) {
	codes := keybind.StrToKeycodes(s.xu, name)
	if len(codes) == 0 {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return codes[0], nil
}

func (s *X11Synthesizer) button(event byte, button Button) error {
	return xtest.FakeInputChecked(
		s.conn, event, byte(button), 0,
		s.root, 0, 0, 0,
	).Check()
}

func (s *X11Synthesizer) key(event byte, code xproto.Keycode) error {
	return xtest.FakeInputChecked(
		s.conn, event, byte(code), 0,
		s.root, 0, 0, 0,
	).Check()
}

// Close disconnects from the X server.
func (s *X11Synthesizer) Close() {
	s.conn.Close()
}
