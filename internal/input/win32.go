//go:build windows

package input

import (
	"fmt"
	"syscall"
	"time"

	"github.com/screenhand/screenhand/internal/geometry"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procMouseEvent   = user32.NewProc("mouse_event")
	procKeybdEvent   = user32.NewProc("keybd_event")
	procVkKeyScanW   = user32.NewProc("VkKeyScanW")
)

const (
	mouseEventLeftDown   = 0x0002
	mouseEventLeftUp     = 0x0004
	mouseEventRightDown  = 0x0008
	mouseEventRightUp    = 0x0010
	mouseEventMiddleDown = 0x0020
	mouseEventMiddleUp   = 0x0040

	keyEventKeyUp = 0x0002
	vkShift       = 0x10
)

// namedKeys maps the portable key vocabulary to virtual-key codes.
var namedKeys = map[string]uintptr{
	"Return":    0x0D,
	"Tab":       0x09,
	"space":     0x20,
	"Escape":    0x1B,
	"BackSpace": 0x08,
	"Delete":    0x2E,
	"Home":      0x24,
	"End":       0x23,
	"Prior":     0x21,
	"Next":      0x22,
	"Left":      0x25,
	"Up":        0x26,
	"Right":     0x27,
	"Down":      0x28,
	"Shift_L":   0x10,
	"Control_L": 0x11,
	"Alt_L":     0x12,
	"Super_L":   0x5B,
	"F1":        0x70,
	"F2":        0x71,
	"F3":        0x72,
	"F4":        0x73,
	"F5":        0x74,
	"F6":        0x75,
	"F7":        0x76,
	"F8":        0x77,
	"F9":        0x78,
	"F10":       0x79,
	"F11":       0x7A,
	"F12":       0x7B,
}

// Win32Synthesizer injects events through SetCursorPos, mouse_event and
// keybd_event.
type Win32Synthesizer struct{}

// NewWin32Synthesizer returns the native input backend.
func NewWin32Synthesizer() (*Win32Synthesizer, error) {
	return &Win32Synthesizer{}, nil
}

// MoveTo positions the cursor at an absolute screen position.
func (s *Win32Synthesizer) MoveTo(p geometry.Point) error {
	ret, _, _ := procSetCursorPos.Call(uintptr(p.X), uintptr(p.Y))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos failed")
	}
	return nil
}

// Click moves to the position and presses then releases the button.
func (s *Win32Synthesizer) Click(p geometry.Point, button Button) error {
	if err := s.MoveTo(p); err != nil {
		return err
	}
	down, up := buttonFlags(button)
	time.Sleep(clickGap)
	procMouseEvent.Call(down, 0, 0, 0, 0)
	time.Sleep(clickGap)
	procMouseEvent.Call(up, 0, 0, 0, 0)
	return nil
}

// DoubleClick performs two clicks in quick succession.
func (s *Win32Synthesizer) DoubleClick(p geometry.Point, button Button) error {
	if err := s.Click(p, button); err != nil {
		return err
	}
	time.Sleep(clickGap)
	return s.Click(p, button)
}

// KeyTap presses and releases a named key.
func (s *Win32Synthesizer) KeyTap(key string) error {
	vk, err := vkForKey(key)
	if err != nil {
		return err
	}
	s.keybd(vk, false)
	time.Sleep(clickGap)
	s.keybd(vk, true)
	return nil
}

// Hotkey holds the keys down in order and releases them in reverse.
func (s *Win32Synthesizer) Hotkey(keys ...string) error {
	vks := make([]uintptr, 0, len(keys))
	for _, k := range keys {
		vk, err := vkForKey(k)
		if err != nil {
			return err
		}
		vks = append(vks, vk)
	}

	for _, vk := range vks {
		s.keybd(vk, false)
	}
	for i := len(vks) - 1; i >= 0; i-- {
		s.keybd(vks[i], true)
	}
	return nil
}

// Type sends the text one keystroke at a time, holding Shift where the
// current layout requires it.
func (s *Win32Synthesizer) Type(text string) error {
	for _, r := range text {
		ret, _, _ := procVkKeyScanW.Call(uintptr(r))
		if ret&0xFFFF == 0xFFFF {
			return fmt.Errorf("no key produces %q", r)
		}
		vk := ret & 0xFF
		shifted := ret&0x100 != 0

		if shifted {
			s.keybd(vkShift, false)
		}
		s.keybd(vk, false)
		s.keybd(vk, true)
		if shifted {
			s.keybd(vkShift, true)
		}
		time.Sleep(typeGap)
	}
	return nil
}

func (s *Win32Synthesizer) keybd(vk uintptr, up bool) {
	var flags uintptr
	if up {
		flags = keyEventKeyUp
	}
	procKeybdEvent.Call(vk, 0, flags, 0)
}

func vkForKey(name string) (uintptr, error) {
	if vk, ok := namedKeys[name]; ok {
		return vk, nil
	}
	if runes := []rune(name); len(runes) == 1 {
		ret, _, _ := procVkKeyScanW.Call(uintptr(runes[0]))
		if ret&0xFFFF != 0xFFFF {
			return ret & 0xFF, nil
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

func buttonFlags(button Button) (down, up uintptr) {
	switch button {
	case ButtonRight:
		return mouseEventRightDown, mouseEventRightUp
	case ButtonMiddle:
		return mouseEventMiddleDown, mouseEventMiddleUp
	default:
		return mouseEventLeftDown, mouseEventLeftUp
	}
}
