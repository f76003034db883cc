//go:build windows

package window

import (
	"fmt"
	"syscall"
	"unsafe"

	"github.com/screenhand/screenhand/internal/geometry"
)

var (
	user32                  = syscall.NewLazyDLL("user32.dll")
	procEnumWindows         = user32.NewProc("EnumWindows")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
	procGetClassNameW       = user32.NewProc("GetClassNameW")
	procGetWindowRect       = user32.NewProc("GetWindowRect")
	procMoveWindow          = user32.NewProc("MoveWindow")
	procIsWindowVisible     = user32.NewProc("IsWindowVisible")
	procIsZoomed            = user32.NewProc("IsZoomed")
	procShowWindow          = user32.NewProc("ShowWindow")
	procSetForegroundWindow = user32.NewProc("SetForegroundWindow")
)

const swRestore = 9

type win32Rect struct {
	Left, Top, Right, Bottom int32
}

// Win32API drives top-level windows through user32.
type Win32API struct{}

// NewWin32API returns the native window backend.
func NewWin32API() (*Win32API, error) {
	return &Win32API{}, nil
}

// List enumerates all top-level windows.
func (a *Win32API) List() ([]Handle, error) {
	var handles []Handle
	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		handles = append(handles, Handle(hwnd))
		return 1 // continue enumeration
	})

	ret, _, _ := procEnumWindows.Call(cb, 0)
	if ret == 0 {
		return nil, fmt.Errorf("EnumWindows failed")
	}
	return handles, nil
}

// Title reads the window caption.
func (a *Win32API) Title(h Handle) (string, error) {
	buf := make([]uint16, 512)
	n, _, _ := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return syscall.UTF16ToString(buf[:n]), nil
}

// Class reads the window class name.
func (a *Win32API) Class(h Handle) (string, error) {
	buf := make([]uint16, 256)
	n, _, _ := procGetClassNameW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", fmt.Errorf("GetClassName failed")
	}
	return syscall.UTF16ToString(buf[:n]), nil
}

// Geometry returns the window frame in screen coordinates.
func (a *Win32API) Geometry(h Handle) (geometry.Rect, error) {
	var r win32Rect
	ret, _, _ := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return geometry.Rect{}, fmt.Errorf("GetWindowRect failed")
	}
	return geometry.NewRect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)), nil
}

// SetGeometry moves and resizes the window, restoring it first so a
// maximized window accepts the new frame.
func (a *Win32API) SetGeometry(h Handle, r geometry.Rect) error {
	if maximized, _ := a.Maximized(h); maximized {
		procShowWindow.Call(uintptr(h), swRestore)
	}
	ret, _, _ := procMoveWindow.Call(
		uintptr(h),
		uintptr(r.Left), uintptr(r.Top),
		uintptr(r.Width()), uintptr(r.Height()),
		1, // repaint
	)
	if ret == 0 {
		return fmt.Errorf("MoveWindow failed")
	}
	return nil
}

// Visible reports whether the window is shown.
func (a *Win32API) Visible(h Handle) (bool, error) {
	ret, _, _ := procIsWindowVisible.Call(uintptr(h))
	return ret != 0, nil
}

// Maximized reports whether the window is zoomed.
func (a *Win32API) Maximized(h Handle) (bool, error) {
	ret, _, _ := procIsZoomed.Call(uintptr(h))
	return ret != 0, nil
}

// Activate restores and foregrounds the window.
func (a *Win32API) Activate(h Handle) error {
	procShowWindow.Call(uintptr(h), swRestore)
	ret, _, _ := procSetForegroundWindow.Call(uintptr(h))
	if ret == 0 {
		return fmt.Errorf("SetForegroundWindow refused")
	}
	return nil
}
