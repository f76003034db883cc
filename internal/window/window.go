// Package window locates and manipulates top-level application windows
// through a platform backend.
package window

import (
	"strings"
	"sync"
	"time"

	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/logging"
)

// Handle identifies a top-level window to the platform backend.
type Handle uintptr

// Info is a point-in-time snapshot of a window's state.
type Info struct {
	Handle    Handle
	Title     string
	Class     string
	Rect      geometry.Rect
	Visible   bool
	Maximized bool
}

// API is the platform window backend.
type API interface {
	List() ([]Handle, error)
	Title(h Handle) (string, error)
	Class(h Handle) (string, error)
	Geometry(h Handle) (geometry.Rect, error)
	SetGeometry(h Handle, r geometry.Rect) error
	Visible(h Handle) (bool, error)
	Maximized(h Handle) (bool, error)
	Activate(h Handle) error
}

// Manager finds and drives windows. A nil backend degrades every lookup
// to "not found" instead of failing.
type Manager struct {
	api       API
	log       *logging.Logger
	tolerance int
	settle    time.Duration

	warnOnce sync.Once
}

// NewManager wraps a platform backend. tolerance is the pixel slack
// allowed when verifying geometry changes, settle is how long to wait for
// the window manager to apply them.
func NewManager(api API, tolerance int, settle time.Duration, log *logging.Logger) *Manager {
	return &Manager{
		api:       api,
		log:       log,
		tolerance: tolerance,
		settle:    settle,
	}
}

// Available reports whether a window backend is present.
func (m *Manager) Available() bool {
	return m.api != nil
}

func (m *Manager) degraded() bool {
	if m.api != nil {
		return false
	}
	m.warnOnce.Do(func() {
		if m.log != nil {
			m.log.Warn("no window backend available, window operations report not found")
		}
	})
	return true
}

// FindByTitle returns the first window whose title matches. With exact
// false the comparison is a case-insensitive substring test. A (nil, nil)
// return means no window matched.
func (m *Manager) FindByTitle(title string, exact bool) (*Info, error) {
	if m.degraded() {
		return nil, nil
	}

	handles, err := m.api.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(title)
	for _, h := range handles {
		got, err := m.api.Title(h)
		if err != nil {
			continue
		}
		if exact {
			if got != title {
				continue
			}
		} else if !strings.Contains(strings.ToLower(got), needle) {
			continue
		}
		return m.snapshot(h), nil
	}
	return nil, nil
}

// FindByClass returns the first window with the given class name,
// compared case-insensitively.
func (m *Manager) FindByClass(class string) (*Info, error) {
	if m.degraded() {
		return nil, nil
	}

	handles, err := m.api.List()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(class)
	for _, h := range handles {
		got, err := m.api.Class(h)
		if err != nil {
			continue
		}
		if strings.ToLower(got) == needle {
			return m.snapshot(h), nil
		}
	}
	return nil, nil
}

// Describe returns a fresh snapshot of the window, or nil when the
// backend cannot read it anymore.
func (m *Manager) Describe(h Handle) *Info {
	if m.degraded() {
		return nil
	}
	if _, err := m.api.Geometry(h); err != nil {
		return nil
	}
	return m.snapshot(h)
}

// snapshot reads what it can of the window state; individual property
// failures leave zero values rather than aborting the whole read.
func (m *Manager) snapshot(h Handle) *Info {
	info := &Info{Handle: h}
	if title, err := m.api.Title(h); err == nil {
		info.Title = title
	}
	if class, err := m.api.Class(h); err == nil {
		info.Class = class
	}
	if rect, err := m.api.Geometry(h); err == nil {
		info.Rect = rect
	}
	if visible, err := m.api.Visible(h); err == nil {
		info.Visible = visible
	}
	if maximized, err := m.api.Maximized(h); err == nil {
		info.Maximized = maximized
	}
	return info
}

// SetGeometry asks the window manager to move and resize the window, then
// verifies the outcome. The request is considered successful when the
// resulting geometry lands within the pixel tolerance of the target, or
// when the geometry changed at all. Window managers routinely adjust
// requested frames, so any movement is accepted as compliance.
func (m *Manager) SetGeometry(h Handle, target geometry.Rect) (bool, error) {
	if m.degraded() {
		return false, nil
	}

	before, err := m.api.Geometry(h)
	if err != nil {
		return false, err
	}

	if err := m.api.SetGeometry(h, target); err != nil {
		return false, err
	}
	if m.settle > 0 {
		time.Sleep(m.settle)
	}

	after, err := m.api.Geometry(h)
	if err != nil {
		return false, err
	}

	if m.withinTolerance(after, target) {
		return true, nil
	}
	if after != before {
		if m.log != nil {
			m.log.Debugf("window geometry settled at %s instead of requested %s", after, target)
		}
		return true, nil
	}
	return false, nil
}

func (m *Manager) withinTolerance(got, want geometry.Rect) bool {
	return abs(got.Left-want.Left) <= m.tolerance &&
		abs(got.Top-want.Top) <= m.tolerance &&
		abs(got.Width()-want.Width()) <= m.tolerance &&
		abs(got.Height()-want.Height()) <= m.tolerance
}

// Activate asks the window manager to raise and focus the window. A true
// return means the request was delivered, not that focus changed.
func (m *Manager) Activate(h Handle) bool {
	if m.degraded() {
		return false
	}
	if err := m.api.Activate(h); err != nil {
		if m.log != nil {
			m.log.Error("window activation request failed", err)
		}
		return false
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
