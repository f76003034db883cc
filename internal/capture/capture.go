// Package capture provides screen frame acquisition with a TTL-bounded
// cache. Full-screen captures are cached so that a burst of locator polls
// reuses one grab; region captures always hit the backend directly.
package capture

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/logging"
)

// Frame is a captured pixel buffer. It is never mutated after capture.
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Region     geometry.Rect
	FullScreen bool
}

// Grabber is the OS screen-capture backend. A nil region means the full
// virtual screen.
type Grabber interface {
	Grab(region *geometry.Rect) (*image.RGBA, error)
	Size() (width, height int, err error)
}

// FrameCache serves screen frames, caching the most recent full-screen
// capture for up to its TTL. Cache hits skip the capture syscall entirely;
// they never change the pixel data a caller would have seen, only its age.
type FrameCache struct {
	grabber Grabber
	ttl     time.Duration
	log     *logging.Logger

	mu     sync.Mutex
	cached *Frame
}

// NewFrameCache wraps a grabber with a TTL cache.
func NewFrameCache(grabber Grabber, ttl time.Duration, log *logging.Logger) *FrameCache {
	return &FrameCache{
		grabber: grabber,
		ttl:     ttl,
		log:     log,
	}
}

// Capture returns the current screen contents. With a nil region, a cached
// full-screen frame younger than the TTL is returned when available;
// otherwise a fresh capture replaces the cache entry. Region captures
// bypass the cache in both directions.
func (c *FrameCache) Capture(region *geometry.Rect) (*Frame, error) {
	if region != nil {
		if region.Empty() {
			return nil, fmt.Errorf("capture region %s is empty", region)
		}
		img, err := c.grabber.Grab(region)
		if err != nil {
			return nil, fmt.Errorf("region capture failed: %w", err)
		}
		// The backend clamps requests to the screen; record the region the
		// pixels actually cover so callers translate coordinates correctly.
		actual := *region
		if w, h, err := c.grabber.Size(); err == nil {
			actual = region.Intersect(geometry.NewRect(0, 0, w, h))
		}
		return &Frame{
			Image:      img,
			CapturedAt: time.Now(),
			Region:     actual,
			FullScreen: false,
		}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && time.Since(c.cached.CapturedAt) < c.ttl {
		return c.cached, nil
	}

	img, err := c.grabber.Grab(nil)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}

	frame := &Frame{
		Image:      img,
		CapturedAt: time.Now(),
		Region:     geometry.FromImageRect(img.Bounds()),
		FullScreen: true,
	}
	c.cached = frame
	if c.log != nil {
		c.log.Debugf("captured full screen %dx%d", frame.Region.Width(), frame.Region.Height())
	}
	return frame, nil
}

// Invalidate drops the cached frame so the next capture is fresh.
func (c *FrameCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

// Size returns the live screen dimensions. The value is read from the
// backend on every call to tolerate resolution changes mid-session.
func (c *FrameCache) Size() (int, int, error) {
	return c.grabber.Size()
}
