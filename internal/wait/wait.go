// Package wait synchronizes automation with the screen through polling.
// Every wait primitive reports presence or absence through a boolean;
// Retry is the only operation that propagates an error.
package wait

import (
	"fmt"
	"image/color"
	"time"

	"github.com/screenhand/screenhand/internal/capture"
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/logging"
	"github.com/screenhand/screenhand/internal/vision"
	"github.com/screenhand/screenhand/internal/window"
)

// Controller runs polling waits over the shared locator backends.
type Controller struct {
	matcher *vision.Matcher
	frames  *capture.FrameCache
	windows *window.Manager
	log     *logging.Logger

	defaultTimeout  time.Duration
	defaultInterval time.Duration
}

// NewController builds a wait controller. The defaults apply when a call
// passes a non-positive timeout or interval.
func NewController(matcher *vision.Matcher, frames *capture.FrameCache, windows *window.Manager, timeout, interval time.Duration, log *logging.Logger) *Controller {
	return &Controller{
		matcher:         matcher,
		frames:          frames,
		windows:         windows,
		log:             log,
		defaultTimeout:  timeout,
		defaultInterval: interval,
	}
}

func (c *Controller) resolve(timeout, interval time.Duration) (time.Duration, time.Duration) {
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	if interval <= 0 {
		interval = c.defaultInterval
	}
	return timeout, interval
}

// For polls cond until it reports true or the timeout elapses. Errors
// from cond count as "not yet" for that poll; they never abort the wait.
// The condition is always evaluated at least once, and the total wait
// never exceeds timeout by more than one interval.
func (c *Controller) For(cond func() (bool, error), timeout, interval time.Duration) bool {
	timeout, interval = c.resolve(timeout, interval)
	start := time.Now()
	for {
		ok, err := cond()
		if err == nil && ok {
			return true
		}
		if err != nil && c.log != nil {
			c.log.Debugf("wait predicate error, retrying: %v", err)
		}
		if time.Since(start) >= timeout {
			return false
		}
		time.Sleep(interval)
		if c.frames != nil {
			c.frames.Invalidate()
		}
	}
}

// ForImage waits for the template to appear and returns the center of its
// best match.
func (c *Controller) ForImage(template string, opts vision.Options, timeout, interval time.Duration) (geometry.Point, bool) {
	var found vision.Match
	ok := c.For(func() (bool, error) {
		match, ok := c.matcher.MatchBest(template, opts)
		if ok {
			found = match
		}
		return ok, nil
	}, timeout, interval)
	if !ok {
		return geometry.Point{}, false
	}
	return found.Rect.Center(), true
}

// ForImageGone waits for the template to disappear from the screen.
func (c *Controller) ForImageGone(template string, opts vision.Options, timeout, interval time.Duration) bool {
	return c.For(func() (bool, error) {
		_, ok := c.matcher.MatchBest(template, opts)
		return !ok, nil
	}, timeout, interval)
}

// ForStableImage waits for the template to stay continuously present for
// the stability window. A single missed poll resets the clock, so a
// flickering element never qualifies.
func (c *Controller) ForStableImage(template string, opts vision.Options, stability, timeout, interval time.Duration) (geometry.Point, bool) {
	timeout, interval = c.resolve(timeout, interval)

	var (
		found       vision.Match
		stableSince time.Time
	)
	ok := c.For(func() (bool, error) {
		match, ok := c.matcher.MatchBest(template, opts)
		if !ok {
			stableSince = time.Time{}
			return false, nil
		}
		now := time.Now()
		if stableSince.IsZero() {
			stableSince = now
		}
		// Track the latest sighting so a match that drifts while staying
		// present reports its current position.
		found = match
		return now.Sub(stableSince) >= stability, nil
	}, timeout, interval)
	if !ok {
		return geometry.Point{}, false
	}
	return found.Rect.Center(), true
}

// ForPixelColor waits for the pixel at (x, y) to come within the
// per-channel tolerance of want. Each poll reads the live screen through
// a single-pixel capture, bypassing the frame cache.
func (c *Controller) ForPixelColor(x, y int, want color.RGBA, tolerance uint8, timeout, interval time.Duration) bool {
	region := geometry.RectAt(geometry.Point{X: x, Y: y}, 1, 1)
	return c.For(func() (bool, error) {
		frame, err := c.frames.Capture(&region)
		if err != nil {
			return false, err
		}
		got, ok := vision.ColorAt(frame.Image, frame.Image.Bounds().Min.X, frame.Image.Bounds().Min.Y)
		if !ok {
			return false, nil
		}
		return vision.ColorMatches(got, want, tolerance), nil
	}, timeout, interval)
}

// ForWindow waits for a window matching the title to exist.
func (c *Controller) ForWindow(title string, exact bool, timeout, interval time.Duration) (*window.Info, bool) {
	var found *window.Info
	ok := c.For(func() (bool, error) {
		info, err := c.windows.FindByTitle(title, exact)
		if err != nil {
			return false, err
		}
		if info == nil {
			return false, nil
		}
		found = info
		return true, nil
	}, timeout, interval)
	if !ok {
		return nil, false
	}
	return found, true
}

// Retry runs action until it succeeds, allowing maxRetries additional
// attempts after the first. A zero interval retries without delay; a
// negative interval falls back to the controller default. When every
// attempt fails the last error is returned.
func (c *Controller) Retry(action func() error, maxRetries int, interval time.Duration) error {
	if interval < 0 {
		interval = c.defaultInterval
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(interval)
			if c.frames != nil {
				c.frames.Invalidate()
			}
		}
		lastErr = action()
		if lastErr == nil {
			return nil
		}
		if c.log != nil {
			c.log.Warnf("attempt %d/%d failed: %v", attempt+1, maxRetries+1, lastErr)
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", maxRetries+1, lastErr)
}
