// Package locator resolves element queries to screen rectangles, unifying
// coordinate, image, text and window strategies behind one entry point.
package locator

import (
	"errors"
	"fmt"

	"github.com/screenhand/screenhand/internal/geometry"
)

// ErrOutOfBounds reports an absolute coordinate outside the screen.
var ErrOutOfBounds = errors.New("coordinate outside screen bounds")

// ErrInvalidRatio reports a relative coordinate outside [0, 1].
var ErrInvalidRatio = errors.New("relative coordinate outside [0, 1]")

// ScreenSizer reports the current screen dimensions.
type ScreenSizer interface {
	Size() (width, height int, err error)
}

// Coordinates validates and resolves coordinate-based targets. The screen
// size is read fresh on every call so resolution changes take effect
// immediately.
type Coordinates struct {
	screen ScreenSizer
}

// NewCoordinates builds a coordinate resolver over a screen-size source.
func NewCoordinates(screen ScreenSizer) *Coordinates {
	return &Coordinates{screen: screen}
}

// ByAbsolute validates a screen position. Both edges are inclusive, so
// (width, height) is still on screen.
func (c *Coordinates) ByAbsolute(x, y int) (geometry.Point, error) {
	w, h, err := c.screen.Size()
	if err != nil {
		return geometry.Point{}, fmt.Errorf("failed to read screen size: %w", err)
	}
	if x < 0 || x > w || y < 0 || y > h {
		return geometry.Point{}, fmt.Errorf("%w: (%d, %d) not within %dx%d", ErrOutOfBounds, x, y, w, h)
	}
	return geometry.Point{X: x, Y: y}, nil
}

// ByRelative maps screen-fraction ratios in [0, 1] to a pixel position.
func (c *Coordinates) ByRelative(rx, ry float64) (geometry.Point, error) {
	if rx < 0 || rx > 1 || ry < 0 || ry > 1 {
		return geometry.Point{}, fmt.Errorf("%w: (%g, %g)", ErrInvalidRatio, rx, ry)
	}
	w, h, err := c.screen.Size()
	if err != nil {
		return geometry.Point{}, fmt.Errorf("failed to read screen size: %w", err)
	}
	return geometry.Point{
		X: int(rx * float64(w)),
		Y: int(ry * float64(h)),
	}, nil
}
