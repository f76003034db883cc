// Package ocr finds text on screen through a recognition engine.
package ocr

import (
	"image"
	"strings"
	"sync"

	"github.com/screenhand/screenhand/internal/capture"
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/logging"
)

// Word is a single recognized token. Polygon is the detection outline in
// the coordinates of the image passed to the engine; Confidence is in
// [0,1].
type Word struct {
	Polygon    []geometry.Point
	Text       string
	Confidence float64
}

// Engine recognizes words in an image. Available reports whether the
// backend can actually run on this build and host.
type Engine interface {
	Recognize(img image.Image) ([]Word, error)
	Available() bool
}

// Locator searches the screen for text. When the engine is unavailable
// every search degrades to "not found" with a single warning.
type Locator struct {
	frames        *capture.FrameCache
	engine        Engine
	minConfidence float64
	log           *logging.Logger

	warnOnce sync.Once
}

// NewLocator wraps a recognition engine over the shared frame cache.
func NewLocator(frames *capture.FrameCache, engine Engine, minConfidence float64, log *logging.Logger) *Locator {
	return &Locator{
		frames:        frames,
		engine:        engine,
		minConfidence: minConfidence,
		log:           log,
	}
}

// Available reports whether a usable recognition backend exists.
func (l *Locator) Available() bool {
	return l.engine != nil && l.engine.Available()
}

// FindText returns the bounding rectangle, in screen coordinates, of
// every recognized word matching text. With exact false the comparison is
// a case-insensitive substring test. Words below the confidence floor are
// discarded before matching. Recognition failures and an absent backend
// yield an empty result, never an error.
func (l *Locator) FindText(text string, region *geometry.Rect, exact bool) []geometry.Rect {
	if !l.Available() {
		l.warnOnce.Do(func() {
			if l.log != nil {
				l.log.Warn("no OCR backend available, text searches report not found")
			}
		})
		return nil
	}

	frame, err := l.frames.Capture(region)
	if err != nil {
		if l.log != nil {
			l.log.Error("screen capture for text search failed", err)
		}
		return nil
	}

	words, err := l.engine.Recognize(frame.Image)
	if err != nil {
		if l.log != nil {
			l.log.Error("text recognition failed", err)
		}
		return nil
	}

	// Region captures are cropped to origin; matches must be shifted back
	// into screen coordinates.
	dx, dy := 0, 0
	if region != nil {
		dx, dy = frame.Region.Left, frame.Region.Top
	}

	var found []geometry.Rect
	for _, word := range words {
		if word.Confidence < l.minConfidence {
			continue
		}
		if !matches(word.Text, text, exact) {
			continue
		}
		rect, ok := polygonBounds(word.Polygon)
		if !ok {
			continue
		}
		found = append(found, rect.Translate(dx, dy))
	}
	return found
}

func matches(got, want string, exact bool) bool {
	if exact {
		return got == want
	}
	return strings.Contains(strings.ToLower(got), strings.ToLower(want))
}

// polygonBounds reduces a detection outline to its axis-aligned bounding
// rectangle.
func polygonBounds(polygon []geometry.Point) (geometry.Rect, bool) {
	if len(polygon) == 0 {
		return geometry.Rect{}, false
	}

	minX, minY := polygon[0].X, polygon[0].Y
	maxX, maxY := minX, minY
	for _, p := range polygon[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return geometry.NewRect(minX, minY, maxX, maxY), true
}
