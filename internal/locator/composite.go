package locator

import (
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/logging"
	"github.com/screenhand/screenhand/internal/ocr"
	"github.com/screenhand/screenhand/internal/vision"
	"github.com/screenhand/screenhand/internal/window"
)

// Composite resolves any Query kind through the matching strategy. A
// (nil, nil) result means the element was simply not found; an error is
// reserved for invalid queries.
type Composite struct {
	coords  *Coordinates
	matcher *vision.Matcher
	text    *ocr.Locator
	windows *window.Manager
	log     *logging.Logger
}

// NewComposite wires the strategy backends together.
func NewComposite(coords *Coordinates, matcher *vision.Matcher, text *ocr.Locator, windows *window.Manager, log *logging.Logger) *Composite {
	return &Composite{
		coords:  coords,
		matcher: matcher,
		text:    text,
		windows: windows,
		log:     log,
	}
}

// Locate resolves the query to a screen rectangle.
func (c *Composite) Locate(q Query) (*geometry.Rect, error) {
	switch q.Type {
	case KindCoordinates:
		return c.locateCoordinates(q)
	case KindImage:
		return c.locateImage(q)
	case KindText:
		return c.locateText(q)
	case KindWindow:
		return c.locateWindow(q)
	default:
		if c.log != nil {
			c.log.Warnf("unknown query type %q, treating as not found", q.Type)
		}
		return nil, nil
	}
}

// locateCoordinates resolves point targets to a 1x1 rectangle. Validation
// failures propagate so callers can distinguish a bad query from an
// element that is merely absent.
func (c *Composite) locateCoordinates(q Query) (*geometry.Rect, error) {
	var (
		p   geometry.Point
		err error
	)
	switch {
	case q.X != nil && q.Y != nil:
		p, err = c.coords.ByAbsolute(*q.X, *q.Y)
	case q.RX != nil && q.RY != nil:
		p, err = c.coords.ByRelative(*q.RX, *q.RY)
	default:
		if c.log != nil {
			c.log.Warn("coordinate query carries neither absolute nor relative position")
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rect := geometry.PointRect(p)
	return &rect, nil
}

func (c *Composite) locateImage(q Query) (*geometry.Rect, error) {
	if q.Template == "" {
		if c.log != nil {
			c.log.Warn("image query carries no template path")
		}
		return nil, nil
	}

	opts := vision.Options{Grayscale: q.Grayscale, Region: q.Region}
	if q.Confidence != nil {
		opts.Confidence = *q.Confidence
	}

	match, ok := c.matcher.MatchBest(q.Template, opts)
	if !ok {
		return nil, nil
	}
	rect := match.Rect
	return &rect, nil
}

func (c *Composite) locateText(q Query) (*geometry.Rect, error) {
	if q.Text == "" {
		if c.log != nil {
			c.log.Warn("text query carries no search string")
		}
		return nil, nil
	}

	rects := c.text.FindText(q.Text, q.Region, q.ExactMatch)
	if len(rects) == 0 {
		return nil, nil
	}
	rect := rects[0]
	return &rect, nil
}

func (c *Composite) locateWindow(q Query) (*geometry.Rect, error) {
	var (
		info *window.Info
		err  error
	)
	switch {
	case q.Title != "":
		info, err = c.windows.FindByTitle(q.Title, q.ExactMatch)
	case q.Class != "":
		info, err = c.windows.FindByClass(q.Class)
	default:
		if c.log != nil {
			c.log.Warn("window query carries neither title nor class")
		}
		return nil, nil
	}
	if err != nil {
		if c.log != nil {
			c.log.Error("window lookup failed, treating as not found", err)
		}
		return nil, nil
	}
	if info == nil {
		return nil, nil
	}
	rect := info.Rect
	return &rect, nil
}
