// Package screenhand resolves UI elements on the desktop screen through
// coordinate, image-template, window and text strategies, and synchronizes
// automation against them with polling waits.
package screenhand

import (
	"fmt"
	"io"
	"time"

	"github.com/screenhand/screenhand/internal/capture"
	"github.com/screenhand/screenhand/internal/config"
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/history"
	"github.com/screenhand/screenhand/internal/input"
	"github.com/screenhand/screenhand/internal/locator"
	"github.com/screenhand/screenhand/internal/logging"
	"github.com/screenhand/screenhand/internal/ocr"
	"github.com/screenhand/screenhand/internal/vision"
	"github.com/screenhand/screenhand/internal/wait"
	"github.com/screenhand/screenhand/internal/window"
)

// Re-exported element types so callers do not need the internal packages.
type (
	Point = geometry.Point
	Rect  = geometry.Rect
	Query = locator.Query
	Match = vision.Match
)

// Session owns the capture, matching, window, text and wait machinery for
// one screen. It is safe for sequential use; the frame cache makes bursts
// of lookups share captures.
type Session struct {
	cfg *config.Settings
	log *logging.Logger

	frames    *capture.FrameCache
	templates *vision.TemplateCache
	matcher   *vision.Matcher
	coords    *locator.Coordinates
	windows   *window.Manager
	text      *ocr.Locator
	composite *locator.Composite
	waits     *wait.Controller
	inputs    input.Synthesizer
	store     *history.Store
	recorder  history.Recorder

	closers []func()
}

// NewSession wires a session from settings. The screen-capture backend is
// required; window, OCR and input backends degrade gracefully when their
// platform support is missing.
func NewSession(cfg *config.Settings) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	log := logging.New("screenhand")
	log.SetMinLevel(logging.ParseLevel(cfg.Logging.Level))

	grabber, err := capture.NewGrabber()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize screen capture: %w", err)
	}

	s := &Session{cfg: cfg, log: log, recorder: history.Discard{}}
	if closer, ok := grabber.(interface{ Close() }); ok {
		s.closers = append(s.closers, closer.Close)
	}

	s.frames = capture.NewFrameCache(grabber, cfg.FrameTTL(), log.Child("capture"))
	s.templates = vision.NewTemplateCache(cfg.General.TemplateDir, cfg.Image.TemplateCacheSize)
	s.matcher = vision.NewMatcher(
		s.frames, s.templates,
		cfg.Image.Confidence, cfg.Image.Grayscale, cfg.Image.MaxMatches,
		log.Child("vision"),
	)
	s.coords = locator.NewCoordinates(s.frames)

	windowAPI, err := window.NewAPI()
	if err != nil {
		// Window lookups degrade to not-found; the manager warns once.
		log.Error("window backend unavailable", err)
		windowAPI = nil
	} else if closer, ok := windowAPI.(interface{ Close() }); ok {
		s.closers = append(s.closers, closer.Close)
	}
	s.windows = window.NewManager(
		windowAPI,
		cfg.Window.GeometryTolerance, cfg.SettleDelay(),
		log.Child("window"),
	)

	s.text = ocr.NewLocator(
		s.frames,
		ocr.NewEngine(cfg.OCR.Language),
		cfg.OCR.MinConfidence,
		log.Child("ocr"),
	)

	s.composite = locator.NewComposite(s.coords, s.matcher, s.text, s.windows, log.Child("locator"))
	s.waits = wait.NewController(
		s.matcher, s.frames, s.windows,
		cfg.Timeout(), cfg.Interval(),
		log.Child("wait"),
	)

	if synth, err := input.NewSynthesizer(); err == nil {
		s.inputs = synth
		if closer, ok := synth.(interface{ Close() }); ok {
			s.closers = append(s.closers, closer.Close)
		}
	} else {
		log.Error("input backend unavailable", err)
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			log.Error("history store unavailable, continuing without it", err)
		} else {
			s.store = store
			s.recorder = store
			s.closers = append(s.closers, func() { store.Close() })
		}
	}

	return s, nil
}

// AddLogOutput mirrors session logs to an additional writer.
func (s *Session) AddLogOutput(w io.Writer) {
	s.log.AddOutput(w)
}

// Locate resolves a query to a screen rectangle. A (nil, nil) return
// means the element was not found; errors are reserved for invalid
// queries.
func (s *Session) Locate(q Query) (*Rect, error) {
	start := time.Now()
	rect, err := s.composite.Locate(q)
	s.record("locate", describeQuery(q), rect != nil, 0, time.Since(start), err)
	return rect, err
}

// LocateAll resolves an image query to every non-overlapping match.
func (s *Session) LocateAll(template string, opts vision.Options) []Match {
	start := time.Now()
	matches := s.matcher.MatchAll(template, opts)
	best := 0.0
	if len(matches) > 0 {
		best = matches[0].Confidence
	}
	s.record("locate_all", template, len(matches) > 0, best, time.Since(start), nil)
	return matches
}

// WaitFor polls an arbitrary condition.
func (s *Session) WaitFor(cond func() (bool, error), timeout, interval time.Duration) bool {
	return s.waits.For(cond, timeout, interval)
}

// WaitForImage waits for a template to appear and returns its center.
func (s *Session) WaitForImage(template string, opts vision.Options, timeout, interval time.Duration) (Point, bool) {
	start := time.Now()
	p, ok := s.waits.ForImage(template, opts, timeout, interval)
	s.record("wait_image", template, ok, 0, time.Since(start), nil)
	return p, ok
}

// WaitForImageGone waits for a template to disappear.
func (s *Session) WaitForImageGone(template string, opts vision.Options, timeout, interval time.Duration) bool {
	return s.waits.ForImageGone(template, opts, timeout, interval)
}

// WaitForStableImage waits for a template to stay continuously present
// for the stability window.
func (s *Session) WaitForStableImage(template string, opts vision.Options, stability, timeout, interval time.Duration) (Point, bool) {
	return s.waits.ForStableImage(template, opts, stability, timeout, interval)
}

// WaitForWindow waits for a window whose title matches.
func (s *Session) WaitForWindow(title string, exact bool, timeout, interval time.Duration) (*window.Info, bool) {
	return s.waits.ForWindow(title, exact, timeout, interval)
}

// Retry runs action with the configured retry budget. This is the only
// session operation that surfaces an error from a failing action.
func (s *Session) Retry(action func() error) error {
	return s.waits.Retry(action, s.cfg.General.RetryCount, s.cfg.RetryDelay())
}

// FindText returns the rectangles of on-screen text matching the query.
func (s *Session) FindText(text string, region *Rect, exact bool) []Rect {
	start := time.Now()
	rects := s.text.FindText(text, region, exact)
	s.record("find_text", text, len(rects) > 0, 0, time.Since(start), nil)
	return rects
}

// Windows exposes window management for found handles.
func (s *Session) Windows() *window.Manager {
	return s.windows
}

// Click resolves the query and clicks the center of the result. A false
// return means the element was not found or no input backend exists.
func (s *Session) Click(q Query) (bool, error) {
	rect, err := s.Locate(q)
	if err != nil {
		return false, err
	}
	if rect == nil {
		return false, nil
	}
	if s.inputs == nil {
		return false, fmt.Errorf("no input backend available")
	}
	if err := s.inputs.Click(rect.Center(), input.ButtonLeft); err != nil {
		return false, fmt.Errorf("click failed: %w", err)
	}
	return true, nil
}

// TypeText sends the text as synthetic keystrokes to the focused window.
func (s *Session) TypeText(text string) error {
	if s.inputs == nil {
		return fmt.Errorf("no input backend available")
	}
	return s.inputs.Type(text)
}

// PressKey taps a named key such as "Return", "Tab" or "F5".
func (s *Session) PressKey(key string) error {
	if s.inputs == nil {
		return fmt.Errorf("no input backend available")
	}
	return s.inputs.KeyTap(key)
}

// Hotkey presses a key combination such as ("Control_L", "a").
func (s *Session) Hotkey(keys ...string) error {
	if s.inputs == nil {
		return fmt.Errorf("no input backend available")
	}
	return s.inputs.Hotkey(keys...)
}

// DumpFrame captures the screen and writes it to path with the given
// rectangles outlined. Debug aid for flaky templates.
func (s *Session) DumpFrame(path string, rects []Rect) error {
	frame, err := s.frames.Capture(nil)
	if err != nil {
		return fmt.Errorf("failed to capture frame for dump: %w", err)
	}
	return vision.SaveAnnotated(frame.Image, rects, path)
}

// CaptureRegion grabs a live rectangle of the screen, bypassing the
// frame cache.
func (s *Session) CaptureRegion(region *Rect) (*capture.Frame, error) {
	return s.frames.Capture(region)
}

// InvalidateFrame drops the cached screen frame so the next lookup sees a
// fresh capture.
func (s *Session) InvalidateFrame() {
	s.frames.Invalidate()
}

// History returns the operation log, or nil when history is disabled.
func (s *Session) History() *history.Store {
	return s.store
}

// Close releases backend connections and the history store.
func (s *Session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (s *Session) record(kind, target string, found bool, confidence float64, d time.Duration, opErr error) {
	msg := ""
	if opErr != nil {
		msg = opErr.Error()
	}
	if err := s.recorder.Record(history.Record{
		Kind:       kind,
		Target:     target,
		Found:      found,
		Confidence: confidence,
		Duration:   d,
		Error:      msg,
	}); err != nil {
		s.log.Error("failed to record operation history", err)
	}
}

func describeQuery(q Query) string {
	switch q.Type {
	case locator.KindImage:
		return q.Template
	case locator.KindText:
		return q.Text
	case locator.KindWindow:
		if q.Title != "" {
			return q.Title
		}
		return q.Class
	case locator.KindCoordinates:
		if q.X != nil && q.Y != nil {
			return fmt.Sprintf("(%d, %d)", *q.X, *q.Y)
		}
		if q.RX != nil && q.RY != nil {
			return fmt.Sprintf("(%g, %g)", *q.RX, *q.RY)
		}
	}
	return string(q.Type)
}
