package wait

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/screenhand/screenhand/internal/capture"
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/vision"
)

func newTestController() *Controller {
	return NewController(nil, nil, nil, 100*time.Millisecond, 5*time.Millisecond, nil)
}

func TestForReturnsOnFirstSuccess(t *testing.T) {
	c := newTestController()
	calls := 0
	ok := c.For(func() (bool, error) {
		calls++
		return true, nil
	}, time.Second, time.Millisecond)

	if !ok {
		t.Fatal("For returned false for an immediately true condition")
	}
	if calls != 1 {
		t.Errorf("condition evaluated %d times, want 1", calls)
	}
}

func TestForTimesOutWithinOneInterval(t *testing.T) {
	c := newTestController()
	timeout := 50 * time.Millisecond
	interval := 10 * time.Millisecond

	start := time.Now()
	ok := c.For(func() (bool, error) { return false, nil }, timeout, interval)
	elapsed := time.Since(start)

	if ok {
		t.Fatal("For returned true for an always-false condition")
	}
	if elapsed < timeout {
		t.Errorf("returned after %s, before the %s timeout", elapsed, timeout)
	}
	if elapsed > timeout+interval+50*time.Millisecond {
		t.Errorf("overshot timeout by %s", elapsed-timeout)
	}
}

func TestForSwallowsPredicateErrors(t *testing.T) {
	c := newTestController()
	calls := 0
	ok := c.For(func() (bool, error) {
		calls++
		if calls < 3 {
			return false, errors.New("transient failure")
		}
		return true, nil
	}, time.Second, time.Millisecond)

	if !ok {
		t.Fatal("For gave up on a condition that recovered from errors")
	}
	if calls != 3 {
		t.Errorf("condition evaluated %d times, want 3", calls)
	}
}

func TestForEvaluatesConditionAtLeastOnce(t *testing.T) {
	c := newTestController()
	calls := 0
	c.For(func() (bool, error) {
		calls++
		return false, nil
	}, time.Nanosecond, time.Millisecond)

	if calls < 1 {
		t.Error("condition never evaluated")
	}
}

func TestRetrySucceedsWithinBudget(t *testing.T) {
	c := newTestController()
	attempts := 0
	err := c.Retry(func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("attempt %d failed", attempts)
		}
		return nil
	}, 2, time.Millisecond)

	if err != nil {
		t.Fatalf("Retry failed despite a successful final attempt: %v", err)
	}
	if attempts != 3 {
		t.Errorf("action ran %d times, want 3", attempts)
	}
}

func TestRetryReturnsLastError(t *testing.T) {
	c := newTestController()
	sentinel := errors.New("persistent failure")
	attempts := 0
	err := c.Retry(func() error {
		attempts++
		if attempts < 3 {
			return errors.New("earlier failure")
		}
		return sentinel
	}, 2, time.Millisecond)

	if err == nil {
		t.Fatal("Retry reported success for an always-failing action")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Retry error %v does not wrap the last attempt's error", err)
	}
	if attempts != 3 {
		t.Errorf("action ran %d times, want 3 (1 + 2 retries)", attempts)
	}
}

func TestRetryZeroIntervalDoesNotSleep(t *testing.T) {
	c := NewController(nil, nil, nil, time.Second, 100*time.Millisecond, nil)
	attempts := 0

	start := time.Now()
	err := c.Retry(func() error {
		attempts++
		return errors.New("failure")
	}, 2, 0)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Retry reported success")
	}
	if attempts != 3 {
		t.Errorf("action ran %d times, want 3", attempts)
	}
	// Zero means no delay, not the controller default.
	if elapsed >= 100*time.Millisecond {
		t.Errorf("zero-interval retry slept for %s", elapsed)
	}
}

func TestRetryZeroBudgetRunsOnce(t *testing.T) {
	c := newTestController()
	attempts := 0
	err := c.Retry(func() error {
		attempts++
		return errors.New("failure")
	}, 0, time.Millisecond)

	if err == nil {
		t.Fatal("Retry reported success")
	}
	if attempts != 1 {
		t.Errorf("action ran %d times, want 1", attempts)
	}
}

// scriptedGrabber serves a fixed sequence of screens, repeating the last
// one when the script runs out.
type scriptedGrabber struct {
	frames []*image.RGBA
	next   int
}

func (g *scriptedGrabber) Grab(region *geometry.Rect) (*image.RGBA, error) {
	idx := g.next
	if idx >= len(g.frames) {
		idx = len(g.frames) - 1
	} else {
		g.next++
	}
	return g.frames[idx], nil
}

func (g *scriptedGrabber) Size() (int, int, error) {
	b := g.frames[0].Bounds()
	return b.Dx(), b.Dy(), nil
}

// markScreen builds a flat screen with an optional distinctive mark.
func markScreen(withMark bool) *image.RGBA {
	if withMark {
		return markScreenAt(10, 10)
	}
	return markScreenAt(-1, -1)
}

// markScreenAt builds a flat screen with the mark's top-left corner at
// (ox, oy). Negative origins leave the screen blank.
func markScreenAt(ox, oy int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	if ox >= 0 && oy >= 0 {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				idx := img.PixOffset(ox+x, oy+y)
				img.Pix[idx] = uint8((x*31 + y*17) % 251)
				img.Pix[idx+1] = uint8((x*13 + y*43) % 239)
				img.Pix[idx+2] = uint8((x*7 + y*29) % 233)
			}
		}
	}
	return img
}

func writeMarkTemplate(t *testing.T) (dir string) {
	t.Helper()
	dir = t.TempDir()
	full := markScreen(true)
	tpl := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			srcIdx := full.PixOffset(10+x, 10+y)
			dstIdx := tpl.PixOffset(x, y)
			copy(tpl.Pix[dstIdx:dstIdx+4], full.Pix[srcIdx:srcIdx+4])
		}
	}

	f, err := os.Create(filepath.Join(dir, "mark.png"))
	if err != nil {
		t.Fatalf("failed to create template: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, tpl); err != nil {
		t.Fatalf("failed to encode template: %v", err)
	}
	return dir
}

func markController(t *testing.T, grabber capture.Grabber) *Controller {
	t.Helper()
	dir := writeMarkTemplate(t)
	frames := capture.NewFrameCache(grabber, 0, nil)
	templates := vision.NewTemplateCache(dir, 4)
	matcher := vision.NewMatcher(frames, templates, 0.9, true, 10, nil)
	return NewController(matcher, frames, nil, 2*time.Second, 10*time.Millisecond, nil)
}

func TestForImageFindsAppearingMark(t *testing.T) {
	grabber := &scriptedGrabber{frames: []*image.RGBA{
		markScreen(false),
		markScreen(false),
		markScreen(true),
	}}
	c := markController(t, grabber)

	p, ok := c.ForImage("mark.png", vision.Options{}, 2*time.Second, 10*time.Millisecond)
	if !ok {
		t.Fatal("mark never found")
	}
	if p != (geometry.Point{X: 15, Y: 15}) {
		t.Errorf("center = %v, want (15, 15)", p)
	}
}

func TestForImageGone(t *testing.T) {
	grabber := &scriptedGrabber{frames: []*image.RGBA{
		markScreen(true),
		markScreen(true),
		markScreen(false),
	}}
	c := markController(t, grabber)

	if !c.ForImageGone("mark.png", vision.Options{}, 2*time.Second, 10*time.Millisecond) {
		t.Fatal("mark never reported gone")
	}
}

func TestForStableImageResetsOnDisappearance(t *testing.T) {
	// Present, gone, then present for good. The early flicker must not
	// count toward the stability window.
	grabber := &scriptedGrabber{frames: []*image.RGBA{
		markScreen(true),
		markScreen(false),
		markScreen(true),
	}}
	c := markController(t, grabber)

	interval := 20 * time.Millisecond
	stability := 50 * time.Millisecond

	start := time.Now()
	_, ok := c.ForStableImage("mark.png", vision.Options{}, stability, 2*time.Second, interval)
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("stable mark never confirmed")
	}
	// One flickering poll plus the full stability window from the second
	// appearance onward.
	if elapsed < interval+stability {
		t.Errorf("confirmed after %s, before the flicker plus stability window (%s)",
			elapsed, interval+stability)
	}
}

func TestForStableImageTracksLatestPosition(t *testing.T) {
	// The mark shifts after its first sighting while staying present; the
	// reported center must follow it, not the stale first position.
	grabber := &scriptedGrabber{frames: []*image.RGBA{
		markScreenAt(10, 10),
		markScreenAt(30, 20),
	}}
	c := markController(t, grabber)

	p, ok := c.ForStableImage("mark.png", vision.Options{}, 50*time.Millisecond, 2*time.Second, 10*time.Millisecond)
	if !ok {
		t.Fatal("moving mark never reported stable")
	}
	if p != (geometry.Point{X: 35, Y: 25}) {
		t.Errorf("center = %v, want the current position (35, 25)", p)
	}
}

func TestForStableImageTimesOutOnFlicker(t *testing.T) {
	// Alternating presence never satisfies a stability window longer than
	// one poll interval.
	frames := make([]*image.RGBA, 0, 40)
	for i := 0; i < 40; i++ {
		frames = append(frames, markScreen(i%2 == 0))
	}
	c := markController(t, &scriptedGrabber{frames: frames})

	_, ok := c.ForStableImage("mark.png", vision.Options{}, 100*time.Millisecond, 200*time.Millisecond, 10*time.Millisecond)
	if ok {
		t.Fatal("flickering mark reported stable")
	}
}
