package capture

import (
	"image"
	"testing"
	"time"

	"github.com/screenhand/screenhand/internal/geometry"
)

// fakeGrabber serves a fixed-size synthetic screen and counts grabs.
type fakeGrabber struct {
	width, height int
	grabs         int
}

func (g *fakeGrabber) Grab(region *geometry.Rect) (*image.RGBA, error) {
	g.grabs++
	screen := geometry.NewRect(0, 0, g.width, g.height)
	target := screen
	if region != nil {
		target = region.Intersect(screen)
	}
	return image.NewRGBA(image.Rect(0, 0, target.Width(), target.Height())), nil
}

func (g *fakeGrabber) Size() (int, int, error) {
	return g.width, g.height, nil
}

func TestFullScreenCaptureIsCachedWithinTTL(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	cache := NewFrameCache(grabber, time.Minute, nil)

	first, err := cache.Capture(nil)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	second, err := cache.Capture(nil)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if grabber.grabs != 1 {
		t.Errorf("grabs = %d, want 1", grabber.grabs)
	}
	if first != second {
		t.Error("second capture did not reuse the cached frame")
	}
	if !second.FullScreen {
		t.Error("cached frame not marked full screen")
	}
}

func TestExpiredFrameIsRecaptured(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	cache := NewFrameCache(grabber, 10*time.Millisecond, nil)

	if _, err := cache.Capture(nil); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cache.Capture(nil); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if grabber.grabs != 2 {
		t.Errorf("grabs = %d, want 2", grabber.grabs)
	}
}

func TestInvalidateForcesFreshCapture(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	cache := NewFrameCache(grabber, time.Minute, nil)

	if _, err := cache.Capture(nil); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.Capture(nil); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}

	if grabber.grabs != 2 {
		t.Errorf("grabs = %d, want 2", grabber.grabs)
	}
}

func TestRegionCaptureBypassesCache(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	cache := NewFrameCache(grabber, time.Minute, nil)

	if _, err := cache.Capture(nil); err != nil {
		t.Fatalf("full capture failed: %v", err)
	}

	region := geometry.NewRect(10, 10, 50, 40)
	frame, err := cache.Capture(&region)
	if err != nil {
		t.Fatalf("region capture failed: %v", err)
	}

	// One full grab plus one region grab, the region one never cached.
	if grabber.grabs != 2 {
		t.Errorf("grabs = %d, want 2", grabber.grabs)
	}
	if frame.FullScreen {
		t.Error("region frame marked full screen")
	}
	if frame.Region != region {
		t.Errorf("frame region = %v, want %v", frame.Region, region)
	}

	again, err := cache.Capture(&region)
	if err != nil {
		t.Fatalf("second region capture failed: %v", err)
	}
	if again == frame {
		t.Error("region capture returned a cached frame")
	}
}

func TestRegionCaptureRecordsClampedRegion(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	cache := NewFrameCache(grabber, time.Minute, nil)

	region := geometry.NewRect(180, 90, 250, 150)
	frame, err := cache.Capture(&region)
	if err != nil {
		t.Fatalf("region capture failed: %v", err)
	}

	want := geometry.NewRect(180, 90, 200, 100)
	if frame.Region != want {
		t.Errorf("frame region = %v, want clamped %v", frame.Region, want)
	}
}

func TestEmptyRegionIsRejected(t *testing.T) {
	grabber := &fakeGrabber{width: 200, height: 100}
	cache := NewFrameCache(grabber, time.Minute, nil)

	region := geometry.Rect{Left: 10, Top: 10, Right: 10, Bottom: 20}
	if _, err := cache.Capture(&region); err == nil {
		t.Fatal("empty region accepted")
	}
	if grabber.grabs != 0 {
		t.Errorf("backend was called %d times for an invalid region", grabber.grabs)
	}
}
