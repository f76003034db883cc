package vision

import (
	"image"
	"testing"

	"github.com/screenhand/screenhand/internal/geometry"
)

// patternImage fills a deterministic, high-variance test screen.
func patternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := img.PixOffset(x, y)
			img.Pix[idx] = uint8((x*31 + y*17) % 251)
			img.Pix[idx+1] = uint8((x*13 + y*43) % 239)
			img.Pix[idx+2] = uint8((x*7 + y*29) % 233)
			img.Pix[idx+3] = 255
		}
	}
	return img
}

// cutTemplate copies a region of the haystack into a standalone template.
func cutTemplate(src *image.RGBA, r geometry.Rect, grayscale bool) *Template {
	rgba := image.NewRGBA(image.Rect(0, 0, r.Width(), r.Height()))
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			srcIdx := src.PixOffset(r.Left+x, r.Top+y)
			dstIdx := rgba.PixOffset(x, y)
			copy(rgba.Pix[dstIdx:dstIdx+4], src.Pix[srcIdx:srcIdx+4])
		}
	}

	tpl := &Template{Width: r.Width(), Height: r.Height()}
	if grayscale {
		tpl.Gray = ToGray(rgba)
	} else {
		tpl.RGBA = rgba
	}
	return tpl
}

func TestBestInImageFindsEmbeddedPattern(t *testing.T) {
	haystack := patternImage(120, 80)
	spot := geometry.NewRect(37, 22, 53, 34)

	for _, grayscale := range []bool{false, true} {
		tpl := cutTemplate(haystack, spot, grayscale)
		match, ok := BestInImage(haystack, tpl, 0.95, grayscale, nil)
		if !ok {
			t.Fatalf("grayscale=%t: embedded pattern not found", grayscale)
		}
		if match.Rect != spot {
			t.Errorf("grayscale=%t: found %v, want %v", grayscale, match.Rect, spot)
		}
		if match.Confidence < 0.99 {
			t.Errorf("grayscale=%t: confidence = %f, want ~1", grayscale, match.Confidence)
		}
		if match.Rect.Width() != tpl.Width || match.Rect.Height() != tpl.Height {
			t.Errorf("grayscale=%t: match rect %v does not have template dimensions", grayscale, match.Rect)
		}
	}
}

func TestBestInImageIsDeterministic(t *testing.T) {
	haystack := patternImage(90, 60)
	tpl := cutTemplate(haystack, geometry.NewRect(10, 10, 26, 22), true)

	first, ok1 := BestInImage(haystack, tpl, 0.9, true, nil)
	second, ok2 := BestInImage(haystack, tpl, 0.9, true, nil)
	if ok1 != ok2 || first != second {
		t.Errorf("repeated matching diverged: %v/%t vs %v/%t", first, ok1, second, ok2)
	}
}

func TestBestInImageMissesBelowThreshold(t *testing.T) {
	haystack := patternImage(60, 40)

	// A template absent from the haystack.
	foreign := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(foreign.Pix); i += 4 {
		foreign.Pix[i] = uint8(255 - i%256)
		foreign.Pix[i+3] = 255
	}
	tpl := &Template{RGBA: foreign, Width: 8, Height: 8}

	if match, ok := BestInImage(haystack, tpl, 0.99, false, nil); ok {
		t.Errorf("foreign template matched at %v with %f", match.Rect, match.Confidence)
	}
}

func TestBestInImageRespectsRegion(t *testing.T) {
	haystack := patternImage(120, 80)
	spot := geometry.NewRect(70, 40, 86, 52)
	tpl := cutTemplate(haystack, spot, true)

	elsewhere := geometry.NewRect(0, 0, 40, 30)
	if match, ok := BestInImage(haystack, tpl, 0.95, true, &elsewhere); ok {
		t.Errorf("match %v found outside the search region", match.Rect)
	}

	around := geometry.NewRect(60, 30, 100, 60)
	match, ok := BestInImage(haystack, tpl, 0.95, true, &around)
	if !ok {
		t.Fatal("pattern not found inside its own region")
	}
	if match.Rect != spot {
		t.Errorf("found %v, want %v", match.Rect, spot)
	}
}

func TestTemplateLargerThanSearchAreaNeverMatches(t *testing.T) {
	haystack := patternImage(30, 30)
	tpl := cutTemplate(patternImage(50, 50), geometry.NewRect(0, 0, 50, 50), true)

	if _, ok := BestInImage(haystack, tpl, 0.1, true, nil); ok {
		t.Error("oversized template reported a match")
	}
}

func TestNegativeCorrelationClampsToZero(t *testing.T) {
	haystack := patternImage(20, 20)

	// The photographic negative correlates at -1.
	inverted := image.NewRGBA(haystack.Rect)
	for i := 0; i < len(haystack.Pix); i += 4 {
		inverted.Pix[i] = 255 - haystack.Pix[i]
		inverted.Pix[i+1] = 255 - haystack.Pix[i+1]
		inverted.Pix[i+2] = 255 - haystack.Pix[i+2]
		inverted.Pix[i+3] = 255
	}

	score := nccGray(ToGray(haystack), ToGray(inverted), 0, 0, 20, 20)
	if score != 0 {
		t.Errorf("inverted pattern score = %f, want 0", score)
	}
}

func TestUniformPatchCorrelation(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}
	if score := nccGray(flat, flat, 0, 0, 10, 10); score != 1 {
		t.Errorf("identical flat patches score = %f, want 1", score)
	}

	other := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range other.Pix {
		other.Pix[i] = 64
	}
	if score := nccGray(flat, other, 0, 0, 10, 10); score != 0 {
		t.Errorf("different flat patches score = %f, want 0", score)
	}
}

func TestSuppressOverlapsDropsNearDuplicates(t *testing.T) {
	raw := []Match{
		{Rect: geometry.RectAt(geometry.Point{X: 101, Y: 51}, 40, 20), Confidence: 0.91},
		{Rect: geometry.RectAt(geometry.Point{X: 100, Y: 50}, 40, 20), Confidence: 0.93},
	}

	got := SuppressOverlaps(raw)
	if len(got) != 1 {
		t.Fatalf("kept %d matches, want 1", len(got))
	}
	if got[0].Confidence != 0.93 {
		t.Errorf("kept confidence %f, want the stronger 0.93", got[0].Confidence)
	}
	if got[0].Rect.Left != 100 || got[0].Rect.Top != 50 {
		t.Errorf("kept %v, want the (100,50) placement", got[0].Rect)
	}
}

func TestSuppressOverlapsKeepsDistinctMatches(t *testing.T) {
	raw := []Match{
		{Rect: geometry.RectAt(geometry.Point{X: 0, Y: 0}, 20, 20), Confidence: 0.85},
		{Rect: geometry.RectAt(geometry.Point{X: 100, Y: 0}, 20, 20), Confidence: 0.95},
		{Rect: geometry.RectAt(geometry.Point{X: 0, Y: 100}, 20, 20), Confidence: 0.90},
	}

	got := SuppressOverlaps(raw)
	if len(got) != 3 {
		t.Fatalf("kept %d matches, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Confidence < got[i].Confidence {
			t.Errorf("results not in descending confidence order: %v", got)
		}
	}
}

func TestSuppressOverlapsBoundaryExactlyHalf(t *testing.T) {
	// Overlap of exactly half the candidate area is still allowed.
	raw := []Match{
		{Rect: geometry.RectAt(geometry.Point{X: 0, Y: 0}, 20, 20), Confidence: 0.95},
		{Rect: geometry.RectAt(geometry.Point{X: 10, Y: 0}, 20, 20), Confidence: 0.90},
	}

	got := SuppressOverlaps(raw)
	if len(got) != 2 {
		t.Fatalf("kept %d matches, want 2 at the 50%% boundary", len(got))
	}
}

func TestSuppressOverlapsIsIdempotent(t *testing.T) {
	raw := []Match{
		{Rect: geometry.RectAt(geometry.Point{X: 0, Y: 0}, 20, 20), Confidence: 0.95},
		{Rect: geometry.RectAt(geometry.Point{X: 2, Y: 2}, 20, 20), Confidence: 0.94},
		{Rect: geometry.RectAt(geometry.Point{X: 50, Y: 50}, 20, 20), Confidence: 0.80},
	}

	once := SuppressOverlaps(raw)
	twice := SuppressOverlaps(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed result count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("second pass changed result %d: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestAllInImageTruncatesToMaxResults(t *testing.T) {
	// Two identical marks far apart on a flat background.
	haystack := image.NewRGBA(image.Rect(0, 0, 120, 40))
	for i := 3; i < len(haystack.Pix); i += 4 {
		haystack.Pix[i] = 255
	}
	mark := patternImage(10, 10)
	stamp := func(ox, oy int) {
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				srcIdx := mark.PixOffset(x, y)
				dstIdx := haystack.PixOffset(ox+x, oy+y)
				copy(haystack.Pix[dstIdx:dstIdx+4], mark.Pix[srcIdx:srcIdx+4])
			}
		}
	}
	stamp(10, 10)
	stamp(90, 10)

	tpl := cutTemplate(haystack, geometry.NewRect(10, 10, 20, 20), true)

	all := AllInImage(haystack, tpl, 0.95, true, nil, 0)
	if len(all) != 2 {
		t.Fatalf("found %d marks, want 2", len(all))
	}

	capped := AllInImage(haystack, tpl, 0.95, true, nil, 1)
	if len(capped) != 1 {
		t.Fatalf("capped result has %d matches, want 1", len(capped))
	}
}
