// Package vision implements normalized cross-correlation template matching
// against cached screen frames, with duplicate-detection suppression.
package vision

import (
	"image"
	"math"
	"sort"

	"github.com/screenhand/screenhand/internal/capture"
	"github.com/screenhand/screenhand/internal/geometry"
	"github.com/screenhand/screenhand/internal/logging"
)

// Match is a located template instance. Confidence is in [0,1].
type Match struct {
	Rect       geometry.Rect
	Confidence float64
}

// Options configures a single match call. Zero values fall back to the
// matcher defaults.
type Options struct {
	Confidence float64
	Grayscale  *bool
	Region     *geometry.Rect
	MaxResults int
}

// Matcher locates template images on screen. A miss, a missing template
// file, or an undecodable template is a normal "not found" outcome, never
// an error.
type Matcher struct {
	frames    *capture.FrameCache
	templates *TemplateCache
	log       *logging.Logger

	defaultConfidence float64
	defaultGrayscale  bool
	defaultMaxResults int
}

// NewMatcher builds a matcher over a frame cache and a template cache.
func NewMatcher(frames *capture.FrameCache, templates *TemplateCache, confidence float64, grayscale bool, maxResults int, log *logging.Logger) *Matcher {
	return &Matcher{
		frames:            frames,
		templates:         templates,
		log:               log,
		defaultConfidence: confidence,
		defaultGrayscale:  grayscale,
		defaultMaxResults: maxResults,
	}
}

func (m *Matcher) resolve(opts Options) (confidence float64, grayscale bool, maxResults int) {
	confidence = opts.Confidence
	if confidence <= 0 {
		confidence = m.defaultConfidence
	}
	grayscale = m.defaultGrayscale
	if opts.Grayscale != nil {
		grayscale = *opts.Grayscale
	}
	maxResults = opts.MaxResults
	if maxResults <= 0 {
		maxResults = m.defaultMaxResults
	}
	return confidence, grayscale, maxResults
}

// MatchBest returns the highest-scoring placement of the template on the
// current screen, if it clears the confidence threshold.
func (m *Matcher) MatchBest(templatePath string, opts Options) (Match, bool) {
	confidence, grayscale, _ := m.resolve(opts)

	frame, tpl, ok := m.prepare(templatePath, grayscale)
	if !ok {
		return Match{}, false
	}
	return BestInImage(frame.Image, tpl, confidence, grayscale, opts.Region)
}

// MatchAll returns every placement clearing the threshold, deduplicated by
// overlap suppression, ordered by descending confidence and truncated to
// the result cap.
func (m *Matcher) MatchAll(templatePath string, opts Options) []Match {
	confidence, grayscale, maxResults := m.resolve(opts)

	frame, tpl, ok := m.prepare(templatePath, grayscale)
	if !ok {
		return nil
	}
	return AllInImage(frame.Image, tpl, confidence, grayscale, opts.Region, maxResults)
}

// prepare captures the screen and loads the template, absorbing failures
// into a logged miss.
func (m *Matcher) prepare(templatePath string, grayscale bool) (*capture.Frame, *Template, bool) {
	tpl, err := m.templates.Get(templatePath, grayscale)
	if err != nil {
		if m.log != nil {
			m.log.Error("template unavailable, treating as no match", err)
		}
		return nil, nil, false
	}

	frame, err := m.frames.Capture(nil)
	if err != nil {
		if m.log != nil {
			m.log.Error("screen capture failed, treating as no match", err)
		}
		return nil, nil, false
	}
	return frame, tpl, true
}

// BestInImage scans haystack for the template's best placement.
func BestInImage(haystack *image.RGBA, tpl *Template, confidence float64, grayscale bool, region *geometry.Rect) (Match, bool) {
	scan, ok := newScan(haystack, tpl, grayscale, region)
	if !ok {
		return Match{}, false
	}

	best := Match{Confidence: -1}
	scan.each(func(x, y int, score float64) {
		if score > best.Confidence {
			best = Match{
				Rect:       geometry.RectAt(geometry.Point{X: x, Y: y}, tpl.Width, tpl.Height),
				Confidence: score,
			}
		}
	})

	if best.Confidence < confidence {
		return Match{}, false
	}
	return best, true
}

// AllInImage scans haystack for every placement scoring at or above the
// threshold, suppresses overlapping duplicates and truncates to
// maxResults (0 = unlimited).
func AllInImage(haystack *image.RGBA, tpl *Template, confidence float64, grayscale bool, region *geometry.Rect, maxResults int) []Match {
	scan, ok := newScan(haystack, tpl, grayscale, region)
	if !ok {
		return nil
	}

	var raw []Match
	scan.each(func(x, y int, score float64) {
		if score >= confidence {
			raw = append(raw, Match{
				Rect:       geometry.RectAt(geometry.Point{X: x, Y: y}, tpl.Width, tpl.Height),
				Confidence: score,
			})
		}
	})

	matches := SuppressOverlaps(raw)
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// SuppressOverlaps removes duplicate detections of the same on-screen
// element. Candidates are processed highest-confidence first; a candidate
// survives only if its overlap with every accepted match stays at or below
// half of its own area. The result keeps descending-confidence order and
// the pass is idempotent.
func SuppressOverlaps(raw []Match) []Match {
	if len(raw) == 0 {
		return nil
	}

	sorted := make([]Match, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	var accepted []Match
	for _, cand := range sorted {
		limit := cand.Rect.Area() / 2
		dup := false
		for _, kept := range accepted {
			if cand.Rect.Overlap(kept.Rect) > limit {
				dup = true
				break
			}
		}
		if !dup {
			accepted = append(accepted, cand)
		}
	}
	return accepted
}

// scan holds the prepared working images and bounds for one matching pass.
type scan struct {
	grayH, grayN *image.Gray
	rgbaH, rgbaN *image.RGBA
	bounds       image.Rectangle
	tplW, tplH   int
}

func newScan(haystack *image.RGBA, tpl *Template, grayscale bool, region *geometry.Rect) (*scan, bool) {
	bounds := haystack.Bounds()
	if region != nil {
		bounds = region.ToImage().Intersect(bounds)
		if bounds.Empty() {
			return nil, false
		}
	}
	if tpl.Width > bounds.Dx() || tpl.Height > bounds.Dy() {
		return nil, false
	}

	s := &scan{bounds: bounds, tplW: tpl.Width, tplH: tpl.Height}
	if grayscale {
		s.grayH = ToGray(haystack)
		s.grayN = tpl.Gray
		if s.grayN == nil {
			s.grayN = ToGray(tpl.RGBA)
		}
	} else {
		s.rgbaH = haystack
		s.rgbaN = tpl.RGBA
		if s.rgbaN == nil {
			return nil, false
		}
	}
	return s, true
}

// each invokes fn with the clamped NCC score at every valid placement.
func (s *scan) each(fn func(x, y int, score float64)) {
	maxY := s.bounds.Max.Y - s.tplH
	maxX := s.bounds.Max.X - s.tplW

	for y := s.bounds.Min.Y; y <= maxY; y++ {
		for x := s.bounds.Min.X; x <= maxX; x++ {
			var score float64
			if s.grayH != nil {
				score = nccGray(s.grayH, s.grayN, x, y, s.tplW, s.tplH)
			} else {
				score = nccRGBA(s.rgbaH, s.rgbaN, x, y, s.tplW, s.tplH)
			}
			fn(x, y, score)
		}
	}
}

// nccGray computes the normalized cross-correlation of the template against
// the haystack at offset (x, y), clamped to [0,1].
func nccGray(haystack, needle *image.Gray, x, y, width, height int) float64 {
	var sumH, sumN, sumHN, sumHH, sumNN float64
	n := float64(width * height)

	for ny := 0; ny < height; ny++ {
		hRow := (y+ny-haystack.Rect.Min.Y)*haystack.Stride + (x - haystack.Rect.Min.X)
		nRow := ny * needle.Stride
		for nx := 0; nx < width; nx++ {
			h := float64(haystack.Pix[hRow+nx])
			v := float64(needle.Pix[nRow+nx])
			sumH += h
			sumN += v
			sumHN += h * v
			sumHH += h * h
			sumNN += v * v
		}
	}

	return clampCorrelation(sumH, sumN, sumHN, sumHH, sumNN, n)
}

// nccRGBA is the color variant of nccGray, correlating R, G and B as one
// sample stream.
func nccRGBA(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sumH, sumN, sumHN, sumHH, sumNN float64
	n := float64(width * height * 3)

	for ny := 0; ny < height; ny++ {
		hRow := (y+ny-haystack.Rect.Min.Y)*haystack.Stride + (x-haystack.Rect.Min.X)*4
		nRow := ny * needle.Stride
		for nx := 0; nx < width; nx++ {
			hIdx := hRow + nx*4
			nIdx := nRow + nx*4
			for c := 0; c < 3; c++ {
				h := float64(haystack.Pix[hIdx+c])
				v := float64(needle.Pix[nIdx+c])
				sumH += h
				sumN += v
				sumHN += h * v
				sumHH += h * h
				sumNN += v * v
			}
		}
	}

	return clampCorrelation(sumH, sumN, sumHN, sumHH, sumNN, n)
}

func clampCorrelation(sumH, sumN, sumHN, sumHH, sumNN, n float64) float64 {
	numerator := sumHN - sumH*sumN/n
	denomH := math.Sqrt(sumHH - sumH*sumH/n)
	denomN := math.Sqrt(sumNN - sumN*sumN/n)
	if denomH == 0 || denomN == 0 {
		// Flat patches carry no correlation signal; a uniform template
		// over an identical uniform patch still counts as a perfect match.
		if denomH == 0 && denomN == 0 && sumH == sumN {
			return 1
		}
		return 0
	}

	corr := numerator / (denomH * denomN)
	if corr < 0 {
		return 0
	}
	if corr > 1 {
		return 1
	}
	return corr
}

// ToGray converts an RGBA image to 8-bit grayscale using integer luminance.
func ToGray(img *image.RGBA) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		srcRow := (y - bounds.Min.Y) * img.Stride
		dstRow := (y - bounds.Min.Y) * gray.Stride
		for x := 0; x < bounds.Dx(); x++ {
			idx := srcRow + x*4
			r := int(img.Pix[idx])
			g := int(img.Pix[idx+1])
			b := int(img.Pix[idx+2])
			gray.Pix[dstRow+x] = uint8((r*299 + g*587 + b*114) / 1000)
		}
	}
	return gray
}
