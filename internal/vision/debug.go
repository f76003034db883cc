package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/screenhand/screenhand/internal/geometry"
)

// MatchOutline is the color used to mark match rectangles.
var MatchOutline = color.RGBA{R: 255, A: 255}

// Annotate returns a copy of img with each rectangle outlined, for
// inspecting why a template does or does not resolve.
func Annotate(img *image.RGBA, rects []geometry.Rect, col color.RGBA) *image.RGBA {
	out := image.NewRGBA(img.Bounds())
	copy(out.Pix, img.Pix)
	for _, r := range rects {
		drawRect(out, r.ToImage().Intersect(out.Bounds()), col)
	}
	return out
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.RGBA) {
	if rect.Empty() {
		return
	}
	for x := rect.Min.X; x < rect.Max.X; x++ {
		img.SetRGBA(x, rect.Min.Y, col)
		img.SetRGBA(x, rect.Max.Y-1, col)
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		img.SetRGBA(rect.Min.X, y, col)
		img.SetRGBA(rect.Max.X-1, y, col)
	}
}

// SaveAnnotated writes img to path with the rectangles outlined. The
// output format follows the file extension.
func SaveAnnotated(img *image.RGBA, rects []geometry.Rect, path string) error {
	if err := imaging.Save(Annotate(img, rects, MatchOutline), path); err != nil {
		return fmt.Errorf("failed to save annotated frame: %w", err)
	}
	return nil
}
