package vision

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorAt reads the pixel at image coordinates (x, y). The second return
// is false when the point falls outside the image.
func ColorAt(img *image.RGBA, x, y int) (color.RGBA, bool) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return color.RGBA{}, false
	}
	idx := img.PixOffset(x, y)
	return color.RGBA{
		R: img.Pix[idx],
		G: img.Pix[idx+1],
		B: img.Pix[idx+2],
		A: 255,
	}, true
}

// ColorMatches reports whether each channel of got is within tolerance of
// want. Alpha is ignored.
func ColorMatches(got, want color.RGBA, tolerance uint8) bool {
	return channelClose(got.R, want.R, tolerance) &&
		channelClose(got.G, want.G, tolerance) &&
		channelClose(got.B, want.B, tolerance)
}

func channelClose(a, b, tolerance uint8) bool {
	if a > b {
		return a-b <= tolerance
	}
	return b-a <= tolerance
}

// RegionAverage computes the mean color over the intersection of rect and
// the image bounds.
func RegionAverage(img *image.RGBA, rect image.Rectangle) color.RGBA {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return color.RGBA{A: 255}
	}

	var sumR, sumG, sumB uint64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := img.PixOffset(rect.Min.X, y)
		for x := 0; x < rect.Dx(); x++ {
			idx := row + x*4
			sumR += uint64(img.Pix[idx])
			sumG += uint64(img.Pix[idx+1])
			sumB += uint64(img.Pix[idx+2])
		}
	}

	n := uint64(rect.Dx() * rect.Dy())
	return color.RGBA{
		R: uint8(sumR / n),
		G: uint8(sumG / n),
		B: uint8(sumB / n),
		A: 255,
	}
}

// HexString renders a color as "#rrggbb" for logs and CLI output.
func HexString(c color.RGBA) string {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}.Hex()
}
