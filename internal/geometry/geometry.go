package geometry

import (
	"fmt"
	"image"
)

// Point is a screen coordinate in pixels.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Rect is an axis-aligned rectangle in screen-pixel space.
// A valid Rect satisfies Left <= Right and Top <= Bottom. Right and
// Bottom are exclusive, matching image.Rectangle conventions.
type Rect struct {
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Right  int `yaml:"right"`
	Bottom int `yaml:"bottom"`
}

// NewRect builds a rectangle, swapping coordinates if they arrive reversed
// so the Left <= Right, Top <= Bottom invariant always holds.
func NewRect(left, top, right, bottom int) Rect {
	if right < left {
		left, right = right, left
	}
	if bottom < top {
		top, bottom = bottom, top
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// RectAt places a width x height rectangle with its top-left corner at origin.
func RectAt(origin Point, width, height int) Rect {
	return Rect{
		Left:   origin.X,
		Top:    origin.Y,
		Right:  origin.X + width,
		Bottom: origin.Y + height,
	}
}

// PointRect returns the degenerate 1x1 rectangle covering a single pixel.
func PointRect(p Point) Rect {
	return Rect{Left: p.X, Top: p.Y, Right: p.X + 1, Bottom: p.Y + 1}
}

// FromImageRect converts an image.Rectangle into a Rect.
func FromImageRect(r image.Rectangle) Rect {
	return Rect{Left: r.Min.X, Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y}
}

// ToImage converts the Rect into an image.Rectangle.
func (r Rect) ToImage() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Width returns Right - Left.
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns Bottom - Top.
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Area returns the covered pixel count. Invalid rectangles report 0.
func (r Rect) Area() int {
	if !r.Valid() {
		return 0
	}
	return r.Width() * r.Height()
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{
		X: r.Left + r.Width()/2,
		Y: r.Top + r.Height()/2,
	}
}

// Valid reports whether the rectangle satisfies its ordering invariant.
func (r Rect) Valid() bool {
	return r.Left <= r.Right && r.Top <= r.Bottom
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Contains reports whether p falls inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Translate shifts the rectangle by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Intersect returns the largest rectangle contained in both r and o.
// The result is empty when the rectangles do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Overlap returns the area shared by r and o in pixels.
func (r Rect) Overlap(o Rect) int {
	return r.Intersect(o).Area()
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
