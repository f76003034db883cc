package locator

import "github.com/screenhand/screenhand/internal/geometry"

// Kind selects the resolution strategy for a query.
type Kind string

const (
	KindCoordinates Kind = "coordinates"
	KindImage       Kind = "image"
	KindText        Kind = "text"
	KindWindow      Kind = "window"
)

// Query is a declarative element description, typically loaded from a
// YAML scenario file. Only the fields relevant to its Kind are read.
type Query struct {
	Type Kind `yaml:"type"`

	// Coordinate targets.
	X  *int     `yaml:"x,omitempty"`
	Y  *int     `yaml:"y,omitempty"`
	RX *float64 `yaml:"rx,omitempty"`
	RY *float64 `yaml:"ry,omitempty"`

	// Image targets.
	Template   string         `yaml:"template,omitempty"`
	Confidence *float64       `yaml:"confidence,omitempty"`
	Grayscale  *bool          `yaml:"grayscale,omitempty"`
	Region     *geometry.Rect `yaml:"region,omitempty"`

	// Text targets.
	Text       string `yaml:"text,omitempty"`
	ExactMatch bool   `yaml:"exact_match,omitempty"`

	// Window targets.
	Title string `yaml:"title,omitempty"`
	Class string `yaml:"class,omitempty"`
}
