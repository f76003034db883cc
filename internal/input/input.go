// Package input synthesizes mouse and keyboard events so resolved screen
// positions can actually be acted on.
package input

import "github.com/screenhand/screenhand/internal/geometry"

// Button identifies a mouse button.
type Button uint8

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

// Synthesizer injects pointer and keyboard events. Key names follow X
// keysym conventions ("a", "space", "Return", "Control_L", "F5"); both
// backends accept the same vocabulary.
type Synthesizer interface {
	MoveTo(p geometry.Point) error
	Click(p geometry.Point, button Button) error
	DoubleClick(p geometry.Point, button Button) error
	KeyTap(key string) error
	Hotkey(keys ...string) error
	Type(text string) error
}
