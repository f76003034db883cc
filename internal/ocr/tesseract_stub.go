//go:build !cgo

package ocr

import (
	"fmt"
	"image"
)

// unavailableEngine stands in when the binary was built without cgo and
// the Tesseract bindings are absent.
type unavailableEngine struct{}

func (unavailableEngine) Available() bool { return false }

func (unavailableEngine) Recognize(image.Image) ([]Word, error) {
	return nil, fmt.Errorf("OCR support requires a cgo build")
}

// NewEngine returns the default recognition backend.
func NewEngine(string) Engine {
	return unavailableEngine{}
}
