//go:build cgo

package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"

	"github.com/screenhand/screenhand/internal/geometry"
)

// TesseractEngine recognizes text through the native Tesseract bindings.
type TesseractEngine struct {
	language string
}

// NewTesseractEngine builds an engine for the given Tesseract language
// code, e.g. "eng".
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language}
}

// Available probes for a working Tesseract installation.
func (e *TesseractEngine) Available() bool {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version() != ""
}

// Recognize runs word-level OCR over the image. Tesseract wants a file
// path, so the image takes a round trip through a temporary PNG.
func (e *TesseractEngine) Recognize(img image.Image) ([]Word, error) {
	tmpFile, err := os.CreateTemp("", "screenhand-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get bounding boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: float64(box.Confidence) / 100.0,
			Polygon: []geometry.Point{
				{X: box.Box.Min.X, Y: box.Box.Min.Y},
				{X: box.Box.Max.X, Y: box.Box.Min.Y},
				{X: box.Box.Max.X, Y: box.Box.Max.Y},
				{X: box.Box.Min.X, Y: box.Box.Max.Y},
			},
		})
	}
	return words, nil
}

// NewEngine returns the default recognition backend.
func NewEngine(language string) Engine {
	return NewTesseractEngine(language)
}
