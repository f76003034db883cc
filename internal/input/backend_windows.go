//go:build windows

package input

// NewSynthesizer returns the platform input backend.
func NewSynthesizer() (Synthesizer, error) {
	return NewWin32Synthesizer()
}
