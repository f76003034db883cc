//go:build windows

package capture

// NewGrabber returns the platform screen-capture backend.
func NewGrabber() (Grabber, error) {
	return NewGDIGrabber()
}
