//go:build !windows

package capture

// NewGrabber returns the platform screen-capture backend. Everything that
// is not Windows goes through X11.
func NewGrabber() (Grabber, error) {
	return NewX11Grabber()
}
