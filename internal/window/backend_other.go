//go:build !windows

package window

// NewAPI returns the platform window backend. Everything that is not
// Windows goes through X11.
func NewAPI() (API, error) {
	return NewX11API()
}
