//go:build windows

package window

// NewAPI returns the platform window backend.
func NewAPI() (API, error) {
	return NewWin32API()
}
