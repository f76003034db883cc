//go:build cgo

package vision

// The webp decoder is cgo-backed, so it is only registered when cgo is
// available; other template formats are registered unconditionally in
// templates.go.
import _ "github.com/chai2010/webp"
