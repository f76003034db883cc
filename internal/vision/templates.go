package vision

import (
	"container/list"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"

	// Template files may arrive in any of these formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"image"
)

// Template is a decoded reference image, prepared in the color space it
// will be matched in. Exactly one of RGBA and Gray is set.
type Template struct {
	Path   string
	RGBA   *image.RGBA
	Gray   *image.Gray
	Width  int
	Height int
}

type templateKey struct {
	path      string
	grayscale bool
}

// TemplateCache decodes template files on demand and keeps the most
// recently used entries, bounded by entry count. The same file loaded in
// color and in grayscale occupies two entries.
type TemplateCache struct {
	mu      sync.Mutex
	cap     int
	dir     string
	order   *list.List
	entries map[templateKey]*list.Element
}

type cacheEntry struct {
	key templateKey
	tpl *Template
}

// NewTemplateCache builds a cache holding up to capacity decoded
// templates. Relative paths are resolved against dir.
func NewTemplateCache(dir string, capacity int) *TemplateCache {
	if capacity < 1 {
		capacity = 1
	}
	return &TemplateCache{
		cap:     capacity,
		dir:     dir,
		order:   list.New(),
		entries: make(map[templateKey]*list.Element),
	}
}

// Get returns the prepared template, decoding and caching it on first use.
func (c *TemplateCache) Get(path string, grayscale bool) (*Template, error) {
	key := templateKey{path: path, grayscale: grayscale}

	c.mu.Lock()
	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		tpl := elem.Value.(*cacheEntry).tpl
		c.mu.Unlock()
		return tpl, nil
	}
	c.mu.Unlock()

	tpl, err := c.load(path, grayscale)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		// Lost a race with another loader; keep the existing entry.
		c.order.MoveToFront(elem)
		return elem.Value.(*cacheEntry).tpl, nil
	}
	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, tpl: tpl})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
	return tpl, nil
}

// Len reports the number of cached templates.
func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Resolve maps a template path to the file that will be opened.
func (c *TemplateCache) Resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(c.dir, path)
}

func (c *TemplateCache) load(path string, grayscale bool) (*Template, error) {
	resolved := c.Resolve(path)
	src, err := imaging.Open(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to load template %q: %w", resolved, err)
	}

	rgba := clone.AsRGBA(src)
	bounds := rgba.Bounds()
	tpl := &Template{
		Path:   resolved,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
	if tpl.Width == 0 || tpl.Height == 0 {
		return nil, fmt.Errorf("template %q is empty", resolved)
	}

	if grayscale {
		tpl.Gray = ToGray(rgba)
	} else {
		tpl.RGBA = rgba
	}
	return tpl, nil
}
