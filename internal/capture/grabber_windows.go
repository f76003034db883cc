//go:build windows

package capture

import (
	"fmt"
	"image"
	"syscall"
	"unsafe"

	"github.com/screenhand/screenhand/internal/geometry"
)

var (
	user32                 = syscall.NewLazyDLL("user32.dll")
	gdi32                  = syscall.NewLazyDLL("gdi32.dll")
	procGetDC              = user32.NewProc("GetDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procGetSystemMetrics   = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

const (
	srcCopy      = 0x00CC0020
	biRGB        = 0
	dibRGBColors = 0

	smCxScreen = 0
	smCyScreen = 1
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

// GDIGrabber captures the primary display through BitBlt into a DIB
// section.
type GDIGrabber struct{}

// NewGDIGrabber returns a GDI-backed screen grabber.
func NewGDIGrabber() (*GDIGrabber, error) {
	return &GDIGrabber{}, nil
}

// Grab captures the requested region of the screen, or the whole screen
// when region is nil.
func (g *GDIGrabber) Grab(region *geometry.Rect) (*image.RGBA, error) {
	sw, sh, err := g.Size()
	if err != nil {
		return nil, err
	}
	screenRect := geometry.NewRect(0, 0, sw, sh)

	target := screenRect
	if region != nil {
		target = region.Intersect(screenRect)
		if target.Empty() {
			return nil, fmt.Errorf("capture region %s is outside the screen", region)
		}
	}

	width := target.Width()
	height := target.Height()

	hScreenDC, _, _ := procGetDC.Call(0)
	if hScreenDC == 0 {
		return nil, fmt.Errorf("GetDC failed")
	}
	defer procReleaseDC.Call(0, hScreenDC)

	hMemDC, _, _ := procCreateCompatibleDC.Call(hScreenDC)
	if hMemDC == 0 {
		return nil, fmt.Errorf("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(hMemDC)

	// Top-down DIB (negative height) so (0,0) is the top-left pixel.
	bmi := bitmapInfoHeader{
		Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		Width:       int32(width),
		Height:      -int32(height),
		Planes:      1,
		BitCount:    32,
		Compression: biRGB,
	}

	var bits uintptr
	hBitmap, _, _ := procCreateDIBSection.Call(
		hMemDC,
		uintptr(unsafe.Pointer(&bmi)),
		dibRGBColors,
		uintptr(unsafe.Pointer(&bits)),
		0, 0,
	)
	if hBitmap == 0 {
		return nil, fmt.Errorf("CreateDIBSection failed")
	}
	defer procDeleteObject.Call(hBitmap)

	oldObj, _, _ := procSelectObject.Call(hMemDC, hBitmap)
	if oldObj == 0 {
		return nil, fmt.Errorf("SelectObject failed")
	}
	defer procSelectObject.Call(hMemDC, oldObj)

	ret, _, _ := procBitBlt.Call(
		hMemDC,
		0, 0, uintptr(width), uintptr(height),
		hScreenDC,
		uintptr(target.Left), uintptr(target.Top),
		srcCopy,
	)
	if ret == 0 {
		return nil, fmt.Errorf("BitBlt failed")
	}

	total := width * height * 4
	src := unsafe.Slice((*byte)(unsafe.Pointer(bits)), total)

	// Copy out of the DIB before it is destroyed, converting BGRA to RGBA.
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < total; i += 4 {
		img.Pix[i] = src[i+2]
		img.Pix[i+1] = src[i+1]
		img.Pix[i+2] = src[i]
		img.Pix[i+3] = 255
	}

	return img, nil
}

// Size returns the primary display dimensions.
func (g *GDIGrabber) Size() (int, int, error) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("GetSystemMetrics failed")
	}
	return int(w), int(h), nil
}
