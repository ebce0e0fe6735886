// Package screenshot grabs pixel regions of the virtual screen and encodes
// them as PNG buffers for the vision request. Regions are rectangles in
// virtual-screen coordinates; with per-monitor DPI awareness set at startup
// those are physical pixels.
package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// Region is one capture rectangle. It is produced by the overlay and
// consumed exactly once; nothing retains it after the capture.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Valid reports whether the rectangle encloses at least one pixel.
func (r Region) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// VirtualBounds returns the union of all active display bounds.
func VirtualBounds() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

// CaptureScreen grabs the entire virtual screen. The overlay freezes this
// image as its background while the user drags a selection.
func CaptureScreen() (*image.RGBA, error) {
	bounds, err := VirtualBounds()
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}

// CaptureRegion grabs one rectangle and returns it PNG-encoded. Degenerate
// rectangles are rejected before any capture happens.
func CaptureRegion(region Region) ([]byte, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height)
	}

	bounds := image.Rect(region.X, region.Y, region.X+region.Width, region.Y+region.Height)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture region: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
