// Package overlay presents a full-screen drag-to-select surface over a
// frozen grab of the virtual screen and reports the chosen rectangle in
// virtual-screen coordinates.
package overlay

import (
	"errors"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/screenshot"
)

// ErrCancelled reports that the user dismissed the selector without
// choosing a region.
var ErrCancelled = errors.New("selection cancelled")

// minSelectionSpan is the smallest drag, in pixels per axis, that counts as
// a deliberate selection. Anything smaller is treated as a slip and the
// overlay keeps waiting for another drag.
const minSelectionSpan = 5

// Selector runs one interactive region selection. Select blocks until the
// user completes a drag or cancels with ESC.
type Selector interface {
	Select() (screenshot.Region, error)
}

// dragBounds normalizes two drag corners into a left/top origin plus
// non-negative extents.
func dragBounds(x0, y0, x1, y1 int32) (left, top, width, height int32) {
	return min(x0, x1), min(y0, y1), abs32(x1 - x0), abs32(y1 - y0)
}

func viableSelection(width, height int32) bool {
	return width > minSelectionSpan && height > minSelectionSpan
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
