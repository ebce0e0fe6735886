//go:build !windows

package overlay

import (
	"fmt"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/screenshot"
)

// New returns the selector for the current platform.
func New() Selector { return unsupportedSelector{} }

type unsupportedSelector struct{}

func (unsupportedSelector) Select() (screenshot.Region, error) {
	return screenshot.Region{}, fmt.Errorf("interactive region selection is only implemented on windows")
}
