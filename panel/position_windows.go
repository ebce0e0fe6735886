//go:build windows

package panel

import (
	"log"
	"syscall"
	"time"
	"unsafe"

	"fyne.io/fyne/v2"
)

// Fyne has no window placement API, so the panel is docked by locating its
// native window by title and moving it with SetWindowPos.

const (
	spiGetWorkArea = 0x0030
	swpNoZOrder    = 0x0004
	swpNoActivate  = 0x0010

	minPanelWidth = 600
)

var (
	posUser32                  = syscall.NewLazyDLL("user32.dll")
	procFindWindowW            = posUser32.NewProc("FindWindowW")
	procSystemParametersInfoW  = posUser32.NewProc("SystemParametersInfoW")
	procSetWindowPosForDocking = posUser32.NewProc("SetWindowPos")
)

type workAreaRect struct {
	Left, Top, Right, Bottom int32
}

// dockRight snaps the panel to the right half of the primary work area.
// The native window appears a few frames after Show, so this polls for it
// off the UI thread.
func dockRight(win fyne.Window) {
	title, err := syscall.UTF16PtrFromString(win.Title())
	if err != nil {
		return
	}
	go func() {
		var hwnd uintptr
		for i := 0; i < 40; i++ {
			hwnd, _, _ = procFindWindowW.Call(0, uintptr(unsafe.Pointer(title)))
			if hwnd != 0 {
				break
			}
			time.Sleep(50 * time.Millisecond)
		}
		if hwnd == 0 {
			log.Printf("panel: native window not found, leaving default placement")
			return
		}
		var area workAreaRect
		ret, _, _ := procSystemParametersInfoW.Call(spiGetWorkArea, 0, uintptr(unsafe.Pointer(&area)), 0)
		if ret == 0 {
			return
		}
		workW := area.Right - area.Left
		width := workW / 2
		if width < minPanelWidth {
			width = minPanelWidth
		}
		if width > workW {
			width = workW
		}
		procSetWindowPosForDocking.Call(hwnd, 0,
			uintptr(area.Right-width), uintptr(area.Top),
			uintptr(width), uintptr(area.Bottom-area.Top),
			swpNoZOrder|swpNoActivate)
	}()
}
