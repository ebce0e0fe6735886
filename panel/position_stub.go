//go:build !windows

package panel

import "fyne.io/fyne/v2"

func dockRight(win fyne.Window) {
	win.CenterOnScreen()
}
