//go:build windows

package overlay

import (
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/screenshot"
)

// New returns the Windows drag-to-select overlay.
func New() Selector { return winSelector{} }

type winSelector struct{}

const (
	keyPollTimerID    = 1
	keyPollIntervalMs = 25
)

var (
	user32DLL                    = syscall.NewLazyDLL("user32.dll")
	procAllowSetForegroundWindow = user32DLL.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32DLL.NewProc("GetAsyncKeyState")

	gdi32DLL      = syscall.NewLazyDLL("gdi32.dll")
	procCreatePen = gdi32DLL.NewProc("CreatePen")
	procRectangle = gdi32DLL.NewProc("Rectangle")
)

// selectMu serializes selections; the overlay keeps its state in package
// variables because the window procedure cannot carry a closure.
var selectMu sync.Mutex

var (
	overlayHwnd            win.HWND
	frozenScreen           *image.RGBA
	resultCh               chan screenshot.Region
	crossCursor            win.HCURSOR
	dragging               bool
	escWasDown             bool
	dragStartX, dragStartY int32
	dragEndX, dragEndY     int32
	virtualX, virtualY     int32
)

// NewCallback slots are never released, so the window procedure is wrapped
// exactly once for the lifetime of the process.
var wndProcPtr = syscall.NewCallback(overlayWndProc)

func (winSelector) Select() (screenshot.Region, error) {
	selectMu.Lock()
	defer selectMu.Unlock()

	// The window and its message loop must stay on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("overlay: virtual screen x=%d y=%d w=%d h=%d", vx, vy, vw, vh)
	virtualX, virtualY = vx, vy

	var err error
	frozenScreen, err = freezeScreen(int(vw), int(vh))
	if err != nil {
		return screenshot.Region{}, fmt.Errorf("freeze screen for overlay: %w", err)
	}

	crossCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	if crossCursor == 0 {
		log.Printf("overlay: cross cursor unavailable, keeping default")
	}

	resultCh = make(chan screenshot.Region, 1)
	dragging = false
	escWasDown = false

	// A unique class name per selection avoids RegisterClassEx conflicts
	// when a previous teardown has not finished unregistering.
	classNameStr := fmt.Sprintf("AscendantSelector_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   wndProcPtr,
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       crossCursor,
		HbrBackground: 0, // painted from the frozen grab
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return screenshot.Region{}, fmt.Errorf("register overlay window class")
	}
	defer win.UnregisterClass(className)

	overlayHwnd = win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Select region - drag to capture, ESC cancels"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if overlayHwnd == 0 {
		return screenshot.Region{}, fmt.Errorf("create overlay window")
	}

	win.ShowWindow(overlayHwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(overlayHwnd)
	win.BringWindowToTop(overlayHwnd)
	win.SetFocus(overlayHwnd)
	win.UpdateWindow(overlayHwnd)

	// WM_KEYDOWN alone misses ESC when focus lands elsewhere, so a timer
	// polls the key state as well.
	if win.SetTimer(overlayHwnd, keyPollTimerID, keyPollIntervalMs, 0) == 0 {
		log.Printf("overlay: key poll timer not started")
	}

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 { // WM_QUIT
			win.DestroyWindow(overlayHwnd)
			log.Printf("overlay: selection cancelled")
			return screenshot.Region{}, ErrCancelled
		}
		if ret == -1 {
			win.DestroyWindow(overlayHwnd)
			return screenshot.Region{}, fmt.Errorf("overlay message loop failed")
		}

		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case region := <-resultCh:
			win.DestroyWindow(overlayHwnd)
			log.Printf("overlay: region selected x=%d y=%d w=%d h=%d", region.X, region.Y, region.Width, region.Height)
			return region, nil
		default:
		}
	}
}

// freezeScreen grabs the whole virtual screen once; the overlay paints this
// still image instead of the live desktop.
func freezeScreen(width, height int) (*image.RGBA, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img, nil
	}
	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(resized, resized.Bounds(), img, img.Bounds().Min, draw.Src)
	return resized, nil
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		dragging = true
		dragStartX = int32(win.LOWORD(uint32(lParam)))
		dragStartY = int32(win.HIWORD(uint32(lParam)))
		dragEndX, dragEndY = dragStartX, dragStartY
		win.InvalidateRect(hwnd, nil, false)
		win.UpdateWindow(hwnd)
		return 0

	case win.WM_MOUSEMOVE:
		if dragging {
			dragEndX = int32(win.LOWORD(uint32(lParam)))
			dragEndY = int32(win.HIWORD(uint32(lParam)))
			win.InvalidateRect(hwnd, nil, false)
			win.UpdateWindow(hwnd)
		}
		return 0

	case win.WM_LBUTTONUP:
		if dragging {
			win.ReleaseCapture()
			dragging = false
			dragEndX = int32(win.LOWORD(uint32(lParam)))
			dragEndY = int32(win.HIWORD(uint32(lParam)))

			left, top, width, height := dragBounds(dragStartX, dragStartY, dragEndX, dragEndY)
			if !viableSelection(width, height) {
				log.Printf("overlay: selection %dx%d below minimum span, ignored", width, height)
				win.InvalidateRect(hwnd, nil, false)
				win.UpdateWindow(hwnd)
				return 0
			}
			resultCh <- screenshot.Region{
				X:      int(left + virtualX),
				Y:      int(top + virtualY),
				Width:  int(width),
				Height: int(height),
			}
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		if frozenScreen != nil {
			drawFrozenScreen(hdc)
		}
		drawHints(hdc)
		if dragging {
			drawSelectionRect(hdc, dragStartX, dragStartY, dragEndX, dragEndY)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if crossCursor != 0 {
			win.SetCursor(crossCursor)
		}
		return 1

	case win.WM_TIMER:
		if wParam == keyPollTimerID {
			pollEscape()
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			escWasDown = true
			cancelSelection()
		}
		return 0

	case win.WM_KEYUP, win.WM_SYSKEYUP:
		if wParam == win.VK_ESCAPE {
			escWasDown = false
		}
		return 0

	case win.WM_NCHITTEST:
		// Every point is client area so the window sees all mouse events.
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		win.KillTimer(hwnd, keyPollTimerID)
		// No PostQuitMessage here. Select returns as soon as the result
		// channel delivers, and a WM_QUIT posted during teardown would sit
		// in the thread queue and instantly cancel the next selection.
		return 0
	}

	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func getAsyncKeyState(vk int32) (down, pressed bool) {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	s := uint16(state)
	return s&0x8000 != 0, s&0x0001 != 0
}

func pollEscape() {
	down, pressed := getAsyncKeyState(win.VK_ESCAPE)
	if !escWasDown && (down || pressed) {
		cancelSelection()
	}
	escWasDown = down
}

func cancelSelection() {
	win.PostQuitMessage(0)
}

func drawSelectionRect(hdc win.HDC, x0, y0, x1, y1 int32) {
	pen, _, _ := procCreatePen.Call(0 /* PS_SOLID */, 3, 0x0000FF)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	left, top, width, height := dragBounds(x0, y0, x1, y1)
	procRectangle.Call(uintptr(hdc), uintptr(left), uintptr(top), uintptr(left+width), uintptr(top+height))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}

func drawHints(hdc win.HDC) {
	line1 := "Drag to select the document region"
	line2 := "ESC cancels"
	win.SetBkMode(hdc, win.TRANSPARENT)
	win.SetTextColor(hdc, win.COLORREF(0x00FFFF))
	win.TextOut(hdc, 16, 16, syscall.StringToUTF16Ptr(line1), int32(len(line1)))
	win.TextOut(hdc, 16, 38, syscall.StringToUTF16Ptr(line2), int32(len(line2)))
}

// drawFrozenScreen blits the captured desktop into the window through a
// 32-bit top-down DIB section, swapping RGBA rows into BGRA.
func drawFrozenScreen(hdc win.HDC) {
	bounds := frozenScreen.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// DIB rows are DWORD-aligned; at 32bpp that is exactly width*4.
	stride := ((int32(width)*32 + 31) &^ 31) / 8
	for y := 0; y < height; y++ {
		row := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(pBits)+uintptr(y)*uintptr(stride))), width*4)
		src := frozenScreen.Pix[y*frozenScreen.Stride : y*frozenScreen.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			row[x] = src[x+2]
			row[x+1] = src[x+1]
			row[x+2] = src[x]
			row[x+3] = src[x+3]
		}
	}

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
