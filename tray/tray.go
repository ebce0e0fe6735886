// Package tray keeps the resident indicator in the notification area and
// owns the blocking error dialog shown when startup cannot proceed.
package tray

import (
	"log"
	"sync/atomic"

	"github.com/getlantern/systray"
)

// Config wires the menu actions. Callbacks run on the systray goroutine and
// must hand real work to the event loop.
type Config struct {
	Title     string
	Tooltip   string
	Icon      []byte // optional .ico bytes
	OnCapture func()
	OnExit    func()
}

// Tray is the notification-area presence of the resident process.
type Tray struct {
	cfg   Config
	ready atomic.Bool
}

func New(cfg Config) *Tray {
	return &Tray{cfg: cfg}
}

// Run blocks inside the systray loop until Destroy or the Exit item. Call it
// from a dedicated goroutine; the Fyne loop owns the main thread.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	if len(t.cfg.Icon) > 0 {
		systray.SetIcon(t.cfg.Icon)
	}
	systray.SetTitle(t.cfg.Title)
	tooltip := t.cfg.Tooltip
	if tooltip == "" {
		tooltip = t.cfg.Title
	}
	systray.SetTooltip(tooltip)

	capture := systray.AddMenuItem("Capture document", "Select a screen region to analyze")
	exit := systray.AddMenuItem("Exit", "Stop the resident listener")
	t.ready.Store(true)
	log.Printf("tray: ready")

	go func() {
		for {
			select {
			case <-capture.ClickedCh:
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-exit.ClickedCh:
				systray.Quit()
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.ready.Store(false)
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}

// SetStatus mirrors pipeline progress in the hover tooltip. Calls before
// the tray is ready are dropped.
func (t *Tray) SetStatus(text string) {
	if !t.ready.Load() {
		return
	}
	systray.SetTooltip(text)
}

// Destroy tears the tray down and unblocks Run.
func (t *Tray) Destroy() {
	systray.Quit()
}
