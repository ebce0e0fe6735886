package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/clipboard"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/config"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/eventloop"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/hotkey"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/logutil"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/overlay"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/panel"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/session"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/singleinstance"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/tray"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/vision"
)

const appTitle = "Ascendant Vision AI Platform"

func main() {
	normalizeFlagDashes()
	runOnce := flag.Bool("run-once", false,
		"capture one document, print the result JSON to stdout, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	logutil.Setup(cfg.EnableFileLogging)
	log.Printf("main: starting, model=%s key=%s confidence_min=%.2f",
		cfg.Model, logutil.RedactKey(cfg.APIKey), cfg.ConfidenceMin)

	// Before any window or screen metric exists, so overlay coordinates
	// match physical pixels on scaled displays.
	enableDPIAwareness()

	// The Fyne loop and every window it creates stay on this thread; the
	// overlay's message pump runs on its own locked thread.
	runtime.LockOSThread()

	if *runOnce {
		os.Exit(runOnceMode(cfg))
	}
	os.Exit(runResident(cfg))
}

// normalizeFlagDashes maps GNU style --run-once to Go's -run-once so the
// invocation documented for other tools keeps working here.
func normalizeFlagDashes() {
	for i := 1; i < len(os.Args); i++ {
		if strings.HasPrefix(os.Args[i], "--run-once") {
			os.Args[i] = os.Args[i][1:]
		}
	}
}

// runOnceMode delegates the capture to a resident instance when one is
// listening, otherwise runs the pipeline standalone. Result JSON goes to
// stdout either way.
func runOnceMode(cfg *config.Config) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	delegated, text, err := singleinstance.NewClient().TryRunOnce(ctx, true)
	if delegated {
		if err != nil {
			fmt.Fprintf(os.Stderr, "delegated capture failed: %v\n", err)
			return 1
		}
		fmt.Println(text)
		return 0
	}

	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENAI_API_KEY is not configured")
		return 1
	}
	client := vision.New(vision.Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	_, err = session.Execute(ctx, session.Options{
		Select:  overlay.New().Select,
		Analyze: client.Analyze,
		Target:  session.StdoutTarget{},
	})
	switch {
	case errors.Is(err, session.ErrSelectionCancelled):
		fmt.Fprintln(os.Stderr, "selection cancelled")
		return 1
	case err != nil:
		fmt.Fprintf(os.Stderr, "capture failed: %v\n", err)
		return 1
	}
	return 0
}

// runResident starts the long-lived instance: result panel, tray icon,
// global hotkeys and the single-instance server.
func runResident(cfg *config.Config) int {
	if port, running := singleinstance.ResidentPort(); running {
		log.Printf("main: resident already running on port %d", port)
		tray.BlockingError(appTitle,
			fmt.Sprintf("%s is already running (port %d).", appTitle, port))
		return 1
	}
	if cfg.APIKey == "" {
		tray.BlockingError(appTitle,
			"OPENAI_API_KEY is not configured. Set the environment variable or add api_key to "+cfg.SettingsPath)
		return 1
	}
	if err := clipboard.Init(); err != nil {
		log.Printf("main: clipboard unavailable, copy buttons will not work: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := document.NewStore()
	settings := config.NewStore(cfg.SettingsPath)

	// The settings dialog can swap the key or model at runtime, so analysis
	// goes through an indirection instead of a fixed client.
	var visionMu sync.Mutex
	visionClient := vision.New(vision.Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	analyze := func(actx context.Context, png []byte) (document.Entities, string, error) {
		visionMu.Lock()
		c := visionClient
		visionMu.Unlock()
		return c.Analyze(actx, png)
	}

	fyneApp := app.New()

	var loop *eventloop.Loop
	pn := panel.New(fyneApp, store, cfg.ConfidenceMin, panel.Actions{
		NewCapture: func() { loop.RequestCapture() },
		NewSession: func() { loop.RequestReset() },
		Settings: func() config.Settings {
			st, err := settings.Load()
			if err != nil {
				log.Printf("main: read settings: %v", err)
			}
			return st
		},
		SaveSettings: func(st config.Settings) error {
			if err := settings.Save(st); err != nil {
				return err
			}
			key := st.APIKey
			if key == "" {
				key = cfg.APIKey
			}
			model := st.Model
			if model == "" {
				model = cfg.Model
			}
			visionMu.Lock()
			visionClient = vision.New(vision.Options{
				APIKey:  key,
				Model:   model,
				BaseURL: cfg.BaseURL,
			})
			visionMu.Unlock()
			log.Printf("main: settings saved, model=%s key=%s confidence_min=%.2f",
				model, logutil.RedactKey(key), st.ConfidenceMin)
			return nil
		},
	})

	trayIcon := tray.New(tray.Config{
		Title:   appTitle,
		Tooltip: appTitle,
		OnCapture: func() {
			loop.RequestCapture()
		},
		OnExit: func() {
			log.Printf("main: exit requested from tray")
			cancel()
			fyne.Do(fyneApp.Quit)
		},
	})

	loop = eventloop.New(eventloop.Options{
		Store:   store,
		Analyze: analyze,
		UI:      &loopUI{panel: pn, tray: trayIcon},
		Tooltip: appTitle,
	})

	hotkeys := hotkey.NewHookSource()
	defer hotkeys.Close()
	loop.Hotkeys(hotkeys, cfg.Hotkeys)
	log.Printf("main: capture hotkeys %v", cfg.Hotkeys)

	go trayIcon.Run()
	defer trayIcon.Destroy()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("main: shutdown signal received")
		cancel()
		fyne.Do(fyneApp.Quit)
	}()

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("main: event loop stopped: %v", err)
			fyne.Do(fyneApp.Quit)
		}
	}()

	pn.Show()
	fyneApp.Run()
	cancel()
	log.Printf("main: exiting")
	return 0
}

// loopUI bridges event loop callbacks onto the Fyne UI thread and the tray.
type loopUI struct {
	panel *panel.Panel
	tray  *tray.Tray
}

func (u *loopUI) Status(text string)  { fyne.Do(func() { u.panel.SetStatus(text) }) }
func (u *loopUI) Tooltip(text string) { u.tray.SetStatus(text) }
func (u *loopUI) Refresh()            { fyne.Do(u.panel.Refresh) }
func (u *loopUI) Clear()              { fyne.Do(u.panel.Clear) }
