// Package eventloop coordinates capture requests from every origin: global
// hotkeys, the tray menu, panel buttons and delegated run-once clients. One
// goroutine owns the busy flag, so a second trigger while an analysis is in
// flight is refused with a notice instead of queuing behind a selection the
// user may have forgotten about.
package eventloop

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/hotkey"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/overlay"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/session"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/singleinstance"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/worker"
)

const busyNotice = "Busy: analysis already in progress."

// UI mirrors loop state to the user. Implementations must be safe to call
// from the loop and worker goroutines; the Fyne adapter in main hops onto
// the UI thread itself.
type UI interface {
	// Status replaces the panel status line.
	Status(text string)
	// Tooltip replaces the tray tooltip.
	Tooltip(text string)
	// Refresh re-renders the panel from the session store.
	Refresh()
	// Clear resets the panel to its empty-session state.
	Clear()
}

type nopUI struct{}

func (nopUI) Status(string)  {}
func (nopUI) Tooltip(string) {}
func (nopUI) Refresh()       {}
func (nopUI) Clear()         {}

// Options wires the loop to its collaborators. Store and Analyze are
// required; everything else has a working default.
type Options struct {
	Store    *document.Store
	Analyze  session.AnalyzeFunc
	Selector overlay.Selector      // default overlay.New()
	Capture  session.CaptureFunc   // default screen capture
	Server   singleinstance.Server // default singleinstance.NewServer()
	UI       UI                    // default discards updates
	Pool     *worker.Pool          // default worker.New(1)
	Deadline time.Duration         // per-analysis budget, 0 means session default
	Tooltip  string                // idle tray tooltip
}

// Loop is the single-threaded coordinator. All state transitions happen on
// the Run goroutine; other goroutines only post to its channels.
type Loop struct {
	store    *document.Store
	analyze  session.AnalyzeFunc
	selector overlay.Selector
	capture  session.CaptureFunc
	srv      singleinstance.Server
	ui       UI
	pool     *worker.Pool
	deadline time.Duration
	tooltip  string

	busy      bool
	captureCh chan struct{}
	resetCh   chan struct{}
	done      chan jobDone
}

type jobDone struct {
	id   string
	err  error
	conn singleinstance.Conn
}

func New(opts Options) *Loop {
	l := &Loop{
		store:     opts.Store,
		analyze:   opts.Analyze,
		selector:  opts.Selector,
		capture:   opts.Capture,
		srv:       opts.Server,
		ui:        opts.UI,
		pool:      opts.Pool,
		deadline:  opts.Deadline,
		tooltip:   opts.Tooltip,
		captureCh: make(chan struct{}, 4),
		resetCh:   make(chan struct{}, 1),
		done:      make(chan jobDone, 1),
	}
	if l.selector == nil {
		l.selector = overlay.New()
	}
	if l.srv == nil {
		l.srv = singleinstance.NewServer()
	}
	if l.ui == nil {
		l.ui = nopUI{}
	}
	if l.pool == nil {
		l.pool = worker.New(1)
	}
	return l
}

// RequestCapture posts a capture trigger. Safe from any goroutine; drops
// when the queue is full rather than blocking a UI callback.
func (l *Loop) RequestCapture() {
	select {
	case l.captureCh <- struct{}{}:
	default:
		log.Printf("eventloop: capture request dropped, queue full")
	}
}

// RequestReset posts a new-session request.
func (l *Loop) RequestReset() {
	select {
	case l.resetCh <- struct{}{}:
	default:
	}
}

// Hotkeys binds each combo on src to RequestCapture. A combo that fails to
// register is logged and skipped so the rest keep working.
func (l *Loop) Hotkeys(src hotkey.Source, combos []string) {
	for _, combo := range combos {
		ch, err := src.Register(combo)
		if err != nil {
			log.Printf("eventloop: hotkey %q not registered: %v", combo, err)
			continue
		}
		go func() {
			for range ch {
				l.RequestCapture()
			}
		}()
	}
}

// Port reports the single-instance port once Run has started the server.
func (l *Loop) Port() int { return l.srv.Port() }

// Run starts the single-instance server and dispatches events until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.srv.Start(ctx); err != nil {
		return fmt.Errorf("single-instance server: %w", err)
	}
	log.Printf("eventloop: resident listening on 127.0.0.1:%d", l.srv.Port())
	defer l.srv.Close()
	defer l.pool.Close()

	conns := make(chan singleinstance.Conn, 4)
	go func() {
		for {
			conn, err := l.srv.Next(ctx)
			if err != nil {
				close(conns)
				return
			}
			conns <- conn
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.captureCh:
			l.startCapture(ctx, nil)
		case conn, ok := <-conns:
			if !ok {
				return nil
			}
			l.startCapture(ctx, conn)
		case <-l.resetCh:
			l.resetSession()
		case d := <-l.done:
			l.finishJob(d)
		}
	}
}

// startCapture begins one capture pipeline, or refuses it when one is
// already in flight. conn is nil for local triggers.
func (l *Loop) startCapture(ctx context.Context, conn singleinstance.Conn) {
	if l.busy {
		l.refuseBusy(conn)
		return
	}
	id := uuid.NewString()
	job := func(jobCtx context.Context) {
		err := l.executeSession(jobCtx, conn)
		l.done <- jobDone{id: id, err: err, conn: conn}
	}
	if !l.pool.Submit(ctx, job) {
		l.refuseBusy(conn)
		return
	}
	l.setBusy(true)
	log.Printf("eventloop: capture %s started", id)
}

// executeSession runs the full pipeline on a worker goroutine. The store
// placeholder is created once a screenshot exists, so cancelled or failed
// selections never leave a Processing row behind.
func (l *Loop) executeSession(ctx context.Context, conn singleinstance.Conn) error {
	slot := -1
	analyze := func(actx context.Context, png []byte) (document.Entities, string, error) {
		idx, displayID := l.store.Placeholder()
		slot = idx
		l.ui.Refresh()
		log.Printf("eventloop: %s analysis started", displayID)
		return l.analyze(actx, png)
	}
	var target session.ResultTarget = residentTarget{loop: l, slot: &slot}
	if conn != nil {
		target = session.MultiTarget{
			target,
			session.DelegatedTarget{Conn: conn, OutputToStdout: conn.Request().OutputToStdout},
		}
	}
	_, err := session.Execute(ctx, session.Options{
		Deadline: l.deadline,
		Select:   l.selector.Select,
		Capture:  l.capture,
		Analyze:  analyze,
		Target:   target,
		Progress: progressFunc(l.ui.Status),
	})
	return err
}

func (l *Loop) finishJob(d jobDone) {
	l.setBusy(false)
	if d.conn != nil {
		_ = d.conn.Close()
	}
	switch {
	case errors.Is(d.err, session.ErrSelectionCancelled):
		log.Printf("eventloop: capture %s cancelled by user", d.id)
	case d.err != nil:
		log.Printf("eventloop: capture %s failed: %v", d.id, d.err)
	default:
		log.Printf("eventloop: capture %s finished", d.id)
	}
}

func (l *Loop) refuseBusy(conn singleinstance.Conn) {
	log.Printf("eventloop: capture refused, analysis in progress")
	if conn != nil {
		sink := session.DelegatedTarget{Conn: conn, OutputToStdout: conn.Request().OutputToStdout}
		_ = sink.OnFailure(errors.New("busy, analysis in progress"))
		_ = conn.Close()
		return
	}
	l.ui.Status(busyNotice)
	l.ui.Tooltip(busyNotice)
}

func (l *Loop) resetSession() {
	if l.busy {
		l.ui.Status(busyNotice)
		return
	}
	l.store.Reset()
	l.ui.Clear()
	l.ui.Status("Session cleared.")
	log.Printf("eventloop: session reset, new id %s", l.store.Session())
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	if b {
		l.ui.Tooltip("Analyzing document...")
	} else {
		l.ui.Tooltip(l.tooltip)
	}
}

// progressFunc adapts a plain function to session.Progress.
type progressFunc func(string)

func (f progressFunc) Stage(text string) { f(text) }

// residentTarget lands results in the session store and the panel. slot
// points at the placeholder index owned by the running job; -1 means
// analysis never started.
type residentTarget struct {
	loop *Loop
	slot *int
}

func (t residentTarget) OnSuccess(res session.Result) error {
	t.loop.store.ReplaceAt(*t.slot, document.Record{
		Entities: res.Entities,
		Summary:  res.Summary,
	})
	t.loop.store.PropagateHighest(res.Entities, *t.slot)
	t.loop.ui.Refresh()
	return nil
}

func (t residentTarget) OnFailure(err error) error {
	if errors.Is(err, session.ErrSelectionCancelled) {
		t.loop.ui.Status("Selection cancelled.")
		return nil
	}
	text := failureText(err)
	if *t.slot >= 0 {
		t.loop.store.Fail(text)
		t.loop.ui.Refresh()
	}
	t.loop.ui.Status(text)
	return nil
}

// failureText maps pipeline errors to the status line. Deadline expiry gets
// its own wording because the raw context error reads like a programmer
// mistake.
func failureText(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Analysis timed out. Try again with a smaller region."
	}
	return "Analysis failed: " + err.Error()
}
