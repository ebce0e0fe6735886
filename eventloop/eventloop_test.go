package eventloop

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/overlay"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/screenshot"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/session"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/singleinstance"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/worker"
)

type recordingUI struct {
	mu       sync.Mutex
	statuses []string
	tooltips []string
	refresh  int
	clears   int
}

func (u *recordingUI) Status(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.statuses = append(u.statuses, text)
}

func (u *recordingUI) Tooltip(text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tooltips = append(u.tooltips, text)
}

func (u *recordingUI) Refresh() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.refresh++
}

func (u *recordingUI) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.clears++
}

func (u *recordingUI) sawStatus(text string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range u.statuses {
		if s == text {
			return true
		}
	}
	return false
}

type fixedSelector struct {
	region screenshot.Region
	err    error
}

func (s fixedSelector) Select() (screenshot.Region, error) {
	return s.region, s.err
}

func stubCapture(region screenshot.Region) ([]byte, error) {
	return []byte("png"), nil
}

func okAnalyze(docType string, conf float64) session.AnalyzeFunc {
	return func(ctx context.Context, png []byte) (document.Entities, string, error) {
		e := document.NewEntities()
		e.DocumentType = document.ConfidenceValue{Value: docType, Confidence: conf}
		return e, "Analyzed " + docType + ".", nil
	}
}

func testLoop(t *testing.T, ui UI, analyze session.AnalyzeFunc, sel overlay.Selector) (*Loop, *document.Store) {
	t.Helper()
	store := document.NewStore()
	l := New(Options{
		Store:    store,
		Analyze:  analyze,
		Selector: sel,
		Capture:  stubCapture,
		UI:       ui,
		Pool:     worker.New(1),
		Tooltip:  "Ascendant Vision AI Platform",
	})
	t.Cleanup(l.pool.Close)
	return l, store
}

func waitDone(t *testing.T, l *Loop) jobDone {
	t.Helper()
	select {
	case d := <-l.done:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("capture job never finished")
		return jobDone{}
	}
}

func TestCaptureLifecycle(t *testing.T) {
	ui := &recordingUI{}
	sel := fixedSelector{region: screenshot.Region{X: 10, Y: 10, Width: 200, Height: 120}}
	l, store := testLoop(t, ui, okAnalyze("Deed of Trust", 0.97), sel)

	l.startCapture(context.Background(), nil)
	if !l.busy {
		t.Fatal("loop not busy after accepting a capture")
	}
	d := waitDone(t, l)
	if d.err != nil {
		t.Fatalf("capture failed: %v", d.err)
	}
	l.finishJob(d)

	if l.busy {
		t.Error("loop still busy after finishJob")
	}
	if store.Len() != 1 {
		t.Fatalf("store has %d records, want 1", store.Len())
	}
	latest, _ := store.Latest()
	if latest.Pending() || latest.Failed() {
		t.Errorf("latest record not finished: %+v", latest)
	}
	if latest.Entities.DocumentType.Value != "Deed of Trust" {
		t.Errorf("DocumentType = %q", latest.Entities.DocumentType.Value)
	}

	for _, stage := range []string{
		"Waiting for user to select screen region...",
		"Image captured. Performing AI analysis...",
		"AI analysis completed. Displaying results.",
	} {
		if !ui.sawStatus(stage) {
			t.Errorf("status %q never shown", stage)
		}
	}

	ui.mu.Lock()
	defer ui.mu.Unlock()
	if len(ui.tooltips) < 2 ||
		ui.tooltips[0] != "Analyzing document..." ||
		ui.tooltips[len(ui.tooltips)-1] != "Ascendant Vision AI Platform" {
		t.Errorf("tooltip sequence = %v", ui.tooltips)
	}
	if ui.refresh < 2 {
		t.Errorf("panel refreshed %d times, want at least placeholder and result", ui.refresh)
	}
}

func TestSecondTriggerRefusedWhileBusy(t *testing.T) {
	ui := &recordingUI{}
	started := make(chan struct{})
	release := make(chan struct{})
	analyze := func(ctx context.Context, png []byte) (document.Entities, string, error) {
		close(started)
		<-release
		return document.NewEntities(), "done", nil
	}
	sel := fixedSelector{region: screenshot.Region{Width: 50, Height: 50}}
	l, store := testLoop(t, ui, analyze, sel)

	l.startCapture(context.Background(), nil)
	<-started

	l.startCapture(context.Background(), nil)
	if !ui.sawStatus(busyNotice) {
		t.Error("busy notice not shown for refused trigger")
	}

	close(release)
	l.finishJob(waitDone(t, l))
	if l.busy {
		t.Error("busy flag stuck after job finished")
	}
	if store.Len() != 1 {
		t.Errorf("refused trigger changed the store: %d records", store.Len())
	}
}

func TestCancelledSelectionLeavesNoRecord(t *testing.T) {
	ui := &recordingUI{}
	sel := fixedSelector{err: overlay.ErrCancelled}
	l, store := testLoop(t, ui, okAnalyze("Deed of Trust", 0.9), sel)

	l.startCapture(context.Background(), nil)
	d := waitDone(t, l)
	if !errors.Is(d.err, session.ErrSelectionCancelled) {
		t.Fatalf("err = %v, want selection cancelled", d.err)
	}
	l.finishJob(d)

	if store.Len() != 0 {
		t.Errorf("cancelled selection left %d records", store.Len())
	}
	if !ui.sawStatus("Selection cancelled.") {
		t.Error("cancellation status not shown")
	}
}

func TestAnalysisFailureRecordsError(t *testing.T) {
	ui := &recordingUI{}
	analyze := func(ctx context.Context, png []byte) (document.Entities, string, error) {
		return document.Entities{}, "", errors.New("api rejected the image")
	}
	sel := fixedSelector{region: screenshot.Region{Width: 50, Height: 50}}
	l, store := testLoop(t, ui, analyze, sel)

	l.startCapture(context.Background(), nil)
	l.finishJob(waitDone(t, l))

	if store.Len() != 1 {
		t.Fatalf("store has %d records, want the failed attempt", store.Len())
	}
	latest, _ := store.Latest()
	if !latest.Failed() {
		t.Fatalf("latest record not failed: %+v", latest)
	}
	if !strings.Contains(latest.Err, "api rejected the image") {
		t.Errorf("failure text = %q", latest.Err)
	}
	if latest.Pending() {
		t.Error("failed attempt still shows as Processing")
	}
}

func TestResetRefusedWhileBusyThenClears(t *testing.T) {
	ui := &recordingUI{}
	started := make(chan struct{})
	release := make(chan struct{})
	analyze := func(ctx context.Context, png []byte) (document.Entities, string, error) {
		close(started)
		<-release
		return document.NewEntities(), "done", nil
	}
	sel := fixedSelector{region: screenshot.Region{Width: 50, Height: 50}}
	l, store := testLoop(t, ui, analyze, sel)

	l.startCapture(context.Background(), nil)
	<-started
	l.resetSession()
	if store.Len() == 0 {
		t.Error("reset ran while a capture was in flight")
	}

	close(release)
	l.finishJob(waitDone(t, l))

	l.resetSession()
	if store.Len() != 0 {
		t.Errorf("store has %d records after reset", store.Len())
	}
	ui.mu.Lock()
	clears := ui.clears
	ui.mu.Unlock()
	if clears != 1 {
		t.Errorf("panel cleared %d times, want 1", clears)
	}
	if !ui.sawStatus("Session cleared.") {
		t.Error("reset status not shown")
	}
}

func TestResultsPropagateToOlderRecords(t *testing.T) {
	ui := &recordingUI{}
	var call int
	analyze := func(ctx context.Context, png []byte) (document.Entities, string, error) {
		call++
		e := document.NewEntities()
		if call == 1 {
			e.DocumentType = document.ConfidenceValue{Value: "Deed of Trust", Confidence: 0.55}
		} else {
			e.DocumentType = document.ConfidenceValue{Value: "Deed of Trust", Confidence: 0.98}
		}
		return e, fmt.Sprintf("capture %d", call), nil
	}
	sel := fixedSelector{region: screenshot.Region{Width: 50, Height: 50}}
	l, store := testLoop(t, ui, analyze, sel)

	for i := 0; i < 2; i++ {
		l.startCapture(context.Background(), nil)
		l.finishJob(waitDone(t, l))
	}

	records := store.Records()
	if len(records) != 2 {
		t.Fatalf("store has %d records, want 2", len(records))
	}
	if got := records[0].Entities.DocumentType.Confidence; got != 0.98 {
		t.Errorf("older record confidence = %v, want strongest propagated 0.98", got)
	}
}

// isolatePort points the single-instance range at a free ephemeral port so
// parallel test runs cannot collide.
func isolatePort(t *testing.T) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port
	lis.Close()
	t.Setenv("SINGLEINSTANCE_PORT_START", fmt.Sprintf("%d", port))
	t.Setenv("SINGLEINSTANCE_PORT_END", fmt.Sprintf("%d", port))
}

func TestDelegatedCaptureRoundTrip(t *testing.T) {
	isolatePort(t)
	ui := &recordingUI{}
	sel := fixedSelector{region: screenshot.Region{Width: 80, Height: 40}}
	l, store := testLoop(t, ui, okAnalyze("Deed of Trust", 0.97), sel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- l.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for l.Port() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("server never started")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ccancel()
	delegated, text, err := singleinstance.NewClient().TryRunOnce(cctx, true)
	if err != nil {
		t.Fatalf("TryRunOnce: %v", err)
	}
	if !delegated {
		t.Fatal("client did not find the resident instance")
	}
	if !strings.Contains(text, "Deed of Trust") {
		t.Errorf("delegated payload missing result: %q", text)
	}
	if store.Len() != 1 {
		t.Errorf("resident store has %d records, want 1", store.Len())
	}

	cancel()
	select {
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
