// Package session orchestrates one capture end to end: region selection,
// screen grab, vision analysis, and delivery of the extraction to a result
// target. The event loop decides when a session runs; this package decides
// what a session is.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/document"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/overlay"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/screenshot"
	"github.com/sowrhoop/Ascendant-AI-Vision-Platform/singleinstance"
)

// ErrSelectionCancelled reports the user dismissed the overlay. The target
// is still notified (a delegated caller must not hang), but callers treat
// this as a non-event rather than a failure.
var ErrSelectionCancelled = errors.New("selection cancelled")

// defaultDeadline bounds one full pipeline run: five vision attempts at 60s
// each plus backoff still fit.
const defaultDeadline = 6 * time.Minute

type SelectRegionFunc func() (screenshot.Region, error)

type CaptureFunc func(region screenshot.Region) ([]byte, error)

type AnalyzeFunc func(ctx context.Context, png []byte) (document.Entities, string, error)

// Result is one completed extraction.
type Result struct {
	Entities document.Entities
	Summary  string
}

// ResultTarget receives the outcome of one capture.
type ResultTarget interface {
	OnSuccess(res Result) error
	OnFailure(err error) error
}

// Progress mirrors pipeline stages to the user; the panel status bar and the
// tray tooltip both hang off it.
type Progress interface {
	Stage(text string)
}

type Options struct {
	Deadline time.Duration
	Select   SelectRegionFunc
	Capture  CaptureFunc // defaults to screenshot.CaptureRegion
	Analyze  AnalyzeFunc
	Target   ResultTarget
	Progress Progress
}

// Execute runs one capture pipeline. Selection happens outside the job
// deadline; the clock starts once a region exists.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Select == nil {
		return Result{}, errors.New("session: Select is required")
	}
	if opts.Analyze == nil {
		return Result{}, errors.New("session: Analyze is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("session: Target is required")
	}
	capture := opts.Capture
	if capture == nil {
		capture = screenshot.CaptureRegion
	}
	progress := opts.Progress
	if progress == nil {
		progress = noProgress{}
	}

	progress.Stage("Waiting for user to select screen region...")
	region, err := opts.Select()
	if err != nil {
		if errors.Is(err, overlay.ErrCancelled) {
			_ = opts.Target.OnFailure(ErrSelectionCancelled)
			return Result{}, ErrSelectionCancelled
		}
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	if !region.Valid() {
		err := fmt.Errorf("selected region is empty")
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	png, err := capture(region)
	if err != nil {
		err = fmt.Errorf("capture region: %w", err)
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	progress.Stage("Image captured. Performing AI analysis...")

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	entities, summary, err := opts.Analyze(jobCtx, png)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	progress.Stage("AI analysis completed. Displaying results.")

	res := Result{Entities: entities, Summary: summary}
	if err := opts.Target.OnSuccess(res); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	return res, nil
}

type noProgress struct{}

func (noProgress) Stage(string) {}

// EncodeResult renders an extraction as indented JSON for stdout and
// delegated callers.
func EncodeResult(res Result) (string, error) {
	payload := struct {
		Entities document.Entities `json:"entities"`
		Summary  string            `json:"summary"`
	}{res.Entities, res.Summary}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(b), nil
}

// StdoutTarget prints the extraction as JSON, for -run-once delegation
// fallback.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(res Result) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	text, err := EncodeResult(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

func (t StdoutTarget) OnFailure(err error) error { return nil }

// DelegatedTarget answers a singleinstance connection: payload for stdout
// mode, bare acknowledgement otherwise.
type DelegatedTarget struct {
	Conn           singleinstance.Conn
	OutputToStdout bool
}

func (t DelegatedTarget) OnSuccess(res Result) error {
	if t.Conn == nil {
		return errors.New("delegated target missing connection")
	}
	if !t.OutputToStdout {
		return t.Conn.RespondSuccess("")
	}
	text, err := EncodeResult(res)
	if err != nil {
		return t.Conn.RespondError(err.Error())
	}
	return t.Conn.RespondSuccess(text)
}

func (t DelegatedTarget) OnFailure(err error) error {
	if t.Conn == nil {
		return nil
	}
	if err == nil {
		return t.Conn.RespondError("unknown session error")
	}
	return t.Conn.RespondError(err.Error())
}

// MultiTarget fans one outcome out to several targets, keeping the first
// error.
type MultiTarget []ResultTarget

func (m MultiTarget) OnSuccess(res Result) error {
	var first error
	for _, t := range m {
		if err := t.OnSuccess(res); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m MultiTarget) OnFailure(err error) error {
	var first error
	for _, t := range m {
		if e := t.OnFailure(err); e != nil && first == nil {
			first = e
		}
	}
	return first
}
