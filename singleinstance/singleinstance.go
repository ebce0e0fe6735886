// Package singleinstance keeps one resident process per machine and lets a
// second invocation delegate its capture request over TCP loopback instead
// of starting a duplicate listener.
package singleinstance

import "context"

// Server owns the resident TCP endpoint and surfaces delegated capture
// requests.
type Server interface {
	// Start binds the first port of the configured range. A bind failure
	// means another resident already owns the machine.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 before Start.
	Port() int
	// Next returns the next delegated capture request, or the ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close stops accepting requests and releases the port.
	Close() error
}

// Conn is one delegated request. The resident answers exactly once.
type Conn interface {
	Request() Request
	// RespondSuccess acknowledges the capture; for stdout mode text carries
	// the extracted fields as JSON.
	RespondSuccess(text string) error
	RespondError(msg string) error
	Close() error
}

// Request is the parsed first line of a delegated capture.
type Request struct {
	// OutputToStdout distinguishes CAPTURE STDOUT (payload returned over
	// the wire) from plain CAPTURE (result shown on the resident panel).
	OutputToStdout bool
}

// Client delegates a one-shot capture to a resident, if one is listening.
type Client interface {
	// TryRunOnce scans the port range for a resident and hands it the
	// capture. Returns delegated=false with a nil error when no resident
	// answered.
	TryRunOnce(ctx context.Context, outputToStdout bool) (delegated bool, text string, err error)
}

func NewServer() Server { return newTCPServer() }

func NewClient() Client { return newTCPClient() }
