// Package retry implements bounded retry with exponential backoff for the
// outbound vision call. The policy is an explicit value so callers and tests
// can see and tune every knob.
package retry

import (
	"context"
	"time"
)

// Policy describes one retry budget.
type Policy struct {
	// MaxAttempts is the total number of calls, first try included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration
	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
	// Multiplier scales the delay after each failed attempt (>= 1).
	Multiplier float64
	// IsRetryable classifies errors. A nil classifier retries everything.
	IsRetryable func(error) bool
	// Sleep waits between attempts. Nil means a context-aware time.After
	// wait; tests inject a recorder here to observe delays without waiting.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the wait before attempt n+1 (n >= 1 failed attempts so far).
// Delays grow by Multiplier and are capped at MaxDelay, so each wait is at
// least as long as the previous and strictly longer until the cap is hit.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := float64(p.BaseDelay)
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < n; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Do runs fn up to p.MaxAttempts times, waiting p.Delay between attempts.
// It stops early on success, on a non-retryable error, or when the context
// ends during a wait. On exhaustion it returns the last error unchanged;
// callers wanting a distinct exhaustion sentinel wrap the result.
func Do(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.Delay(attempt-1)); err != nil {
				return err
			}
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.IsRetryable != nil && !p.IsRetryable(err) {
			return err
		}
	}
	return lastErr
}
