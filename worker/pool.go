// Package worker runs capture pipelines off the UI thread. The queue has a
// single slot so a second capture cannot pile up behind a running one; the
// caller is told when the slot is taken and decides what to tell the user.
package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Job is one unit of pipeline work. It runs on a worker goroutine and must
// honor ctx for its own deadlines.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a one-slot input queue.
type Pool struct {
	jobs      chan queued
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type queued struct {
	ctx context.Context
	run Job
}

// New creates a pool of size workers. Size defaults to NumCPU when size <= 0.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan queued, 1)}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for q := range p.jobs {
		if q.ctx.Err() != nil {
			log.Printf("worker: job skipped, context done before start: %v", q.ctx.Err())
			continue
		}
		q.run(q.ctx)
	}
}

// Submit enqueues a job if the single queue slot is free and reports whether
// the job was accepted.
func (p *Pool) Submit(ctx context.Context, run Job) bool {
	select {
	case p.jobs <- queued{ctx: ctx, run: run}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining accepted work. Safe to call more than
// once.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
}
