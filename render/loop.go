package render

import (
	"context"
	"time"
)

// Loop is an execution context owned by one goroutine. Frames requested through
// it run on a ticker; closures posted with Do run between frames. Everything
// that touches a graph, a layout or a renderer bound to the loop must go
// through Do.
type Loop struct {
	queue    FrameQueue
	interval time.Duration
	tasks    chan func()
}

// NewLoop creates a loop that flushes frames fps times per second.
func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = 30
	}
	return &Loop{
		interval: time.Second / time.Duration(fps),
		tasks:    make(chan func()),
	}
}

// RequestFrame implements FrameScheduler. Only call it from the loop goroutine.
func (l *Loop) RequestFrame(fn func()) {
	l.queue.RequestFrame(fn)
}

// CancelFrame implements FrameScheduler. Only call it from the loop goroutine.
func (l *Loop) CancelFrame() {
	l.queue.CancelFrame()
}

// Run processes frames and posted closures until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		case <-ticker.C:
			l.queue.Flush()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. It must not be
// called from the loop goroutine itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
