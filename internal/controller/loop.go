package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const defaultQueueSize = 64

// ErrLoopStopped is returned when work is submitted to a loop that has exited.
var ErrLoopStopped = errors.New("foreground loop stopped")

// Loop is a channel-backed foreground thread. Every function passed to
// Dispatch runs on the goroutine that called Run, in submission order.
type Loop struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop with a small buffered queue.
func NewLoop() *Loop {
	return &Loop{
		queue:   make(chan func(), defaultQueueSize),
		stopped: make(chan struct{}),
	}
}

// Dispatch queues fn. Functions dispatched after the loop stopped are dropped.
func (l *Loop) Dispatch(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.stopped:
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	l.Dispatch(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return fmt.Errorf("waiting for foreground loop: %w", ctx.Err())
	}
}

// Run executes queued functions until ctx is canceled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Stop()

	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop ends Run. Safe to call more than once and from any goroutine.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}
