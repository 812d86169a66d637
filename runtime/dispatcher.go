package runtime

import (
	"context"
	"errors"
	"sync"
)

// ErrDispatcherStopped is returned when work is submitted after Run has
// returned.
var ErrDispatcherStopped = errors.New("runtime: dispatcher stopped")

// Dispatcher serializes work onto one goroutine, the renderer's single
// logical thread. Invoke never blocks, so handlers may schedule more work
// from inside the loop.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

// NewDispatcher creates a Dispatcher. Call Run to start processing.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Invoke queues fn. It reports false if the dispatcher has stopped.
func (d *Dispatcher) Invoke(fn func()) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// Call queues fn and waits for it to finish.
func (d *Dispatcher) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !d.Invoke(func() {
		defer close(finished)
		fn()
	}) {
		return ErrDispatcherStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.done:
		return ErrDispatcherStopped
	}
}

// Run processes queued work until ctx is done or Stop is called.
// Work still queued at that point is dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.done:
			return nil
		case <-d.wake:
			for _, fn := range d.drain() {
				fn()
			}
		}
	}
}

func (d *Dispatcher) drain() []func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	q := d.queue
	d.queue = nil
	return q
}

// Stop ends Run. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	d.queue = nil
	close(d.done)
}

// Done is closed once the dispatcher has stopped.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
