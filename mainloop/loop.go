// Package mainloop runs closures one at a time on a single goroutine. State
// owned by the loop needs no locking as long as it is only touched from
// closures the loop runs.
package mainloop

import (
	"context"
	"errors"
	"sync"
)

var ErrStopped = errors.New("main loop stopped")

const queueSize = 64

type Loop struct {
	tasks chan func()
	done  chan struct{}
	// held shared while a task is handed to the queue
	senders sync.RWMutex
	started sync.Once
	stopped sync.Once
}

func New() *Loop {
	return &Loop{
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
}

// Run executes posted closures until ctx is done. Closures accepted before
// that point still run before Run returns.
func (l *Loop) Run(ctx context.Context) {
	ran := false
	l.started.Do(func() { ran = true })
	if !ran {
		return
	}
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// stop refuses new closures, waits for senders already past the check and
// then runs everything left in the queue.
func (l *Loop) stop() {
	l.stopped.Do(func() { close(l.done) })
	l.senders.Lock()
	l.senders.Unlock()

	for {
		select {
		case fn := <-l.tasks:
			fn()
		default:
			return
		}
	}
}

// Start runs the loop on a new goroutine and returns a func that stops it
// and waits for it to exit.
func (l *Loop) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		l.Run(ctx)
	}()
	return func() {
		cancel()
		<-exited
	}
}

func (l *Loop) enqueue(ctx context.Context, fn func()) error {
	l.senders.RLock()
	defer l.senders.RUnlock()

	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting for it to run. It reports false when the
// loop has stopped; a queued fn always runs.
func (l *Loop) Post(fn func()) bool {
	return l.enqueue(context.Background(), fn) == nil
}

// Do runs fn on the loop and waits for it to return. If ctx ends first fn
// may still run later.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}
	if err := l.enqueue(ctx, task); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
