package rsched

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eapache/queue"
)

// Loop is a coordinator backed by a single goroutine
// draining a FIFO task queue.
//
// Schedule is safe to call from any goroutine;
// the mutex only guards the queue itself, never the work,
// which always runs serially on the loop goroutine.
type Loop struct {
	log *slog.Logger

	mu      sync.Mutex
	tasks   *queue.Queue
	stopped bool

	wake chan struct{}
	done chan struct{}
}

// NewLoop returns a running Loop. The given context controls its
// lifecycle: once the context is canceled, the loop finishes the
// task in progress, drops the rest, and stops.
func NewLoop(ctx context.Context, log *slog.Logger) *Loop {
	l := &Loop{
		log:   log,
		tasks: queue.New(),

		// Buffered so a Schedule racing the drain never blocks.
		wake: make(chan struct{}, 1),

		done: make(chan struct{}),
	}

	go l.mainLoop(ctx)

	return l
}

// Schedule enqueues fn to run on the loop goroutine,
// after all previously scheduled work.
// Work scheduled after the loop has stopped is dropped.
func (l *Loop) Schedule(fn func()) {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		l.log.Debug("Dropping work scheduled after loop stopped")
		return
	}
	l.tasks.Add(fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// A wakeup is already pending.
	}
}

// Wait blocks until the loop goroutine has finished.
// It will finish once the context passed to [NewLoop] is canceled.
func (l *Loop) Wait() {
	<-l.done
}

func (l *Loop) mainLoop(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.stopped = true
			dropped := l.tasks.Length()
			l.mu.Unlock()

			l.log.Info(
				"Stopping due to context cancellation",
				"cause", context.Cause(ctx),
				"dropped_tasks", dropped,
			)
			return

		case <-l.wake:
			l.drain(ctx)
		}
	}
}

func (l *Loop) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		l.mu.Lock()
		if l.tasks.Length() == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.tasks.Remove().(func())
		l.mu.Unlock()

		fn()
	}
}
