package rasync

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eapache/queue"
)

// ErrBrokenProducer is the terminal error a consumer observes when
// the producer was released without ever emitting a completion or
// an error. Without it, a consumer bound to an abandoned producer
// would hang forever.
var ErrBrokenProducer = errors.New("flow producer released without a terminal signal")

// PullResult describes the outcome of a [Consumer.Pull] call.
type PullResult int

const (
	// PullOK means an item was returned.
	PullOK PullResult = iota

	// PullLater means no item is available yet;
	// the wakeup callback fires when that changes.
	PullLater

	// PullStop means the producer closed the conduit
	// and all items have been consumed.
	PullStop

	// PullAbort means the producer aborted the conduit;
	// [Consumer.Err] returns the reason.
	PullAbort
)

// pair is the buffer shared between one Producer and one Consumer.
type pair[T any] struct {
	mu sync.Mutex

	items    *queue.Queue
	capacity int

	closed   bool
	err      error
	canceled bool

	// True once the producer observed zero remaining capacity;
	// cleared when the consumer frees space, via the resume callback.
	paused bool

	wakeup func()
	resume func()
}

// NewPair returns the two ends of a conduit holding
// at most capacity items.
//
// NewPair panics if capacity is not positive.
func NewPair[T any](capacity int) (*Producer[T], *Consumer[T]) {
	if capacity <= 0 {
		panic(fmt.Errorf("BUG: conduit capacity must be positive (got %d)", capacity))
	}
	p := &pair[T]{
		items:    queue.New(),
		capacity: capacity,
	}
	return &Producer[T]{p: p}, &Consumer[T]{p: p}
}

// Producer is the writing end of a conduit.
// It must only be used from a single goroutine at a time.
type Producer[T any] struct {
	p *pair[T]
}

// Push appends item and returns the remaining capacity.
// A return of 0 tells the caller to pause until the
// resume callback fires.
//
// Pushing after Close or Abort panics. Pushes after the consumer
// canceled are silently dropped.
func (pr *Producer[T]) Push(item T) int {
	p := pr.p
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic(fmt.Errorf("BUG: push on closed conduit"))
	}
	if p.canceled {
		p.mu.Unlock()
		return p.capacity
	}

	p.items.Add(item)
	free := p.capacity - p.items.Length()
	if free <= 0 {
		free = 0
		p.paused = true
	}

	var wake func()
	if p.items.Length() == 1 {
		wake = p.wakeup
	}
	p.mu.Unlock()

	if wake != nil {
		wake()
	}
	return free
}

// Close marks the conduit complete. The consumer still receives
// all buffered items before observing [PullStop].
func (pr *Producer[T]) Close() {
	pr.p.terminate(nil)
}

// Abort marks the conduit failed with reason. The consumer still
// receives all buffered items before observing [PullAbort].
func (pr *Producer[T]) Abort(reason error) {
	if reason == nil {
		panic(fmt.Errorf("BUG: abort requires a non-nil reason"))
	}
	pr.p.terminate(reason)
}

// Release drops the producer without a terminal signal.
// If the conduit was not already closed, the consumer
// observes [ErrBrokenProducer].
func (pr *Producer[T]) Release() {
	pr.p.terminate(ErrBrokenProducer)
}

// SetResume registers fn to be called when the conduit was full
// and the consumer has freed space again.
func (pr *Producer[T]) SetResume(fn func()) {
	pr.p.mu.Lock()
	defer pr.p.mu.Unlock()
	pr.p.resume = fn
}

func (p *pair[T]) terminate(err error) {
	p.mu.Lock()
	if p.closed || p.canceled {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.err = err
	wake := p.wakeup
	p.mu.Unlock()

	if wake != nil {
		wake()
	}
}

// Consumer is the reading end of a conduit.
// It must only be used from a single goroutine at a time.
type Consumer[T any] struct {
	p *pair[T]
}

// Pull removes and returns the oldest item.
// When no item is returned, the [PullResult] says why.
func (c *Consumer[T]) Pull() (T, PullResult) {
	p := c.p
	p.mu.Lock()

	if p.items.Length() > 0 {
		item := p.items.Remove().(T)

		var resume func()
		if p.paused && p.items.Length() < p.capacity {
			p.paused = false
			resume = p.resume
		}
		p.mu.Unlock()

		if resume != nil {
			resume()
		}
		return item, PullOK
	}

	var zero T
	if p.closed {
		err := p.err
		p.mu.Unlock()
		if err != nil {
			return zero, PullAbort
		}
		return zero, PullStop
	}
	p.mu.Unlock()
	return zero, PullLater
}

// Err returns the abort reason, if any.
func (c *Consumer[T]) Err() error {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	return c.p.err
}

// Cancel detaches the consumer. Buffered items are dropped and
// further pushes are silently discarded. Cancel is idempotent.
func (c *Consumer[T]) Cancel() {
	p := c.p
	p.mu.Lock()
	if p.canceled {
		p.mu.Unlock()
		return
	}
	p.canceled = true
	p.items = queue.New()

	var resume func()
	if p.paused {
		p.paused = false
		resume = p.resume
	}
	p.mu.Unlock()

	if resume != nil {
		resume()
	}
}

// SetWakeup registers fn to be called when the conduit transitions
// from empty to non-empty, or when a terminal signal arrives.
func (c *Consumer[T]) SetWakeup(fn func()) {
	c.p.mu.Lock()
	defer c.p.mu.Unlock()
	c.p.wakeup = fn
}
