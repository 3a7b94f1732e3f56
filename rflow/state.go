package rflow

import (
	"sync/atomic"

	"github.com/eapache/queue"
)

// subscriberState is the record shared between one [Multicast] operator
// and one subscribed observer. The operator and the observer's
// subscription both hold a reference; the state detaches at most once,
// regardless of which side lets go first.
//
// All fields except disposed are only touched on the owning coordinator.
type subscriberState[T any] struct {
	coord Coordinator
	out   Observer[T]

	// Identity within the operator's subscriber set.
	// Assigned once at subscribe time, never reused.
	token uint64

	// Items the subscriber has authorized but not yet received.
	demand int

	// Items pushed by the operator but not yet delivered.
	buf *queue.Queue

	// True while a delivery pass is scheduled or in progress.
	// Guarantees at most one pass in flight per state.
	running bool

	closed bool
	err    error

	// Readable from foreign goroutines so that
	// Subscription.Disposed does not race.
	disposed atomic.Bool

	// Invoked on detach; the operator uses this
	// to remove the state from its subscriber set.
	onDisposed func()

	// Invoked after every delivery pass that reduced the buffer;
	// the operator uses this to propagate demand upstream.
	onDrained func()
}

func newSubscriberState[T any](coord Coordinator, out Observer[T], token uint64) *subscriberState[T] {
	return &subscriberState[T]{
		coord: coord,
		out:   out,
		token: token,
		buf:   queue.New(),
	}
}

// push appends item to the pending buffer and,
// if the subscriber has outstanding demand,
// schedules a delivery pass.
func (s *subscriberState[T]) push(item T) {
	if s.closed || s.disposed.Load() {
		return
	}
	s.buf.Add(item)
	if s.demand > 0 && !s.running {
		s.running = true
		s.coord.Schedule(s.run)
	}
}

// request adds n to the outstanding demand and
// schedules a delivery pass if none is in flight.
func (s *subscriberState[T]) request(n int) {
	if s.disposed.Load() {
		return
	}
	s.demand += n
	if !s.running {
		s.running = true
		s.coord.Schedule(s.run)
	}
}

// close marks the state terminal with a completion signal.
// Buffered items are still drained, as demand allows,
// before the signal is delivered.
func (s *subscriberState[T]) close() {
	if s.closed || s.disposed.Load() {
		return
	}
	s.closed = true
	if !s.running {
		s.running = true
		s.coord.Schedule(s.run)
	}
}

// abort marks the state terminal with err.
// Buffered items are still drained, as demand allows,
// before the signal is delivered.
func (s *subscriberState[T]) abort(err error) {
	if s.closed || s.disposed.Load() {
		return
	}
	s.closed = true
	s.err = err
	if !s.running {
		s.running = true
		s.coord.Schedule(s.run)
	}
}

// run is a single delivery pass. It drains the buffer while demand
// remains, delivers the terminal signal once the buffer is empty and
// the state is closed, and otherwise parks until the next request or
// push reschedules it.
//
// run only ever executes on the coordinator, and the running flag
// ensures a single pass in flight, so it never races with itself.
func (s *subscriberState[T]) run() {
	if s.disposed.Load() {
		s.running = false
		return
	}

	drained := false
	for s.demand > 0 && s.buf.Length() > 0 {
		item := s.buf.Remove().(T)
		s.demand--
		drained = true
		s.out.OnNext(item)
	}
	if drained && s.onDrained != nil {
		s.onDrained()
	}

	if s.closed && s.buf.Length() == 0 {
		out, err := s.out, s.err
		s.detach()
		if err != nil {
			out.OnError(err)
		} else {
			out.OnComplete()
		}
	}

	s.running = false
}

// dispose detaches the state unconditionally,
// without delivering a terminal signal.
// Double dispose is a no-op.
func (s *subscriberState[T]) dispose() {
	if s.disposed.Load() {
		return
	}
	s.detach()
}

func (s *subscriberState[T]) detach() {
	s.disposed.Store(true)
	s.demand = 0
	s.buf = queue.New()
	if s.onDisposed != nil {
		s.onDisposed()
	}
}
