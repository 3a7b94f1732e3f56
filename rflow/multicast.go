package rflow

import "fmt"

// StateStat is a point-in-time view of one subscriber's progress,
// handed to [Hooks] implementations.
type StateStat struct {
	// Items the subscriber has authorized but not yet received.
	Demand int

	// Items pushed but not yet delivered to the subscriber.
	Buffered int
}

// Hooks receives notifications about per-subscriber progress
// on a [Multicast] operator.
//
// Concrete flow-control policies implement Hooks to translate
// per-subscriber drainage into upstream demand requests;
// this is how backpressure travels from the slowest subscriber
// back to the original producer. See the rcredit package.
//
// Both methods are invoked on the operator's coordinator.
type Hooks[T any] interface {
	// OnDispose is called after a subscriber
	// has been removed from the operator's set.
	OnDispose(op *Multicast[T], stat StateStat)

	// OnDrained is called after every delivery pass
	// that reduced a subscriber's buffer.
	OnDrained(op *Multicast[T], stat StateStat)
}

// NopHooks is the default [Hooks] implementation. It does nothing.
type NopHooks[T any] struct{}

func (NopHooks[T]) OnDispose(*Multicast[T], StateStat) {}
func (NopHooks[T]) OnDrained(*Multicast[T], StateStat) {}

// MulticastConfig is the configuration passed to [NewMulticast].
// The zero value is valid.
type MulticastConfig[T any] struct {
	// Flow-control hooks. Defaults to [NopHooks] when nil.
	Hooks Hooks[T]
}

// Multicast fans pushed items out to any number of subscribed
// observers, each progressing at its own demand-limited pace.
//
// A Multicast is owned by exactly one coordinator. Every method
// must be called from that coordinator's context; only the
// [Subscription] values it hands out are safe to use from
// foreign goroutines.
type Multicast[T any] struct {
	coord Coordinator
	hooks Hooks[T]

	closed bool
	err    error

	// Live subscriber states in insertion order.
	// Membership is keyed by state token, not pointer identity.
	states []*subscriberState[T]

	nextToken uint64
}

// NewMulticast returns a new Multicast owned by coord.
func NewMulticast[T any](coord Coordinator, cfg MulticastConfig[T]) *Multicast[T] {
	hooks := cfg.Hooks
	if hooks == nil {
		hooks = NopHooks[T]{}
	}
	return &Multicast[T]{
		coord: coord,
		hooks: hooks,
	}
}

// Subscribe attaches out to the operator and returns its subscription.
//
// Subscribing after a clean [Multicast.Close] is not an error:
// the observer receives zero items and an immediate completion.
// Subscribing after [Multicast.Abort] immediately signals
// the abort reason to the observer.
func (m *Multicast[T]) Subscribe(out Observer[T]) Subscription {
	if m.closed {
		if m.err != nil {
			out.OnError(m.err)
			return deadSubscription{}
		}

		sub := deadSubscription{}
		out.OnSubscribe(sub)
		m.coord.Schedule(out.OnComplete)
		return sub
	}

	st := newSubscriberState(m.coord, out, m.nextToken)
	m.nextToken++
	st.onDisposed = func() {
		if m.removeState(st.token) {
			m.hooks.OnDispose(m, statOf(st))
		}
	}
	st.onDrained = func() {
		m.hooks.OnDrained(m, statOf(st))
	}
	m.states = append(m.states, st)

	sub := &multicastSub[T]{coord: m.coord, state: st}
	out.OnSubscribe(sub)
	return sub
}

// PushAll appends item to every live subscriber's buffer.
// Delivery remains demand-driven and runs independently
// per subscriber. Items pushed after Close or Abort are dropped.
func (m *Multicast[T]) PushAll(item T) {
	if m.closed {
		return
	}
	for _, st := range m.states {
		st.push(item)
	}
}

// Close marks the operator closed, eventually delivering a completion
// signal to every subscriber once its buffer drains.
// Close is idempotent.
func (m *Multicast[T]) Close() {
	if m.closed {
		return
	}
	m.closed = true
	for _, st := range m.states {
		st.close()
	}
	m.states = nil
}

// Abort marks the operator closed, eventually delivering reason
// to every subscriber once its buffer drains.
// Calling Abort after Close or a prior Abort has no effect.
func (m *Multicast[T]) Abort(reason error) {
	if m.closed {
		return
	}
	m.closed = true
	m.err = reason
	for _, st := range m.states {
		st.abort(reason)
	}
	m.states = nil
}

// MaxDemand returns the largest outstanding demand
// across all subscribers, or 0 without subscribers.
func (m *Multicast[T]) MaxDemand() int {
	max := 0
	for _, st := range m.states {
		if st.demand > max {
			max = st.demand
		}
	}
	return max
}

// MinDemand returns the smallest outstanding demand
// across all subscribers, or 0 without subscribers.
func (m *Multicast[T]) MinDemand() int {
	if len(m.states) == 0 {
		return 0
	}
	min := m.states[0].demand
	for _, st := range m.states[1:] {
		if st.demand < min {
			min = st.demand
		}
	}
	return min
}

// MaxBuffered returns the largest pending-item count
// across all subscribers, or 0 without subscribers.
func (m *Multicast[T]) MaxBuffered() int {
	max := 0
	for _, st := range m.states {
		if n := st.buf.Length(); n > max {
			max = n
		}
	}
	return max
}

// MinBuffered returns the smallest pending-item count
// across all subscribers, or 0 without subscribers.
func (m *Multicast[T]) MinBuffered() int {
	if len(m.states) == 0 {
		return 0
	}
	min := m.states[0].buf.Length()
	for _, st := range m.states[1:] {
		if n := st.buf.Length(); n < min {
			min = n
		}
	}
	return min
}

// HasObservers reports whether at least one observer is subscribed.
func (m *Multicast[T]) HasObservers() bool {
	return len(m.states) > 0
}

// ObserverCount returns the number of subscribed observers.
func (m *Multicast[T]) ObserverCount() int {
	return len(m.states)
}

func (m *Multicast[T]) removeState(token uint64) bool {
	for i, st := range m.states {
		if st.token == token {
			m.states = append(m.states[:i], m.states[i+1:]...)
			return true
		}
	}
	return false
}

func statOf[T any](st *subscriberState[T]) StateStat {
	return StateStat{
		Demand:   st.demand,
		Buffered: st.buf.Length(),
	}
}

// multicastSub is the subscription handed to observers
// subscribed to a live [Multicast].
type multicastSub[T any] struct {
	coord Coordinator
	state *subscriberState[T]
}

func (s *multicastSub[T]) Request(n int) {
	if n <= 0 {
		panic(fmt.Errorf("BUG: requested demand must be positive (got %d)", n))
	}
	st := s.state
	s.coord.Schedule(func() {
		st.request(n)
	})
}

func (s *multicastSub[T]) Dispose() {
	// Always deferred, even when called from within a delivery pass,
	// so the operator's subscriber set is never mutated mid-iteration.
	s.coord.Schedule(s.state.dispose)
}

func (s *multicastSub[T]) Disposed() bool {
	return s.state.disposed.Load()
}

// deadSubscription is handed to observers subscribing
// after the operator has already terminated.
type deadSubscription struct{}

func (deadSubscription) Request(n int) {
	if n <= 0 {
		panic(fmt.Errorf("BUG: requested demand must be positive (got %d)", n))
	}
}

func (deadSubscription) Dispose() {}

func (deadSubscription) Disposed() bool { return true }
