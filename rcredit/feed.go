package rcredit

import (
	"fmt"
	"log/slog"

	"github.com/gordian-engine/riptide/rflow"
)

// Feed connects an upstream flow to a [rflow.Multicast] operator.
//
// The feed is the observer of the upstream flow: it republishes
// every upstream item to the operator's subscribers and forwards
// terminal signals. In the other direction it implements the
// operator's hooks, translating per-subscriber drainage into
// upstream demand: whenever the slowest subscriber leaves at least
// one batch of headroom below the policy's buffer size, the feed
// requests that much more from upstream. This is how backpressure
// travels from the slowest subscriber back to the producer.
//
// All methods run on the operator's coordinator.
type Feed[T any] struct {
	log *slog.Logger

	op   *rflow.Multicast[T]
	ctrl Controller

	measure func(T) int

	sub rflow.Subscription

	// Items requested upstream but not yet arrived.
	inFlight int
}

// FeedConfig is the configuration passed to [NewFeed].
type FeedConfig[T any] struct {
	// The credit controller.
	// Defaults to a [TokenController] with default sizes when nil.
	Controller Controller

	// Measure returns the serialized size of an item, in bytes.
	// Required when the controller samples sizes;
	// may be nil otherwise.
	Measure func(T) int
}

// NewFeed returns a Feed whose operator is owned by coord.
// Subscribe the feed to an upstream flow to start it.
func NewFeed[T any](log *slog.Logger, coord rflow.Coordinator, cfg FeedConfig[T]) *Feed[T] {
	ctrl := cfg.Controller
	if ctrl == nil {
		ctrl = NewTokenController(DefaultTokenPolicy())
	}
	if _, sampling := ctrl.(*SizeController); sampling && cfg.Measure == nil {
		panic(fmt.Errorf("BUG: a size-based controller requires a Measure function"))
	}

	f := &Feed[T]{
		log:     log,
		ctrl:    ctrl,
		measure: cfg.Measure,
	}
	f.op = rflow.NewMulticast(coord, rflow.MulticastConfig[T]{Hooks: f})
	return f
}

// Operator returns the multicast operator the feed publishes to.
func (f *Feed[T]) Operator() *rflow.Multicast[T] {
	return f.op
}

// Subscribe attaches out to the feed's operator.
func (f *Feed[T]) Subscribe(out rflow.Observer[T]) rflow.Subscription {
	return f.op.Subscribe(out)
}

// InFlight returns how many upstream items are requested
// but not yet arrived.
func (f *Feed[T]) InFlight() int {
	return f.inFlight
}

// OnSubscribe implements [rflow.Observer]. The feed grants the
// upstream producer a full buffer of initial credit.
func (f *Feed[T]) OnSubscribe(sub rflow.Subscription) {
	if f.sub != nil {
		panic(fmt.Errorf("BUG: feed subscribed to two upstream flows"))
	}
	f.sub = sub

	n := f.ctrl.BufferSize()
	f.inFlight = n
	sub.Request(n)
}

// OnNext implements [rflow.Observer],
// republishing item to all subscribers.
func (f *Feed[T]) OnNext(item T) {
	f.inFlight--
	f.ctrl.Tick(func() int {
		return f.measure(item)
	})
	f.op.PushAll(item)

	// Without subscribers there are no drain events,
	// so the feed must replenish credit here.
	if !f.op.HasObservers() {
		f.topUp()
	}
}

// OnComplete implements [rflow.Observer].
func (f *Feed[T]) OnComplete() {
	f.op.Close()
}

// OnError implements [rflow.Observer].
func (f *Feed[T]) OnError(err error) {
	f.log.Warn("Upstream flow failed", "err", err)
	f.op.Abort(err)
}

// OnDrained implements [rflow.Hooks].
func (f *Feed[T]) OnDrained(*rflow.Multicast[T], rflow.StateStat) {
	f.topUp()
}

// OnDispose implements [rflow.Hooks].
// The departed subscriber may have been the slowest one,
// so the remaining headroom is re-evaluated.
func (f *Feed[T]) OnDispose(*rflow.Multicast[T], rflow.StateStat) {
	f.topUp()
}

func (f *Feed[T]) topUp() {
	if f.sub == nil || f.sub.Disposed() {
		return
	}

	outstanding := f.op.MaxBuffered() + f.inFlight
	credit := f.ctrl.BufferSize() - outstanding
	if credit < f.ctrl.BatchSize() {
		return
	}

	f.inFlight += credit
	f.sub.Request(credit)
}
