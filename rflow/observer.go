package rflow

// Coordinator is the serial execution context that owns a
// [Multicast] operator and all of its per-subscriber state.
//
// Schedule enqueues a unit of work to run later, in FIFO order
// relative to other work scheduled on the same coordinator.
// Schedule must be safe to call from any goroutine,
// but the scheduled work itself always runs serially.
//
// The rsched package provides implementations.
type Coordinator interface {
	Schedule(fn func())
}

// Observer consumes the items of a flow.
//
// OnSubscribe is called exactly once, before any other method.
// After that, any number of OnNext calls may follow,
// terminated by at most one call to OnComplete or OnError.
//
// All methods are invoked on the owning coordinator.
type Observer[T any] interface {
	// OnSubscribe hands the observer the subscription
	// it uses to authorize delivery and to cancel.
	OnSubscribe(sub Subscription)

	// OnNext delivers a single item.
	// It is only ever called with outstanding demand.
	OnNext(item T)

	// OnComplete signals the end of the flow.
	// No further calls follow.
	OnComplete()

	// OnError signals a terminal error.
	// No further calls follow.
	OnError(err error)
}

// Subscription is the handle a subscriber holds
// to authorize more items or to detach from the flow.
//
// Request and Dispose are safe to call from any goroutine;
// their effects are applied serially on the owning coordinator.
type Subscription interface {
	// Request authorizes delivery of n additional items.
	// It never delivers synchronously, even when items are buffered;
	// delivery happens on a later coordinator turn.
	//
	// Request panics if n is not positive.
	Request(n int)

	// Dispose detaches the subscriber from the flow.
	// Buffered items are discarded and no terminal signal is delivered.
	// Dispose is idempotent.
	Dispose()

	// Disposed reports whether the subscription
	// no longer references a live subscriber.
	Disposed() bool
}
