package rflow

// Publisher is a convenience front for pushing items
// into a [Multicast] operator.
//
// Like the operator it wraps, a Publisher must only be used
// from the owning coordinator's context.
type Publisher[T any] struct {
	op *Multicast[T]
}

// NewPublisher returns a Publisher backed by a fresh
// [Multicast] operator owned by coord.
func NewPublisher[T any](coord Coordinator) *Publisher[T] {
	return &Publisher[T]{
		op: NewMulticast(coord, MulticastConfig[T]{}),
	}
}

// WrapPublisher returns a Publisher backed by op.
func WrapPublisher[T any](op *Multicast[T]) *Publisher[T] {
	return &Publisher[T]{op: op}
}

// Push pushes the given items to all subscribed observers.
// Items are dropped when no subscriber exists.
func (p *Publisher[T]) Push(items ...T) {
	for _, item := range items {
		p.op.PushAll(item)
	}
}

// Close closes the publisher, eventually delivering
// a completion signal to all observers.
func (p *Publisher[T]) Close() {
	p.op.Close()
}

// Abort closes the publisher, eventually delivering
// reason to all observers.
func (p *Publisher[T]) Abort(reason error) {
	p.op.Abort(reason)
}

// Demand returns how many items the publisher may push
// for immediate delivery to every subscribed observer.
func (p *Publisher[T]) Demand() int {
	return p.op.MinDemand()
}

// Buffered returns how many items are waiting for the slowest
// observer to request additional items.
func (p *Publisher[T]) Buffered() int {
	return p.op.MaxBuffered()
}

// HasObservers reports whether at least one observer is subscribed.
func (p *Publisher[T]) HasObservers() bool {
	return p.op.HasObservers()
}

// Subscribe attaches out to the underlying operator.
func (p *Publisher[T]) Subscribe(out Observer[T]) Subscription {
	return p.op.Subscribe(out)
}

// Operator returns the underlying [Multicast].
func (p *Publisher[T]) Operator() *Multicast[T] {
	return p.op
}
