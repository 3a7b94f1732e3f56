// Package rflowtest provides fixtures for testing code
// built on the rflow engine.
package rflowtest

import (
	"fmt"

	"github.com/gordian-engine/riptide/rflow"
)

// RecordingObserver records every callback it receives,
// for later assertions.
//
// Like any observer, its callbacks run on the owning coordinator;
// reading the recorded fields is only safe once the coordinator
// is idle (e.g. after pumping an rsched.Manual dry).
type RecordingObserver[T any] struct {
	// The subscription received in OnSubscribe, if any.
	Sub rflow.Subscription

	// Items received through OnNext, in order.
	Items []T

	// Whether OnComplete was called.
	Completed bool

	// The error received through OnError, if any.
	Err error

	terminated bool
}

// NewRecordingObserver returns an empty RecordingObserver.
func NewRecordingObserver[T any]() *RecordingObserver[T] {
	return &RecordingObserver[T]{}
}

func (o *RecordingObserver[T]) OnSubscribe(sub rflow.Subscription) {
	if o.Sub != nil {
		panic(fmt.Errorf("BUG: OnSubscribe called twice"))
	}
	o.Sub = sub
}

func (o *RecordingObserver[T]) OnNext(item T) {
	if o.terminated {
		panic(fmt.Errorf("BUG: OnNext called after terminal signal"))
	}
	o.Items = append(o.Items, item)
}

func (o *RecordingObserver[T]) OnComplete() {
	if o.terminated {
		panic(fmt.Errorf("BUG: duplicate terminal signal"))
	}
	o.terminated = true
	o.Completed = true
}

func (o *RecordingObserver[T]) OnError(err error) {
	if o.terminated {
		panic(fmt.Errorf("BUG: duplicate terminal signal"))
	}
	o.terminated = true
	o.Err = err
}

// Terminated reports whether a terminal signal arrived.
func (o *RecordingObserver[T]) Terminated() bool {
	return o.terminated
}
