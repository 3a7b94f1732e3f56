package rtest

import (
	"testing"
	"time"
)

// Soon is how long the channel helpers wait before failing the test.
// It is long enough to tolerate a heavily loaded CI machine,
// while still failing reasonably fast on a genuine deadlock.
const Soon = 5 * time.Second

// SendSoon sends v on ch, failing t if the send does not
// complete within [Soon].
func SendSoon[T any](t *testing.T, ch chan<- T, v T) {
	t.Helper()

	tick := time.NewTimer(Soon)
	defer tick.Stop()

	select {
	case ch <- v:
	case <-tick.C:
		t.Fatalf("could not send value of type %T within %s", v, Soon)
	}
}

// ReceiveSoon receives a value from ch, failing t if no value
// arrives within [Soon].
func ReceiveSoon[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	tick := time.NewTimer(Soon)
	defer tick.Stop()

	select {
	case v := <-ch:
		return v
	case <-tick.C:
		t.Fatalf("did not receive value of type %T within %s", *new(T), Soon)
		panic("unreachable")
	}
}

// IsSending asserts that ch has a value ready right now,
// and returns that value.
func IsSending[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v := <-ch:
		return v
	default:
		t.Fatalf("expected channel of type %T to be sending, but it was not", *new(T))
		panic("unreachable")
	}
}

// NotSending asserts that a receive from ch would block right now.
func NotSending[T any](t *testing.T, ch <-chan T) {
	t.Helper()

	select {
	case v := <-ch:
		t.Fatalf("expected channel to block, but received %v", v)
	default:
	}
}
