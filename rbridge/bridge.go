package rbridge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordian-engine/riptide/rasync"
	"github.com/gordian-engine/riptide/rflow"
)

// LowerLayer is the contract the bridge requires from the
// frame-oriented transport beneath it. The rframe package
// provides an implementation.
//
// All methods are invoked from the session's coordinator.
type LowerLayer interface {
	// CanSendMore reports whether the transport
	// will accept another outbound message.
	CanSendMore() bool

	// BeginMessage starts a new outbound message.
	BeginMessage()

	// MessageBuffer returns the buffer of the message
	// started by BeginMessage, for the codec to append to.
	MessageBuffer() *[]byte

	// EndMessage finalizes and hands off the current message,
	// reporting whether the transport accepted it.
	EndMessage() bool

	// SuspendReading stops the transport from producing
	// further inbound frames.
	SuspendReading()

	// ResumeReading undoes SuspendReading.
	ResumeReading()

	// Shutdown terminates the transport session.
	// A nil error indicates a clean shutdown.
	Shutdown(err error)
}

// Codec converts between typed values and their wire form.
// A Codec must not retain the byte slices it is given.
type Codec[In, Out any] interface {
	// Encode appends the wire form of item to *buf.
	Encode(item Out, buf *[]byte) error

	// Decode parses one inbound frame.
	Decode(frame []byte) (In, error)
}

// Bridge binds one outbound flow (values to serialize) and one
// inbound flow (values parsed from bytes) to one transport session.
//
// The zero value is not usable; see [New].
type Bridge[In, Out any] struct {
	log   *slog.Logger
	coord rflow.Coordinator
	codec Codec[In, Out]

	// The output of the application, serialized to the transport.
	in *rasync.Consumer[Out]

	// The input to the application, parsed from the transport.
	out *rasync.Producer[In]

	down LowerLayer
}

// New returns a Bridge pulling outbound values from in and pushing
// parsed inbound values into out. The bridge stays inert until
// [Bridge.Start] attaches it to a transport.
func New[In, Out any](
	log *slog.Logger,
	coord rflow.Coordinator,
	codec Codec[In, Out],
	in *rasync.Consumer[Out],
	out *rasync.Producer[In],
) *Bridge[In, Out] {
	return &Bridge[In, Out]{
		log:   log,
		coord: coord,
		codec: codec,
		in:    in,
		out:   out,
	}
}

// Start attaches the bridge to down and wires the conduit callbacks:
// outbound values wake the send path, and restored inbound capacity
// resumes transport reads. Start also schedules an initial send pass
// in case outbound values were already waiting.
func (b *Bridge[In, Out]) Start(down LowerLayer) error {
	if down == nil {
		return errors.New("cannot start bridge: no lower layer")
	}
	if !b.Running() {
		return errors.New("cannot start bridge: no conduits")
	}
	b.down = down

	b.in.SetWakeup(func() {
		b.coord.Schedule(b.PrepareSend)
	})
	b.out.SetResume(func() {
		b.coord.Schedule(down.ResumeReading)
	})

	b.coord.Schedule(b.PrepareSend)
	return nil
}

// Running reports whether the bridge still has at least one live flow.
func (b *Bridge[In, Out]) Running() bool {
	return b.in != nil || b.out != nil
}

// Consume handles one inbound frame. It returns the number of bytes
// consumed, or a negative value on a fatal protocol error, in which
// case the session is expected to terminate.
//
// If the inbound flow reports no remaining capacity after the push,
// Consume suspends transport reads; the resume callback wired in
// [Bridge.Start] restores them once capacity returns.
func (b *Bridge[In, Out]) Consume(frame []byte) int {
	if b.out == nil {
		return -1
	}
	val, err := b.codec.Decode(frame)
	if err != nil {
		b.log.Warn("Failed to decode inbound frame", "err", err)
		return -1
	}
	if b.out.Push(val) == 0 {
		b.down.SuspendReading()
	}
	return len(frame)
}

// PrepareSend drains the outbound flow into transport messages
// for as long as the transport accepts more. It stops early on
// temporarily exhausted input, and shuts the session down on
// terminal signals or serialization failure.
func (b *Bridge[In, Out]) PrepareSend() {
	for b.in != nil && b.down.CanSendMore() {
		item, res := b.in.Pull()
		switch res {
		case rasync.PullOK:
			if err := b.write(item); err != nil {
				b.log.Warn("Failed to write outbound item", "err", err)
				b.Abort(err)
				b.down.Shutdown(err)
				return
			}

		case rasync.PullLater:
			return

		case rasync.PullStop:
			b.Abort(nil)
			b.down.Shutdown(nil)
			return

		case rasync.PullAbort:
			err := b.in.Err()
			b.Abort(err)
			b.down.Shutdown(err)
			return
		}
	}
}

// DoneSending reports whether the outbound flow has terminated.
func (b *Bridge[In, Out]) DoneSending() bool {
	return b.in == nil
}

// Abort tears down both flows. A nil err closes the inbound flow
// cleanly; otherwise the inbound flow observes err as its terminal
// error. Abort is idempotent.
func (b *Bridge[In, Out]) Abort(err error) {
	if b.out != nil {
		if err == nil ||
			errors.Is(err, rasync.ErrBrokenProducer) {
			b.out.Close()
		} else {
			b.out.Abort(err)
		}
		b.out = nil
	}
	if b.in != nil {
		b.in.Cancel()
		b.in = nil
	}
}

func (b *Bridge[In, Out]) write(item Out) error {
	b.down.BeginMessage()
	buf := b.down.MessageBuffer()
	if err := b.codec.Encode(item, buf); err != nil {
		return fmt.Errorf("failed to encode outbound item: %w", err)
	}
	if !b.down.EndMessage() {
		return errors.New("transport rejected outbound message")
	}
	return nil
}
