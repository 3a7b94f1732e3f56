package rframe

import (
	"fmt"

	"github.com/quic-go/quic-go"
)

// StreamErrorCode informs the peer of why a QUIC stream
// was canceled when a session shuts down.
type StreamErrorCode uint64

// QUICStream adapts a [quic.Stream] to the [Stream] interface.
// Use [WrapQUICStream] to create an instance.
type QUICStream struct {
	s    quic.Stream
	code StreamErrorCode
}

// WrapQUICStream wraps s into a QUICStream. Closing the returned
// stream cancels its read side with the given code, so the peer
// learns why the session stopped consuming.
func WrapQUICStream(s quic.Stream, code StreamErrorCode) QUICStream {
	if (code >> 62) > 0 {
		panic(fmt.Errorf(
			"BUG: stream error code must fit in 62 bits (got 0x%x)", code,
		))
	}
	return QUICStream{s: s, code: code}
}

func (q QUICStream) Read(p []byte) (int, error) {
	return q.s.Read(p)
}

func (q QUICStream) Write(p []byte) (int, error) {
	return q.s.Write(p)
}

func (q QUICStream) Close() error {
	q.s.CancelRead(quic.StreamErrorCode(q.code))
	return q.s.Close()
}
