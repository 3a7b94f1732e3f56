package rframe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gordian-engine/riptide/rbridge"
	"github.com/gordian-engine/riptide/rflow"
)

// HeaderSize is the size of the length prefix, in bytes.
const HeaderSize = 4

// MaxMessageLength is the largest allowed message payload.
// The limit, including the prefix, stems from recv on
// 32-bit POSIX platforms.
const MaxMessageLength = math.MaxInt32 - HeaderSize

// ErrMessageTooLarge indicates a frame whose declared length
// exceeds the session's limit.
var ErrMessageTooLarge = errors.New("message exceeds maximum frame length")

// Stream is the duplex byte stream a [Session] runs on.
// A net.Conn satisfies Stream directly;
// use [WrapQUICStream] for QUIC streams.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// UpperLayer is the frame consumer sitting on top of a [Session].
// An rbridge.Bridge satisfies UpperLayer.
type UpperLayer interface {
	// Start attaches the upper layer to the session.
	Start(down rbridge.LowerLayer) error

	// Consume handles one inbound frame, returning a negative
	// value on a fatal error.
	Consume(frame []byte) int

	// Abort tells the upper layer the session is over.
	// A nil error means the peer closed the stream cleanly.
	Abort(err error)
}

// SessionConfig is the configuration passed to [NewSession].
type SessionConfig struct {
	// The stream to frame.
	Stream Stream

	// The frame consumer, usually an rbridge.Bridge.
	Upper UpperLayer

	// The coordinator all upper-layer work is marshalled onto.
	Coordinator rflow.Coordinator

	// Optional limit on the payload size of a single message.
	// Zero means [MaxMessageLength].
	MaxFrameSize int
}

// Session frames one duplex byte stream.
//
// The read goroutine reassembles length-prefixed frames and hands
// them to the upper layer on the coordinator, one at a time. The
// write side is invoked by the upper layer, also on the coordinator.
type Session struct {
	log *slog.Logger

	stream   Stream
	up       UpperLayer
	coord    rflow.Coordinator
	maxFrame int

	// Outbound message under construction.
	// Holds the header placeholder followed by the payload.
	wbuf []byte

	closed    atomic.Bool
	suspended atomic.Bool
	resume    chan struct{}

	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

// NewSession starts a session on cfg.Stream and attaches cfg.Upper
// to it. The given context controls the read goroutine's lifecycle.
func NewSession(ctx context.Context, log *slog.Logger, cfg SessionConfig) (*Session, error) {
	if cfg.Stream == nil {
		return nil, errors.New("cannot create session: no stream")
	}
	if cfg.Upper == nil {
		return nil, errors.New("cannot create session: no upper layer")
	}
	if cfg.Coordinator == nil {
		return nil, errors.New("cannot create session: no coordinator")
	}

	maxFrame := cfg.MaxFrameSize
	if maxFrame <= 0 || maxFrame > MaxMessageLength {
		maxFrame = MaxMessageLength
	}

	s := &Session{
		log: log,

		stream:   cfg.Stream,
		up:       cfg.Upper,
		coord:    cfg.Coordinator,
		maxFrame: maxFrame,

		// Buffered so a resume racing the read loop is never lost.
		resume: make(chan struct{}, 1),
	}

	if err := s.up.Start(s); err != nil {
		return nil, fmt.Errorf("failed to start upper layer: %w", err)
	}

	s.wg.Add(1)
	go s.readLoop(ctx)

	return s, nil
}

// Wait blocks until the session's read goroutine has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) readLoop(ctx context.Context) {
	defer s.wg.Done()

	hdr := make([]byte, HeaderSize)
	for {
		if s.suspended.Load() {
			select {
			case <-ctx.Done():
				return
			case <-s.resume:
				s.suspended.Store(false)
				continue
			}
		}

		if _, err := io.ReadFull(s.stream, hdr); err != nil {
			if errors.Is(err, io.EOF) || s.closed.Load() {
				s.finishRead(nil)
			} else {
				s.finishRead(fmt.Errorf("failed to read frame header: %w", err))
			}
			return
		}

		n := binary.BigEndian.Uint32(hdr)
		if n == 0 {
			s.finishRead(errors.New("received zero-length frame"))
			return
		}
		if uint64(n) > uint64(s.maxFrame) {
			s.finishRead(fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, n))
			return
		}

		frame := make([]byte, n)
		if _, err := io.ReadFull(s.stream, frame); err != nil {
			s.finishRead(fmt.Errorf("failed to read frame payload: %w", err))
			return
		}

		res := make(chan int, 1)
		s.coord.Schedule(func() {
			res <- s.up.Consume(frame)
		})

		select {
		case <-ctx.Done():
			return
		case consumed := <-res:
			if consumed < 0 {
				s.finishRead(errors.New("upper layer rejected inbound frame"))
				return
			}
		}
	}
}

// finishRead tears the session down after the read loop stops.
// A nil error means the peer closed the stream cleanly.
func (s *Session) finishRead(err error) {
	if err != nil && !s.closed.Load() {
		s.log.Warn("Stopping session read loop", "err", err)
	}

	up := s.up
	s.coord.Schedule(func() {
		up.Abort(err)
	})
	s.Shutdown(err)
}

// CanSendMore reports whether the session accepts outbound messages.
func (s *Session) CanSendMore() bool {
	return !s.closed.Load()
}

// BeginMessage starts a new outbound message,
// resetting the write buffer to the header placeholder.
func (s *Session) BeginMessage() {
	s.wbuf = append(s.wbuf[:0], 0, 0, 0, 0)
}

// MessageBuffer returns the outbound message buffer
// for a codec to append the payload to.
func (s *Session) MessageBuffer() *[]byte {
	return &s.wbuf
}

// EndMessage patches the length prefix and writes the message to the
// stream, reporting whether the write succeeded. Empty and oversized
// payloads are rejected.
func (s *Session) EndMessage() bool {
	body := len(s.wbuf) - HeaderSize
	if body <= 0 {
		s.log.Warn("Rejecting empty outbound message")
		return false
	}
	if body > s.maxFrame {
		s.log.Warn(
			"Rejecting oversized outbound message",
			"size", body,
			"limit", s.maxFrame,
		)
		return false
	}

	binary.BigEndian.PutUint32(s.wbuf[:HeaderSize], uint32(body))
	if _, err := s.stream.Write(s.wbuf); err != nil {
		if !s.closed.Load() {
			s.log.Warn("Failed to write outbound frame", "err", err)
		}
		return false
	}
	return true
}

// SuspendReading stops the read loop from producing further frames
// after the current one. Intended to be called from within
// [UpperLayer.Consume].
func (s *Session) SuspendReading() {
	s.suspended.Store(true)
}

// ResumeReading undoes [Session.SuspendReading].
func (s *Session) ResumeReading() {
	if !s.suspended.Load() {
		return
	}
	select {
	case s.resume <- struct{}{}:
	default:
		// A resume is already pending.
	}
}

// Shutdown terminates the session, closing the underlying stream.
// A nil error indicates a clean shutdown. Shutdown is idempotent.
func (s *Session) Shutdown(err error) {
	s.shutdownOnce.Do(func() {
		s.closed.Store(true)

		if err != nil {
			s.log.Warn("Shutting down session", "err", err)
		} else {
			s.log.Info("Shutting down session")
		}

		if cerr := s.stream.Close(); cerr != nil {
			s.log.Debug("Failed to close stream", "err", cerr)
		}

		// Unpark a suspended read loop so it can observe the closure.
		select {
		case s.resume <- struct{}{}:
		default:
		}
	})
}
