// Package rbridge adapts a frame-oriented byte transport to a pair
// of typed flows: outbound values are serialized and written as
// transport messages, and inbound frames are parsed and pushed into
// an application flow.
//
// Flow control reduces to two signals. "Did the downstream accept
// this?" is the remaining capacity reported by the inbound conduit;
// when it hits zero, the bridge suspends transport reads until
// capacity is restored. "Can the transport accept more?" gates the
// outbound serialization loop.
//
// Every bridge operation is one bounded, non-blocking unit of work
// running on the session's coordinator.
package rbridge
