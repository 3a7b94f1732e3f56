// Package rframe discretizes a duplex byte stream into
// length-prefixed messages and feeds them to an rbridge upper layer.
//
// The framing uses a 4-byte big-endian length prefix. Messages,
// excluding the prefix, are limited to [MaxMessageLength] bytes.
//
// A [Session] owns the read goroutine for one stream and implements
// the write side of the rbridge lower-layer contract, including
// suspending and resuming reads as the flow above it demands.
package rframe
