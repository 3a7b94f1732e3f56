// Package riptide is a push-based, demand-regulated multicast flow
// engine, plus the bridge connecting flows to a byte-oriented
// network transport.
//
// The rflow package contains the core engine: a multicast operator
// fans pushed items out to independently-paced subscribers, with
// delivery gated by per-subscriber demand. All flow state is owned
// by a single serial coordinator from the rsched package.
//
// The rcredit package grants upstream credit as the slowest
// subscriber drains, the rasync package carries values between
// execution contexts, and the rbridge and rframe packages run
// flows over a length-prefixed byte transport such as a QUIC
// stream or a net.Conn.
package riptide
