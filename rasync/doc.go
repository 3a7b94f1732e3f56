// Package rasync provides the bounded single-producer,
// single-consumer conduit that carries typed values between
// two execution contexts, such as a transport session and
// the coordinator running an application flow.
//
// Unlike the rflow core, the conduit is deliberately
// mutex-guarded: its two ends live on different goroutines
// by design. Capacity is the flow-control currency; a producer
// observing zero remaining capacity is expected to pause until
// its resume callback fires.
package rasync
