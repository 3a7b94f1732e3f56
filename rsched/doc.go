// Package rsched provides the serial execution contexts ("coordinators")
// that own riptide flow operators.
//
// A coordinator runs scheduled units of work one at a time,
// in FIFO order. [Loop] drives the work from its own goroutine;
// [Manual] leaves the caller in charge of pumping,
// which is useful for deterministic tests and
// single-threaded embeddings.
package rsched
