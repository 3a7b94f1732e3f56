// Package rflow contains the core of riptide's reactive flow engine:
// a push-based multicast operator that delivers a sequence of typed
// values to any number of independently-paced subscribers.
//
// Delivery is regulated by demand. A subscriber authorizes items
// through its [Subscription], and the operator only ever delivers
// as many items as a subscriber has authorized; everything else
// waits in a per-subscriber buffer.
//
// All state in this package is owned by a single [Coordinator].
// There are no locks; correctness relies on every mutation being
// applied serially on the owning coordinator.
package rflow
