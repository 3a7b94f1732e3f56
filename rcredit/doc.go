// Package rcredit decides how much upstream credit a multicast
// operator grants to its producer.
//
// A [Feed] sits between an upstream flow and an rflow.Multicast:
// it republishes upstream items to the operator's subscribers and,
// as the slowest subscriber drains, requests additional items
// upstream in policy-sized batches. The policy is either
// token-based (one token per element, statically sized buffers)
// or size-based (batch sizes calibrated from sampled serialized
// element sizes).
package rcredit
