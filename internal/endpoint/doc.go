// Package endpoint owns the single-client blocking endpoint and its
// typed send/receive operations.
//
// Ownership boundary:
// - listening and connected socket lifecycle
// - typed value/vector/block operations over the wire contract
// - sent-byte accounting
//
// One endpoint serves exactly one peer at a time. No operation is safe
// to call concurrently on the same instance; the connected socket and
// the byte counter are unguarded on purpose.
package endpoint
