// Package wire owns the point-to-point wire contract and its parsing
// primitives.
//
// Ownership boundary:
// - native-order u32 word codec
// - length-prefixed sequence framing
// - unframed fixed-arity blocks
// - exact-transfer read/write loops
//
// Payload words travel in the host's native byte order with no
// normalization; both peers are assumed to share an integer
// representation. The sequence length prefix is always 8 bytes.
package wire
