// Package protocol owns the loader wire contract.
//
// Ownership boundary:
// - handshake header primitives (frame)
// - streaming payload decompression (inflate)
// - one-session lifecycle over a transport channel (session)
package protocol
