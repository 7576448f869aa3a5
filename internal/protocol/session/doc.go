// Package session runs one loader session over a transport channel: read the
// handshake, inflate the payload into the task, read the argument block,
// classify the result and flush whatever the sender left behind.
//
// Ownership boundary:
// - handshake-to-flush sequencing and task buffer replacement
// - session outcome reporting (logs and metrics)
// - the sending side of the same wire format
//
// Wire layout lives in protocol/frame; stream decompression in protocol/inflate.
package session
