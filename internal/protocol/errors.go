package protocol

import "errors"

var (
	ErrIdle               = errors.New("protocol: no handshake received")
	ErrInvalidMagic       = errors.New("protocol: invalid magic")
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")
	ErrTruncated          = errors.New("protocol: truncated data")
	ErrPayloadTooLarge    = errors.New("protocol: payload too large")
	ErrArgsTooLarge       = errors.New("protocol: argument block too large")
	ErrDecompress         = errors.New("protocol: decompression failed")
	ErrOutputOverflow     = errors.New("protocol: decompressed output exceeds declared size")
)
