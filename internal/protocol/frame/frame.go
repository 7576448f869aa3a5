package frame

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/danmuck/geckoload/internal/protocol"
	"github.com/danmuck/geckoload/internal/transport"
)

// Header is the fixed handshake that opens every session.
type Header struct {
	Magic       uint32
	Version     uint32
	DeflateSize uint32
	InflateSize uint32
	ArgsSize    uint32
}

// Limits bounds what a handshake may ask the loader to allocate.
type Limits struct {
	MaxDeflateBytes uint32
	MaxInflateBytes uint32
	MaxArgsBytes    uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxDeflateBytes: 32 * 1024 * 1024,
		MaxInflateBytes: 24 * 1024 * 1024,
		MaxArgsBytes:    64 * 1024,
	}
}

// NewHeader fills magic and version for a payload of the given sizes.
func NewHeader(deflateSize, inflateSize, argsSize int) Header {
	return Header{
		Magic:       protocol.Magic,
		Version:     protocol.Version,
		DeflateSize: uint32(deflateSize),
		InflateSize: uint32(inflateSize),
		ArgsSize:    uint32(argsSize),
	}
}

// ReadHeader receives and decodes the handshake. Nothing at all arriving is
// ErrIdle; a partial handshake is ErrTruncated. Both wrap the transport error.
func ReadHeader(ch transport.Channel, timeout time.Duration) (Header, error) {
	var buf [protocol.HeaderSize]byte
	if n, err := ch.Recv(buf[:], timeout); err != nil {
		if n == 0 {
			return Header{}, fmt.Errorf("%w: %w", protocol.ErrIdle, err)
		}
		return Header{}, fmt.Errorf("%w: handshake %d/%d bytes: %w", protocol.ErrTruncated, n, protocol.HeaderSize, err)
	}
	h, err := DecodeHeader(buf[:])
	if err != nil {
		return Header{}, err
	}
	return h, h.Validate()
}

// Validate rejects a handshake from a foreign or incompatible sender.
func (h Header) Validate() error {
	if h.Magic != protocol.Magic {
		return fmt.Errorf("%w: 0x%08x", protocol.ErrInvalidMagic, h.Magic)
	}
	if h.Version != protocol.Version {
		return fmt.Errorf("%w: %d", protocol.ErrUnsupportedVersion, h.Version)
	}
	return nil
}

// MaxLimit caps any single configured limit.
const MaxLimit = 1 << 30

// CheckLimits maps oversize declarations to errors; the loader treats them like
// a failed allocation. A zero field in limits means its default, never unbounded.
func (h Header) CheckLimits(limits Limits) error {
	limits = limits.withDefaults()
	if h.DeflateSize > limits.MaxDeflateBytes {
		return fmt.Errorf("%w: deflate_size=%d", protocol.ErrPayloadTooLarge, h.DeflateSize)
	}
	if h.InflateSize > limits.MaxInflateBytes {
		return fmt.Errorf("%w: inflate_size=%d", protocol.ErrPayloadTooLarge, h.InflateSize)
	}
	if h.ArgsSize > limits.MaxArgsBytes {
		return fmt.Errorf("%w: args_size=%d", protocol.ErrArgsTooLarge, h.ArgsSize)
	}
	return nil
}

// Validate rejects limits outside 1..MaxLimit.
func (l Limits) Validate() error {
	for name, v := range map[string]uint32{
		"max_deflate_bytes": l.MaxDeflateBytes,
		"max_inflate_bytes": l.MaxInflateBytes,
		"max_args_bytes":    l.MaxArgsBytes,
	} {
		if v == 0 || v > MaxLimit {
			return fmt.Errorf("%s must be in 1..%d, got %d", name, MaxLimit, v)
		}
	}
	return nil
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDeflateBytes == 0 {
		l.MaxDeflateBytes = d.MaxDeflateBytes
	}
	if l.MaxInflateBytes == 0 {
		l.MaxInflateBytes = d.MaxInflateBytes
	}
	if l.MaxArgsBytes == 0 {
		l.MaxArgsBytes = d.MaxArgsBytes
	}
	return l
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, protocol.HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint32(buf[4:8], h.Version)
	binary.BigEndian.PutUint32(buf[8:12], h.DeflateSize)
	binary.BigEndian.PutUint32(buf[12:16], h.InflateSize)
	binary.BigEndian.PutUint32(buf[16:20], h.ArgsSize)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != protocol.HeaderSize {
		return Header{}, fmt.Errorf("%w: header length %d", protocol.ErrTruncated, len(b))
	}
	return Header{
		Magic:       binary.BigEndian.Uint32(b[0:4]),
		Version:     binary.BigEndian.Uint32(b[4:8]),
		DeflateSize: binary.BigEndian.Uint32(b[8:12]),
		InflateSize: binary.BigEndian.Uint32(b[12:16]),
		ArgsSize:    binary.BigEndian.Uint32(b[16:20]),
	}, nil
}
