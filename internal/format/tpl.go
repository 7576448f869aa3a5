package format

import "encoding/binary"

const (
	TPLHeaderSize = 12
	TPLVersion    = 2142000
)

// TPLHeader opens a palette texture file.
type TPLHeader struct {
	Version    uint32
	Count      uint32
	HeaderSize uint32
}

func ParseTPL(buf []byte) (TPLHeader, bool) {
	if len(buf) < TPLHeaderSize {
		return TPLHeader{}, false
	}
	return TPLHeader{
		Version:    binary.BigEndian.Uint32(buf[0:4]),
		Count:      binary.BigEndian.Uint32(buf[4:8]),
		HeaderSize: binary.BigEndian.Uint32(buf[8:12]),
	}, true
}

func IsTPL(buf []byte) bool {
	h, ok := ParseTPL(buf)
	if !ok {
		return false
	}
	return h.Version == TPLVersion && h.Count != 0 && h.HeaderSize == TPLHeaderSize
}
