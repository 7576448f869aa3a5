package format

import "encoding/binary"

const (
	DOLHeaderSize = 0x100
	DOLTextCount  = 7
	DOLDataCount  = 11

	// The cached alias is 0x80000000; masking with the uncached bit pattern
	// folds every other alias (physical, uncached) away from it.
	baseCached   = 0x80000000
	baseUncached = 0xC0000000
)

// DOLSegment is one loadable text or data region.
type DOLSegment struct {
	Offset  uint32
	Address uint32
	Size    uint32
}

// DOLHeader is the fixed executable header.
type DOLHeader struct {
	Text       [DOLTextCount]DOLSegment
	Data       [DOLDataCount]DOLSegment
	BSSAddress uint32
	BSSSize    uint32
	EntryPoint uint32
	Padding    [7]uint32
}

func ParseDOL(buf []byte) (DOLHeader, bool) {
	if len(buf) < DOLHeaderSize {
		return DOLHeader{}, false
	}
	word := func(i int) uint32 { return binary.BigEndian.Uint32(buf[i*4 : i*4+4]) }
	const (
		segs     = DOLTextCount + DOLDataCount
		offsets  = 0
		addrs    = segs
		sizes    = 2 * segs
		trailing = 3 * segs
	)
	var h DOLHeader
	for i := 0; i < DOLTextCount; i++ {
		h.Text[i] = DOLSegment{Offset: word(offsets + i), Address: word(addrs + i), Size: word(sizes + i)}
	}
	for i := 0; i < DOLDataCount; i++ {
		j := DOLTextCount + i
		h.Data[i] = DOLSegment{Offset: word(offsets + j), Address: word(addrs + j), Size: word(sizes + j)}
	}
	h.BSSAddress = word(trailing)
	h.BSSSize = word(trailing + 1)
	h.EntryPoint = word(trailing + 2)
	for i := range h.Padding {
		h.Padding[i] = word(trailing + 3 + i)
	}
	return h, true
}

func IsDOL(buf []byte) bool {
	h, ok := ParseDOL(buf)
	if !ok {
		return false
	}
	for _, p := range h.Padding {
		if p != 0 {
			return false
		}
	}
	for _, s := range h.Segments() {
		if s.Size == 0 {
			continue
		}
		if s.Offset < DOLHeaderSize || !Cached(s.Address) {
			return false
		}
	}
	if h.BSSSize != 0 && !Cached(h.BSSAddress) {
		return false
	}
	return Cached(h.EntryPoint)
}

// Segments returns text segments followed by data segments.
func (h DOLHeader) Segments() []DOLSegment {
	out := make([]DOLSegment, 0, DOLTextCount+DOLDataCount)
	out = append(out, h.Text[:]...)
	return append(out, h.Data[:]...)
}

// Cached reports whether addr lies in the cached alias of the address space.
func Cached(addr uint32) bool {
	return addr&baseUncached == baseCached
}
