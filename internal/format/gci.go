package format

import "encoding/binary"

const (
	GCIHeaderSize = 64
	GCIBlockSize  = 8192
	GCIMaxBlocks  = 2043

	gciPadding0   = 0xFF
	gciPadding1   = 0xFFFF
	gciAbsent     = 0xFFFFFFFF
	gciMaxIcon    = 512
	gciMaxComment = 8128
)

// GCIHeader is the directory entry that prefixes an exported memory card file.
type GCIHeader struct {
	GameCode      [4]byte
	Company       [2]byte
	Padding0      uint8
	BannerFormat  uint8
	Filename      [32]byte
	ModTime       uint32
	IconOffset    uint32
	IconFormat    uint16
	IconSpeed     uint16
	Permission    uint8
	CopyTimes     uint8
	FirstBlock    uint16
	Length        uint16
	Padding1      uint16
	CommentOffset uint32
}

func ParseGCI(buf []byte) (GCIHeader, bool) {
	if len(buf) < GCIHeaderSize {
		return GCIHeader{}, false
	}
	var h GCIHeader
	copy(h.GameCode[:], buf[0:4])
	copy(h.Company[:], buf[4:6])
	h.Padding0 = buf[6]
	h.BannerFormat = buf[7]
	copy(h.Filename[:], buf[8:40])
	h.ModTime = binary.BigEndian.Uint32(buf[40:44])
	h.IconOffset = binary.BigEndian.Uint32(buf[44:48])
	h.IconFormat = binary.BigEndian.Uint16(buf[48:50])
	h.IconSpeed = binary.BigEndian.Uint16(buf[50:52])
	h.Permission = buf[52]
	h.CopyTimes = buf[53]
	h.FirstBlock = binary.BigEndian.Uint16(buf[54:56])
	h.Length = binary.BigEndian.Uint16(buf[56:58])
	h.Padding1 = binary.BigEndian.Uint16(buf[58:60])
	h.CommentOffset = binary.BigEndian.Uint32(buf[60:64])
	return h, true
}

func IsGCI(buf []byte) bool {
	h, ok := ParseGCI(buf)
	if !ok {
		return false
	}
	if len(buf) != GCIHeaderSize+int(h.Length)*GCIBlockSize {
		return false
	}
	if h.Length < 1 || h.Length > GCIMaxBlocks {
		return false
	}
	if h.Padding0 != gciPadding0 || h.Padding1 != gciPadding1 {
		return false
	}
	if h.IconOffset != gciAbsent && h.IconOffset > gciMaxIcon {
		return false
	}
	if h.CommentOffset != gciAbsent && h.CommentOffset > gciMaxComment {
		return false
	}
	return alnum(h.GameCode[:]) && alnum(h.Company[:])
}

func alnum(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		default:
			return false
		}
	}
	return true
}
