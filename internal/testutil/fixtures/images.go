// Package fixtures builds minimal payload images that pass the loader's
// structural checks. It deliberately does not import the format package so
// that package's own tests can stay independent of it.
package fixtures

import "encoding/binary"

// DOL returns an executable with one text and one data segment, entry at
// 0x80003100.
func DOL() []byte {
	buf := make([]byte, 0x100+0x200)
	put := func(word int, v uint32) { binary.BigEndian.PutUint32(buf[word*4:], v) }
	put(0, 0x100)
	put(7, 0x200)
	put(18, 0x80003100)
	put(25, 0x80004000)
	put(36, 0x100)
	put(43, 0x100)
	put(54, 0x80005000)
	put(55, 0x2000)
	put(56, 0x80003100)
	for i := 0x100; i < len(buf); i++ {
		buf[i] = byte(i)
	}
	return buf
}

// TPL returns a texture palette header announcing count images.
func TPL(count uint32) []byte {
	buf := make([]byte, 64)
	binary.BigEndian.PutUint32(buf[0:4], 2142000)
	binary.BigEndian.PutUint32(buf[4:8], count)
	binary.BigEndian.PutUint32(buf[8:12], 12)
	return buf
}

// GCI returns a memory-card save of the given block count.
func GCI(blocks uint16) []byte {
	buf := make([]byte, 64+int(blocks)*8192)
	copy(buf[0:4], "GALE")
	copy(buf[4:6], "01")
	buf[6] = 0xFF
	copy(buf[8:40], "memcard-save")
	binary.BigEndian.PutUint32(buf[44:48], 0xFFFFFFFF)
	binary.BigEndian.PutUint16(buf[56:58], blocks)
	binary.BigEndian.PutUint16(buf[58:60], 0xFFFF)
	binary.BigEndian.PutUint32(buf[60:64], 0x40)
	return buf
}
