package protocol

const (
	// Magic is "HAXX" read as a big-endian word.
	Magic uint32 = 0x48415858
	// Version is the only handshake version accepted.
	Version uint32 = 5
	// HeaderSize is the fixed handshake length on the wire.
	HeaderSize = 20
	// ChunkSize bounds a single compressed receive.
	ChunkSize = 4096
)
