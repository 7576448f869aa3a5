package session

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/danmuck/geckoload/internal/protocol/frame"
)

// Encode builds the complete byte stream of one session.
func Encode(payload, args []byte, level int) ([]byte, error) {
	var z bytes.Buffer
	zw, err := zlib.NewWriterLevel(&z, level)
	if err != nil {
		return nil, fmt.Errorf("session: zlib level %d: %w", level, err)
	}
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("session: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("session: compress: %w", err)
	}

	hdr := frame.EncodeHeader(frame.NewHeader(z.Len(), len(payload), len(args)))
	out := make([]byte, 0, len(hdr)+z.Len()+len(args))
	out = append(out, hdr...)
	out = append(out, z.Bytes()...)
	out = append(out, args...)
	return out, nil
}

// Send writes one session to w.
func Send(w io.Writer, payload, args []byte, level int) (int, error) {
	stream, err := Encode(payload, args, level)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(stream)
	if err != nil {
		return n, fmt.Errorf("session: send: %w", err)
	}
	return n, nil
}

// JoinArgs packs argv the way the loader hands it to the program: every
// argument NUL-terminated, back to back.
func JoinArgs(argv []string) []byte {
	var b bytes.Buffer
	for _, a := range argv {
		b.WriteString(a)
		b.WriteByte(0)
	}
	return b.Bytes()
}
