// Package inflate decompresses a size-bounded zlib stream straight off a
// transport channel into a size-bounded buffer.
package inflate

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zlib"

	"github.com/danmuck/geckoload/internal/protocol"
	"github.com/danmuck/geckoload/internal/transport"
)

type Options struct {
	Timeout   time.Duration
	ChunkSize int
	// Progress observes the cumulative decompressed byte count.
	Progress func(produced int)
}

// Result is a completed decompression. Buf always has the declared output
// length; Produced may be smaller when the stream ended early.
type Result struct {
	Buf      []byte
	Produced int
	Consumed int
}

// Inflate consumes exactly insize compressed bytes from ch and decompresses
// them into a fresh buffer of outsize bytes.
//
// A stream that ends before filling the buffer, or input that runs out before
// the codec reports end-of-stream, is accepted as complete. Receive errors,
// codec errors and output past outsize fail and discard the buffer.
func Inflate(ch transport.Channel, insize, outsize int, opts Options) (Result, error) {
	if insize < 0 || outsize < 0 {
		return Result{}, fmt.Errorf("%w: negative size", protocol.ErrTruncated)
	}
	chunk := opts.ChunkSize
	if chunk <= 0 || chunk > protocol.ChunkSize {
		chunk = protocol.ChunkSize
	}
	progress := opts.Progress
	if progress == nil {
		progress = func(int) {}
	}

	src := &budgetReader{ch: ch, remaining: insize, chunk: chunk, timeout: opts.Timeout}
	buf := make([]byte, outsize)
	progress(0)

	zr, err := zlib.NewReader(src)
	if err != nil {
		if ferr := src.classify(err); ferr != nil {
			return Result{}, ferr
		}
		return Result{Buf: buf, Consumed: src.consumed}, nil
	}
	defer zr.Close()

	produced := 0
	ended := false
	for produced < outsize {
		n, rerr := zr.Read(buf[produced:])
		produced += n
		if n > 0 {
			progress(produced)
		}
		if rerr == nil {
			continue
		}
		if rerr == io.EOF {
			ended = true
			break
		}
		if ferr := src.classify(rerr); ferr != nil {
			return Result{}, ferr
		}
		ended = true
		break
	}

	if !ended {
		var extra [1]byte
		n, rerr := zr.Read(extra[:])
		if n > 0 {
			return Result{}, fmt.Errorf("%w: declared %d bytes", protocol.ErrOutputOverflow, outsize)
		}
		if rerr != nil && rerr != io.EOF {
			if ferr := src.classify(rerr); ferr != nil {
				return Result{}, ferr
			}
		}
	}

	if err := src.drain(); err != nil {
		return Result{}, err
	}
	return Result{Buf: buf, Produced: produced, Consumed: src.consumed}, nil
}

// budgetReader hands the codec at most remaining bytes, chunk bytes per receive.
type budgetReader struct {
	ch        transport.Channel
	remaining int
	consumed  int
	chunk     int
	timeout   time.Duration
	err       error
}

func (b *budgetReader) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.remaining == 0 {
		return 0, io.EOF
	}
	n := min(len(p), b.remaining, b.chunk)
	got, err := b.ch.Recv(p[:n], b.timeout)
	b.remaining -= got
	b.consumed += got
	if err != nil {
		b.err = err
		return got, err
	}
	return got, nil
}

func (b *budgetReader) drain() error {
	var scratch [protocol.ChunkSize]byte
	for b.remaining > 0 {
		if _, err := b.Read(scratch[:]); err != nil {
			return fmt.Errorf("inflate: drain after %d bytes: %w", b.consumed, err)
		}
	}
	return nil
}

// classify returns nil when err is the codec noticing the input budget ran out.
func (b *budgetReader) classify(err error) error {
	if b.err != nil {
		return fmt.Errorf("inflate: receive after %d bytes: %w", b.consumed, b.err)
	}
	if b.remaining == 0 && (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) {
		return nil
	}
	return fmt.Errorf("%w: %v", protocol.ErrDecompress, err)
}
