package transport

import (
	"errors"
	"time"
)

var (
	ErrTimeout = errors.New("transport: receive timed out")
	ErrClosed  = errors.New("transport: channel closed")
)

// Channel is the transport primitive a session is driven over.
//
// Recv fills dst completely or fails; on failure n reports how many bytes
// arrived before the error. A timeout <= 0 waits without deadline.
type Channel interface {
	Recv(dst []byte, timeout time.Duration) (n int, err error)
	Flush() error
}
