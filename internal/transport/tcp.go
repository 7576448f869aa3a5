package transport

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TCPChannel serves one accepted connection per session. The connection is
// accepted lazily by the first Recv of a session and dropped by Flush.
type TCPChannel struct {
	ln      *net.TCPListener
	backoff BackoffConfig
	rng     *rand.Rand

	mu       sync.Mutex
	conn     net.Conn
	failures int
	closed   bool
}

func ListenTCP(addr string, backoff BackoffConfig) (*TCPChannel, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &TCPChannel{
		ln:      ln,
		backoff: backoff,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (c *TCPChannel) Addr() net.Addr {
	return c.ln.Addr()
}

func (c *TCPChannel) Recv(dst []byte, timeout time.Duration) (int, error) {
	conn, err := c.current(timeout)
	if err != nil {
		return 0, err
	}
	if timeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(timeout))
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}
	n, err := io.ReadFull(conn, dst)
	if err != nil {
		return n, mapReadErr(err)
	}
	return n, nil
}

// Flush drops the session connection so stray bytes cannot reach the next handshake.
func (c *TCPChannel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *TCPChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return c.ln.Close()
}

func (c *TCPChannel) current(timeout time.Duration) (net.Conn, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.conn != nil {
		conn := c.conn
		c.mu.Unlock()
		return conn, nil
	}
	c.mu.Unlock()

	if timeout > 0 {
		_ = c.ln.SetDeadline(time.Now().Add(timeout))
	} else {
		_ = c.ln.SetDeadline(time.Time{})
	}
	conn, err := c.ln.Accept()
	if err != nil {
		return nil, c.acceptFailed(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	if c.closed {
		_ = conn.Close()
		return nil, ErrClosed
	}
	c.conn = conn
	log.Debug().Str("peer", conn.RemoteAddr().String()).Msg("transport: session connection accepted")
	return conn, nil
}

func (c *TCPChannel) acceptFailed(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: accept", ErrTimeout)
	}
	if errors.Is(err, net.ErrClosed) {
		return ErrClosed
	}
	c.mu.Lock()
	c.failures++
	attempt := c.failures
	c.mu.Unlock()
	delay := NextBackoffDelay(c.backoff, attempt, c.rng)
	log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("transport: accept failed")
	time.Sleep(delay)
	return fmt.Errorf("transport: accept: %w", err)
}

func mapReadErr(err error) error {
	switch {
	case isTimeout(err):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %v", ErrClosed, err)
	default:
		return err
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
