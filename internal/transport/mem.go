package transport

import (
	"sync"
	"time"
)

// MemChannel is an in-process Channel. Each pushed segment is the byte stream
// of one session; Flush discards whatever the current segment has left.
type MemChannel struct {
	mu      sync.Mutex
	queue   [][]byte
	cur     []byte
	active  bool
	closed  bool
	flushes int
	notify  chan struct{}
}

func NewMemChannel(segments ...[]byte) *MemChannel {
	m := &MemChannel{notify: make(chan struct{}, 1)}
	for _, seg := range segments {
		m.Push(seg)
	}
	return m
}

// Push queues the bytes of one more session.
func (m *MemChannel) Push(seg []byte) {
	buf := make([]byte, len(seg))
	copy(buf, seg)
	m.mu.Lock()
	m.queue = append(m.queue, buf)
	m.mu.Unlock()
	m.wake()
}

func (m *MemChannel) Recv(dst []byte, timeout time.Duration) (int, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	n := 0
	for n < len(dst) {
		m.mu.Lock()
		if !m.active && len(m.queue) > 0 {
			m.cur, m.queue = m.queue[0], m.queue[1:]
			m.active = true
		}
		if len(m.cur) > 0 {
			c := copy(dst[n:], m.cur)
			m.cur = m.cur[c:]
			n += c
			m.mu.Unlock()
			continue
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return n, ErrClosed
		}
		if err := m.wait(deadline); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (m *MemChannel) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = nil
	m.active = false
	m.flushes++
	return nil
}

func (m *MemChannel) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
	return nil
}

// Flushes reports how many times Flush ran.
func (m *MemChannel) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Pending reports queued sessions not yet started.
func (m *MemChannel) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *MemChannel) wake() {
	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *MemChannel) wait(deadline time.Time) error {
	if deadline.IsZero() {
		<-m.notify
		return nil
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return ErrTimeout
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-m.notify:
		return nil
	case <-timer.C:
		return ErrTimeout
	}
}
