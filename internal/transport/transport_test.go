package transport

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/geckoload/internal/testutil/testlog"
)

func TestMemChannelSegmentsAndFlush(t *testing.T) {
	testlog.Start(t)
	ch := NewMemChannel([]byte("abcdef"), []byte("xyz"))

	buf := make([]byte, 3)
	if _, err := ch.Recv(buf, 10*time.Millisecond); err != nil || string(buf) != "abc" {
		t.Fatalf("first recv: %q err=%v", buf, err)
	}
	if err := ch.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, err := ch.Recv(buf, 10*time.Millisecond); err != nil || string(buf) != "xyz" {
		t.Fatalf("after flush want next segment, got %q err=%v", buf, err)
	}
	if ch.Flushes() != 1 {
		t.Fatalf("flushes=%d", ch.Flushes())
	}
}

func TestMemChannelShortReadTimesOut(t *testing.T) {
	testlog.Start(t)
	ch := NewMemChannel([]byte{1, 2})

	buf := make([]byte, 4)
	n, err := ch.Recv(buf, 5*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if n != 2 {
		t.Fatalf("expected partial count 2, got %d", n)
	}
}

func TestMemChannelPushWakesWaiter(t *testing.T) {
	testlog.Start(t)
	ch := NewMemChannel()
	go func() {
		time.Sleep(5 * time.Millisecond)
		ch.Push([]byte("late"))
	}()
	buf := make([]byte, 4)
	if _, err := ch.Recv(buf, time.Second); err != nil || string(buf) != "late" {
		t.Fatalf("recv: %q err=%v", buf, err)
	}
}

func TestMemChannelClosed(t *testing.T) {
	testlog.Start(t)
	ch := NewMemChannel()
	_ = ch.Close()
	if _, err := ch.Recv(make([]byte, 1), time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestTCPChannelOneConnectionPerSession(t *testing.T) {
	testlog.Start(t)
	ch, err := ListenTCP("127.0.0.1:0", DefaultBackoff())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ch.Close()

	if _, err := ch.Recv(make([]byte, 1), 5*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected accept timeout, got %v", err)
	}

	send := func(payload []byte) {
		conn, err := net.Dial("tcp", ch.Addr().String())
		if err != nil {
			t.Errorf("dial: %v", err)
			return
		}
		defer conn.Close()
		_, _ = conn.Write(payload)
	}

	send([]byte("hello"))
	buf := make([]byte, 5)
	if _, err := ch.Recv(buf, time.Second); err != nil || !bytes.Equal(buf, []byte("hello")) {
		t.Fatalf("recv: %q err=%v", buf, err)
	}
	if _, err := ch.Recv(make([]byte, 1), time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after peer hangup, got %v", err)
	}
	if err := ch.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	send([]byte("again"))
	if _, err := ch.Recv(buf, time.Second); err != nil || string(buf) != "again" {
		t.Fatalf("second session recv: %q err=%v", buf, err)
	}
	_ = ch.Flush()
}

func TestNextBackoffDelayNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: 50 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 50 * time.Millisecond},
		{2, 100 * time.Millisecond},
		{3, 200 * time.Millisecond},
		{4, 300 * time.Millisecond},
		{9, 300 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := NextBackoffDelay(cfg, tc.attempt, nil); got != tc.want {
			t.Fatalf("attempt %d: got=%v want=%v", tc.attempt, got, tc.want)
		}
	}
	if got := NextBackoffDelay(BackoffConfig{}, 3, nil); got != 0 {
		t.Fatalf("zero config should not delay, got %v", got)
	}
}
