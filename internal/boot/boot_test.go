package boot

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/geckoload/internal/testutil/testlog"
)

func TestTrampolineIsEmbedded(t *testing.T) {
	testlog.Start(t)
	if !bytes.HasPrefix(Trampoline, []byte("#!/bin/sh\n")) {
		t.Fatalf("trampoline missing shebang: %q", Trampoline[:min(len(Trampoline), 16)])
	}
}

func TestRecordingTargetRecordsOrder(t *testing.T) {
	testlog.Start(t)
	r := NewRecordingTarget()
	h := Handoff{Entry: StubAddress, Stack: StackAddress, Payload: []byte{1, 2}, Args: []byte("a\x00")}

	if err := r.Stage(Trampoline); err != nil {
		t.Fatalf("stage: %v", err)
	}
	_ = r.Barrier()
	_ = r.Reset()
	if err := r.Transfer(h); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got, want := r.Calls(), []string{"stage", "barrier", "reset", "transfer"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("calls=%v want=%v", got, want)
	}
	if !bytes.Equal(r.Staged(), Trampoline) {
		t.Fatalf("staged stub mismatch")
	}
	got, ok := r.Handoff()
	if !ok || !reflect.DeepEqual(got, h) {
		t.Fatalf("handoff=%+v ok=%v", got, ok)
	}
}

func TestRecordingTargetInjectsFailure(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("boom")
	r := NewRecordingTarget()
	r.Fail["barrier"] = boom
	if err := r.Barrier(); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if _, ok := r.Handoff(); ok {
		t.Fatalf("handoff recorded without transfer")
	}
}

func TestHandoffString(t *testing.T) {
	testlog.Start(t)
	h := Handoff{Entry: StubAddress, Stack: StackAddress, Payload: make([]byte, 3)}
	if got := h.String(); got != "entry=0x80001000 stack=0x80003000 payload=3 args=0" {
		t.Fatalf("got %q", got)
	}
}
