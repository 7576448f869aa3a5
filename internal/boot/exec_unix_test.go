//go:build unix

package boot

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/danmuck/geckoload/internal/testutil/testlog"
)

var errExecStub = errors.New("exec stub")

func TestExecTargetHandoff(t *testing.T) {
	testlog.Start(t)
	dir := filepath.Join(t.TempDir(), "stage")
	e := NewExecTarget(dir, "dolphin-emu --batch")

	var order []string
	e.OnReset(func() error { order = append(order, "transport"); return nil })
	e.OnReset(func() error { order = append(order, "status"); return nil })

	var gotArgv, gotEnv []string
	e.exec = func(argv0 string, argv []string, envv []string) error {
		gotArgv, gotEnv = argv, envv
		return errExecStub
	}

	if err := e.Stage(Trampoline); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := e.Barrier(); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	if err := e.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	h := Handoff{Entry: StubAddress, Stack: StackAddress, Payload: []byte("payload"), Args: []byte("x\x00")}
	err := e.Transfer(h)
	if !errors.Is(err, errExecStub) {
		t.Fatalf("expected exec error to surface, got %v", err)
	}

	if !reflect.DeepEqual(order, []string{"status", "transport"}) {
		t.Fatalf("reset order=%v", order)
	}
	info, err := os.Stat(filepath.Join(dir, stubName))
	if err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Fatalf("trampoline not staged executable: %v", err)
	}
	want := []string{
		filepath.Join(dir, stubName),
		filepath.Join(dir, payloadName), "7",
		filepath.Join(dir, argsName), "2",
	}
	if !reflect.DeepEqual(gotArgv, want) {
		t.Fatalf("argv=%v want=%v", gotArgv, want)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, payloadName)); !bytes.Equal(data, h.Payload) {
		t.Fatalf("payload file=%q", data)
	}
	joined := strings.Join(gotEnv, "\n")
	for _, kv := range []string{"GECKOLOAD_RUNNER=dolphin-emu --batch", "GECKOLOAD_ENTRY=0x80001000", "GECKOLOAD_STACK=0x80003000"} {
		if !strings.Contains(joined, kv) {
			t.Fatalf("env missing %s", kv)
		}
	}
}

func TestExecTargetResetRunsEveryHook(t *testing.T) {
	testlog.Start(t)
	e := NewExecTarget(t.TempDir(), "true")
	first := errors.New("close transport")
	ran := 0
	e.OnReset(func() error { ran++; return first })
	e.OnReset(func() error { ran++; return nil })

	if err := e.Reset(); !errors.Is(err, first) {
		t.Fatalf("expected hook error, got %v", err)
	}
	if ran != 2 {
		t.Fatalf("ran=%d hooks", ran)
	}
}

func TestExecTargetRequiresStage(t *testing.T) {
	testlog.Start(t)
	e := NewExecTarget(t.TempDir(), "true")
	if err := e.Barrier(); err == nil {
		t.Fatalf("barrier before stage should fail")
	}
	if err := e.Transfer(Handoff{}); err == nil {
		t.Fatalf("transfer before stage should fail")
	}
}

func TestTrampolineRunsRunner(t *testing.T) {
	testlog.Start(t)
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}
	dir := t.TempDir()
	stub := filepath.Join(dir, stubName)
	payload := filepath.Join(dir, payloadName)
	args := filepath.Join(dir, argsName)
	for path, data := range map[string][]byte{stub: Trampoline, payload: []byte("abcd"), args: {}} {
		if err := os.WriteFile(path, data, 0o755); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	cmd := exec.Command("sh", stub, payload, "4", args, "0")
	cmd.Env = append(os.Environ(), "GECKOLOAD_RUNNER=echo ran")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("trampoline: %v: %s", err, out)
	}
	if got := strings.TrimSpace(string(out)); got != "ran "+payload+" "+args {
		t.Fatalf("output=%q", got)
	}

	cmd = exec.Command("sh", stub, payload, "5", args, "0")
	cmd.Env = append(os.Environ(), "GECKOLOAD_RUNNER=echo ran")
	if err := cmd.Run(); err == nil {
		t.Fatalf("length mismatch should fail")
	}
}
