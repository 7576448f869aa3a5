package loader

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"reflect"
	"testing"

	"github.com/danmuck/geckoload/internal/boot"
	"github.com/danmuck/geckoload/internal/format"
	"github.com/danmuck/geckoload/internal/task"
	"github.com/danmuck/geckoload/internal/testutil/fixtures"
	"github.com/danmuck/geckoload/internal/testutil/testlog"
	"github.com/danmuck/geckoload/internal/transport"
)

type mapReader struct {
	files map[string][]byte
	reads []string
}

func (m *mapReader) ReadFile(name string) ([]byte, error) {
	m.reads = append(m.reads, name)
	data, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func TestLoadBootsReceivedExecutable(t *testing.T) {
	testlog.Start(t)
	target := boot.NewRecordingTarget()
	files := &mapReader{}
	dol := fixtures.DOL()
	tk := task.New()
	tk.Replace(format.DOL, dol)
	tk.Args = []byte("a\x00")

	if err := NewDispatcher(target, files, "").Load(tk); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(files.reads) != 0 {
		t.Fatalf("fallback read for an executable task: %v", files.reads)
	}
	if got := target.Calls(); !reflect.DeepEqual(got, []string{"stage", "barrier", "reset", "transfer"}) {
		t.Fatalf("calls=%v", got)
	}
	if !bytes.Equal(target.Staged(), boot.Trampoline) {
		t.Fatalf("trampoline not staged")
	}
	h, _ := target.Handoff()
	if h.Entry != boot.StubAddress || h.Stack != boot.StackAddress || !bytes.Equal(h.Payload, dol) || string(h.Args) != "a\x00" {
		t.Fatalf("handoff=%s", h)
	}
}

// The loop is stopped with an image in the task; the dispatcher boots the
// fallback file with the image's arguments.
func TestLoadFallsBackAfterExternalStop(t *testing.T) {
	testlog.Start(t)
	ch := transport.NewMemChannel(sessionBytes(t, fixtures.TPL(2), []byte("keep\x00")))
	l := NewLoop(ch, fastConfig(), nil)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitSessions(t, l, 1)
	l.Stop()
	tk, err := l.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if tk.Kind != format.TPL {
		t.Fatalf("kind=%v", tk.Kind)
	}

	autoexec := fixtures.DOL()
	files := &mapReader{files: map[string][]byte{FallbackPath: autoexec}}
	target := boot.NewRecordingTarget()
	if err := NewDispatcher(target, files, "").Load(tk); err != nil {
		t.Fatalf("load: %v", err)
	}
	h, ok := target.Handoff()
	if !ok || !bytes.Equal(h.Payload, autoexec) || string(h.Args) != "keep\x00" {
		t.Fatalf("handoff=%s ok=%v", h, ok)
	}
	if tk.Kind != format.DOL {
		t.Fatalf("task kind after fallback=%v", tk.Kind)
	}
}

func TestLoadWithoutFallbackFails(t *testing.T) {
	testlog.Start(t)
	target := boot.NewRecordingTarget()
	err := NewDispatcher(target, &mapReader{}, "/missing.dol").Load(task.New())
	if !errors.Is(err, ErrNoBootablePayload) || !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNoBootablePayload, got %v", err)
	}
	if len(target.Calls()) != 0 {
		t.Fatalf("target touched: %v", target.Calls())
	}
}

func TestLoadBootsUnrecognizedFallbackAnyway(t *testing.T) {
	testlog.Start(t)
	junk := []byte("not an executable")
	target := boot.NewRecordingTarget()
	files := &mapReader{files: map[string][]byte{"/x.dol": junk}}
	if err := NewDispatcher(target, files, "/x.dol").Load(task.New()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if h, _ := target.Handoff(); !bytes.Equal(h.Payload, junk) {
		t.Fatalf("payload=%q", h.Payload)
	}
}

func TestLoadStopsAtFailingStep(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("flush failed")
	target := boot.NewRecordingTarget()
	target.Fail["barrier"] = boom
	tk := task.New()
	tk.Replace(format.DOL, fixtures.DOL())

	err := NewDispatcher(target, nil, "").Load(tk)
	if !errors.Is(err, boom) {
		t.Fatalf("expected barrier error, got %v", err)
	}
	if got := target.Calls(); !reflect.DeepEqual(got, []string{"stage", "barrier"}) {
		t.Fatalf("calls=%v", got)
	}
}

func TestServiceConfigValidate(t *testing.T) {
	testlog.Start(t)
	if err := DefaultServiceConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	cases := map[string]func(*ServiceConfig){
		"listen":   func(c *ServiceConfig) { c.ListenAddr = " " },
		"timeout":  func(c *ServiceConfig) { c.Session.RecvTimeout = 0 },
		"chunk":    func(c *ServiceConfig) { c.Session.ChunkSize = 8192 },
		"mode":     func(c *ServiceConfig) { c.Mode = "turbo" },
		"fallback": func(c *ServiceConfig) { c.FallbackPath = "" },
		"staging":  func(c *ServiceConfig) { c.StagingDir = "" },
		"no limit": func(c *ServiceConfig) { c.Session.Limits.MaxInflateBytes = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultServiceConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
