package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/geckoload/internal/loader"
	"github.com/danmuck/geckoload/internal/testutil/fixtures"
	"github.com/danmuck/geckoload/internal/testutil/testlog"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestClassifyCommand(t *testing.T) {
	testlog.Start(t)
	dol := writeFile(t, "boot.dol", fixtures.DOL())
	tpl := writeFile(t, "art.tpl", fixtures.TPL(2))

	out, err := runCmd(t, "classify", dol, tpl)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "dol entry=0x80003100") || !strings.Contains(lines[1], "tpl images=2") {
		t.Fatalf("output=%q", out)
	}
}

func TestClassifyMissingFile(t *testing.T) {
	testlog.Start(t)
	if _, err := runCmd(t, "classify", filepath.Join(t.TempDir(), "none")); err == nil {
		t.Fatalf("expected read error")
	}
}

func testServeConfig(t *testing.T) loader.ServiceConfig {
	cfg := loader.DefaultServiceConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.Session.RecvTimeout = 20 * time.Millisecond
	cfg.ElevatePriority = false
	cfg.StagingDir = t.TempDir()
	return cfg
}

// A payload sent with the send command is received by serve, which stops
// and prints the dry-run hand-off.
func TestSendToServeDryRun(t *testing.T) {
	testlog.Start(t)
	payload := writeFile(t, "game.dol", fixtures.DOL())

	addrs := make(chan net.Addr, 1)
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- runServe(context.Background(), serveOptions{
			cfg:    testServeConfig(t),
			dryRun: true,
			out:    &out,
			ready:  func(a net.Addr) { addrs <- a },
		})
	}()

	addr := <-addrs
	sent, err := runCmd(t, "send", "--addr", addr.String(), payload, "fast")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(sent, "sent "+payload) {
		t.Fatalf("send output=%q", sent)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after an executable arrived")
	}
	// argv is "game.dol" and "fast", NUL-terminated
	want := "entry=0x80001000 stack=0x80003000 payload=768 args=14"
	if !strings.Contains(out.String(), want) {
		t.Fatalf("dry-run output=%q want %q", out.String(), want)
	}
}

func TestServeCancelledDoesNotBoot(t *testing.T) {
	testlog.Start(t)
	cfg := testServeConfig(t)
	cfg.Mode = loader.ModeBackground
	cfg.FallbackPath = writeFile(t, "AUTOEXEC.DOL", fixtures.DOL())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out bytes.Buffer
	err := runServe(ctx, serveOptions{
		cfg:    cfg,
		dryRun: true,
		out:    &out,
		ready: func(net.Addr) {
			cancel()
		},
	})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("cancelled serve must not boot, output=%q", out.String())
	}
}

func TestServeRejectsBadListenAddr(t *testing.T) {
	testlog.Start(t)
	cfg := testServeConfig(t)
	cfg.ListenAddr = "256.0.0.1:99999"
	if err := runServe(context.Background(), serveOptions{cfg: cfg, dryRun: true, out: &bytes.Buffer{}}); err == nil {
		t.Fatalf("expected listen error")
	}
}
