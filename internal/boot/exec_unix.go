//go:build unix

package boot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	stubName    = "trampoline.sh"
	payloadName = "payload.dol"
	argsName    = "args.bin"
)

// ExecTarget boots by replacing the current process with the staged
// trampoline, which in turn starts Runner on the payload file.
type ExecTarget struct {
	Dir    string
	Runner string

	hooks    []func() error
	stubPath string
	exec     func(argv0 string, argv []string, envv []string) error
}

func NewExecTarget(dir, runner string) *ExecTarget {
	return &ExecTarget{Dir: dir, Runner: runner, exec: unix.Exec}
}

// OnReset registers fn to run during Reset. Hooks run in reverse order of
// registration and all of them run even if one fails.
func (e *ExecTarget) OnReset(fn func() error) {
	e.hooks = append(e.hooks, fn)
}

func (e *ExecTarget) Stage(stub []byte) error {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return fmt.Errorf("boot: staging dir: %w", err)
	}
	path := filepath.Join(e.Dir, stubName)
	if err := os.WriteFile(path, stub, 0o755); err != nil {
		return fmt.Errorf("boot: stage trampoline: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, 0o755); err != nil {
		return fmt.Errorf("boot: stage trampoline: %w", err)
	}
	e.stubPath = path
	log.Debug().Str("path", path).Int("bytes", len(stub)).Msg("trampoline staged")
	return nil
}

// Barrier makes the staged trampoline durable before anything is torn down.
func (e *ExecTarget) Barrier() error {
	if e.stubPath == "" {
		return errors.New("boot: barrier before stage")
	}
	for _, p := range []string{e.stubPath, e.Dir} {
		if err := syncPath(p); err != nil {
			return fmt.Errorf("boot: sync %s: %w", p, err)
		}
	}
	return nil
}

func (e *ExecTarget) Reset() error {
	var errs []error
	for i := len(e.hooks) - 1; i >= 0; i-- {
		if err := e.hooks[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("boot: reset: %w", err)
	}
	return nil
}

func (e *ExecTarget) Transfer(h Handoff) error {
	if e.stubPath == "" {
		return errors.New("boot: transfer before stage")
	}
	payloadPath := filepath.Join(e.Dir, payloadName)
	argsPath := filepath.Join(e.Dir, argsName)
	if err := os.WriteFile(payloadPath, h.Payload, 0o644); err != nil {
		return fmt.Errorf("boot: write payload: %w", err)
	}
	if err := os.WriteFile(argsPath, h.Args, 0o644); err != nil {
		return fmt.Errorf("boot: write args: %w", err)
	}

	argv := []string{
		e.stubPath,
		payloadPath, strconv.Itoa(len(h.Payload)),
		argsPath, strconv.Itoa(len(h.Args)),
	}
	env := append(os.Environ(),
		"GECKOLOAD_RUNNER="+e.Runner,
		fmt.Sprintf("GECKOLOAD_ENTRY=0x%08x", h.Entry),
		fmt.Sprintf("GECKOLOAD_STACK=0x%08x", h.Stack),
	)
	log.Info().Str("trampoline", e.stubPath).Str("handoff", h.String()).Msg("transferring control")
	err := e.exec(e.stubPath, argv, env)
	return fmt.Errorf("boot: exec %s: %w", e.stubPath, err)
}

func syncPath(path string) error {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return unix.Fsync(fd)
}
