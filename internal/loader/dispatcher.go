package loader

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/geckoload/internal/boot"
	"github.com/danmuck/geckoload/internal/format"
	"github.com/danmuck/geckoload/internal/task"
)

// FallbackPath is booted when the loop stops without an executable.
const FallbackPath = "/AUTOEXEC.DOL"

var ErrNoBootablePayload = errors.New("loader: no bootable payload")

// FileReader supplies the fallback executable.
type FileReader interface {
	ReadFile(name string) ([]byte, error)
}

// OSReader reads from the local filesystem.
type OSReader struct{}

func (OSReader) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// Dispatcher boots a stopped loop's task.
type Dispatcher struct {
	target   boot.Target
	files    FileReader
	fallback string
}

func NewDispatcher(target boot.Target, files FileReader, fallback string) *Dispatcher {
	if files == nil {
		files = OSReader{}
	}
	if fallback == "" {
		fallback = FallbackPath
	}
	return &Dispatcher{target: target, files: files, fallback: fallback}
}

// Load hands t to the boot target, substituting the fallback file when t does
// not hold an executable. The fallback is taken as is; its arguments are
// whatever the last session left. On a real target a successful Load never
// returns.
func (d *Dispatcher) Load(t *task.Task) error {
	if t.Kind != format.DOL {
		buf, err := d.files.ReadFile(d.fallback)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrNoBootablePayload, d.fallback, err)
		}
		if !format.IsDOL(buf) {
			log.Warn().Str("path", d.fallback).Str("detected", format.Classify(buf).String()).
				Msg("fallback does not look like an executable, booting anyway")
		}
		log.Info().Str("path", d.fallback).Int("bytes", len(buf)).Msg("booting fallback")
		t.Replace(format.DOL, buf)
	}

	h := boot.Handoff{
		Entry:   boot.StubAddress,
		Stack:   boot.StackAddress,
		Payload: t.Payload,
		Args:    t.Args,
	}
	if err := d.target.Stage(boot.Trampoline); err != nil {
		return fmt.Errorf("loader: stage: %w", err)
	}
	if err := d.target.Barrier(); err != nil {
		return fmt.Errorf("loader: barrier: %w", err)
	}
	if err := d.target.Reset(); err != nil {
		return fmt.Errorf("loader: reset: %w", err)
	}
	log.Info().Str("handoff", h.String()).Msg("handing off")
	if err := d.target.Transfer(h); err != nil {
		return fmt.Errorf("loader: transfer: %w", err)
	}
	return nil
}
