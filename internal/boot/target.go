package boot

import (
	_ "embed"
	"errors"
	"fmt"
)

const (
	// StubAddress is where the trampoline is staged and entered.
	StubAddress uint32 = 0x80001000
	// StackAddress is the initial stack for the trampoline.
	StackAddress uint32 = 0x80003000
)

var ErrUnsupported = errors.New("boot: target not supported on this platform")

// Trampoline receives the payload and argument block and starts the payload.
//
//go:embed trampoline.sh
var Trampoline []byte

// Handoff is everything Transfer passes to the trampoline.
type Handoff struct {
	Entry   uint32
	Stack   uint32
	Payload []byte
	Args    []byte
}

func (h Handoff) String() string {
	return fmt.Sprintf("entry=0x%08x stack=0x%08x payload=%d args=%d", h.Entry, h.Stack, len(h.Payload), len(h.Args))
}

// Target performs the hand-off steps in order. Transfer does not return when
// it succeeds on a real target.
type Target interface {
	Stage(stub []byte) error
	Barrier() error
	Reset() error
	Transfer(h Handoff) error
}
