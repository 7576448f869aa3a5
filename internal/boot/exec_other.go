//go:build !unix

package boot

// ExecTarget is only available on unix; every step fails elsewhere.
type ExecTarget struct {
	Dir    string
	Runner string
}

func NewExecTarget(dir, runner string) *ExecTarget {
	return &ExecTarget{Dir: dir, Runner: runner}
}

func (e *ExecTarget) OnReset(func() error) {}

func (e *ExecTarget) Stage([]byte) error     { return ErrUnsupported }
func (e *ExecTarget) Barrier() error         { return ErrUnsupported }
func (e *ExecTarget) Reset() error           { return ErrUnsupported }
func (e *ExecTarget) Transfer(Handoff) error { return ErrUnsupported }
