// Package sched provides the priority hint wrapped around a loader handshake.
package sched

// Scheduler brackets the listening actor's priority. RunIdle wraps the whole
// loop; RunElevated wraps one validated session inside it. Both restore the
// previous priority on every path.
type Scheduler interface {
	RunIdle(fn func())
	RunElevated(fn func())
}

// Noop ignores priority.
type Noop struct{}

func (Noop) RunIdle(fn func())     { fn() }
func (Noop) RunElevated(fn func()) { fn() }
