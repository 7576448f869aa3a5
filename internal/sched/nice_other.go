//go:build !linux

package sched

type ThreadNice struct {
	Idle   int
	Normal int
}

func DefaultThreadNice() ThreadNice {
	return ThreadNice{Idle: 19, Normal: 0}
}

func (s ThreadNice) RunIdle(fn func())     { fn() }
func (s ThreadNice) RunElevated(fn func()) { fn() }
