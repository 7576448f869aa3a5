//go:build linux

package sched

import (
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// ThreadNice maps idle and normal priority onto per-thread nice values. The
// calling goroutine stays pinned to its OS thread while a bracket is open.
type ThreadNice struct {
	Idle   int
	Normal int
}

func DefaultThreadNice() ThreadNice {
	return ThreadNice{Idle: 19, Normal: 0}
}

// Without the privilege to climb back from Idle to Normal, lowering priority
// would stick to the thread and everything it later execs, so both brackets
// degrade to plain calls.
func (s ThreadNice) RunIdle(fn func()) {
	if !canRaise(s.Idle, s.Normal) {
		fn()
		return
	}
	withNice(s.Idle, fn)
}

func (s ThreadNice) RunElevated(fn func()) {
	if !canRaise(s.Idle, s.Normal) {
		fn()
		return
	}
	withNice(s.Normal, fn)
}

type nicePair struct{ from, to int }

var (
	raiseMu    sync.Mutex
	raiseCache = map[nicePair]bool{}
)

// canRaise reports whether a thread at nice from may return to nice to. The
// answer is learned once per pair by trying it on a throwaway thread.
func canRaise(from, to int) bool {
	if to >= from {
		return true
	}
	key := nicePair{from, to}
	raiseMu.Lock()
	defer raiseMu.Unlock()
	if ok, seen := raiseCache[key]; seen {
		return ok
	}
	ok := trialRaise(from, to)
	if !ok {
		log.Debug().Int("from", from).Int("to", to).Msg("sched: cannot raise priority, nice hints disabled")
	}
	raiseCache[key] = ok
	return ok
}

// trialRaise runs on its own locked thread. The goroutine exits without
// unlocking, so the runtime discards the thread whatever nice it was left at.
func trialRaise(from, to int) bool {
	res := make(chan bool, 1)
	go func() {
		runtime.LockOSThread()
		tid := unix.Gettid()
		if err := unix.Setpriority(unix.PRIO_PROCESS, tid, from); err != nil {
			res <- false
			return
		}
		res <- unix.Setpriority(unix.PRIO_PROCESS, tid, to) == nil
	}()
	return <-res
}

// A thread whose priority cannot be restored stays locked, so the runtime
// retires it together with its goroutine instead of reusing it.
func withNice(nice int, fn func()) {
	runtime.LockOSThread()
	tainted := false
	defer func() {
		if !tainted {
			runtime.UnlockOSThread()
		}
	}()

	tid := unix.Gettid()
	raw, err := unix.Getpriority(unix.PRIO_PROCESS, tid)
	if err != nil {
		log.Debug().Err(err).Msg("sched: read thread priority")
		fn()
		return
	}
	// The raw syscall reports 20-nice.
	prev := 20 - raw
	if prev == nice {
		fn()
		return
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, nice); err != nil {
		log.Debug().Err(err).Int("nice", nice).Msg("sched: priority change denied")
		fn()
		return
	}
	defer func() {
		if err := unix.Setpriority(unix.PRIO_PROCESS, tid, prev); err != nil {
			log.Debug().Err(err).Int("nice", prev).Msg("sched: restore priority")
			tainted = true
		}
	}()
	fn()
}
