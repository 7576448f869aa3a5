package loader

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/geckoload/internal/format"
	"github.com/danmuck/geckoload/internal/protocol/session"
	"github.com/danmuck/geckoload/internal/sched"
	"github.com/danmuck/geckoload/internal/task"
	"github.com/danmuck/geckoload/internal/transport"
)

var (
	ErrModeConflict = errors.New("loader: loop already started")
	ErrNotStarted   = errors.New("loader: loop not started in background")
)

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time view of the loop for status reporting.
type Snapshot struct {
	State         string `json:"state"`
	Sessions      uint64 `json:"sessions"`
	Polls         uint64 `json:"polls"`
	Failures      uint64 `json:"failures"`
	LastOutcome   string `json:"last_outcome"`
	LastKind      string `json:"last_kind"`
	StopRequested bool   `json:"stop_requested"`
}

// Loop serves sessions into a single task until a bootable payload arrives
// or it is stopped. It runs either synchronously (Run) or on one background
// worker (Start/Wait), never both.
type Loop struct {
	ch    transport.Channel
	cfg   session.Config
	sched sched.Scheduler
	stop  *StopCondition
	task  *task.Task

	started    atomic.Bool
	background atomic.Bool
	done       chan struct{}
	stopped    chan struct{}
	err        error

	state       atomic.Int32
	sessions    atomic.Uint64
	polls       atomic.Uint64
	failures    atomic.Uint64
	lastOutcome atomic.Int32
	lastKind    atomic.Int32
}

func NewLoop(ch transport.Channel, cfg session.Config, s sched.Scheduler) *Loop {
	if s == nil {
		s = sched.Noop{}
	}
	return &Loop{
		ch:      ch,
		cfg:     cfg,
		sched:   s,
		stop:    NewStopCondition(),
		task:    task.New(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run serves sessions on the calling goroutine. The task is returned once the
// loop has stopped; a cancelled ctx is reported as its error.
func (l *Loop) Run(ctx context.Context) (*task.Task, error) {
	if !l.started.CompareAndSwap(false, true) {
		return nil, ErrModeConflict
	}
	err := l.serve(ctx)
	return l.task, err
}

// Start serves sessions on a background worker; Wait joins it.
func (l *Loop) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrModeConflict
	}
	l.background.Store(true)
	go func() {
		defer close(l.done)
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("loop worker panic recovered")
				l.err = fmt.Errorf("loader: loop worker panic: %v", r)
			}
		}()
		l.err = l.serve(ctx)
	}()
	return nil
}

func (l *Loop) Wait() (*task.Task, error) {
	if !l.background.Load() {
		return nil, ErrNotStarted
	}
	<-l.done
	return l.task, l.err
}

// Stop asks the loop to finish after the current session. The task is then
// handed back as is, so the dispatcher falls back if it is not bootable.
func (l *Loop) Stop() {
	l.stop.Set()
}

// StopRequested is closed once a stop has been asked for. The current session
// may still be running; use Done to wait for the loop itself.
func (l *Loop) StopRequested() <-chan struct{} {
	return l.stop.Done()
}

// Done is closed after the loop has left its session loop and reports
// StateStopped, in either mode.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

func (l *Loop) Snapshot() Snapshot {
	return Snapshot{
		State:         State(l.state.Load()).String(),
		Sessions:      l.sessions.Load(),
		Polls:         l.polls.Load(),
		Failures:      l.failures.Load(),
		LastOutcome:   session.Outcome(l.lastOutcome.Load()).String(),
		LastKind:      format.Kind(l.lastKind.Load()).String(),
		StopRequested: l.stop.IsSet(),
	}
}

func (l *Loop) serve(ctx context.Context) error {
	l.state.Store(int32(StateRunning))
	defer l.markStopped()
	log.Info().Dur("recv_timeout", l.cfg.RecvTimeout).Msg("loop running")

	h := session.NewHandler(l.ch, l.cfg, l.sched, l.stop)
	var cerr error
	l.sched.RunIdle(func() {
		for !l.stop.IsSet() {
			if err := ctx.Err(); err != nil {
				cerr = err
				l.stop.Set()
				return
			}
			res, err := h.RunOnce(l.task)
			l.record(res, err)
		}
	})

	log.Info().
		Str("kind", l.task.Kind.String()).
		Uint64("sessions", l.sessions.Load()).
		Msg("loop stopped")
	return cerr
}

// markStopped also runs when a session panics, so a stop is always recorded
// before Done fires.
func (l *Loop) markStopped() {
	l.stop.Set()
	l.state.Store(int32(StateStopped))
	close(l.stopped)
}

func (l *Loop) record(res session.Result, err error) {
	if res.Outcome == session.OutcomeIdle {
		l.polls.Add(1)
		return
	}
	l.lastOutcome.Store(int32(res.Outcome))
	l.lastKind.Store(int32(res.Kind))
	if err != nil {
		l.failures.Add(1)
	}
	l.sessions.Add(1)
}
