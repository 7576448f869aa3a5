package loader

import (
	"sync"
	"sync/atomic"
)

// StopCondition is a one-way flag. Setting it more than once is harmless.
type StopCondition struct {
	once sync.Once
	set  atomic.Bool
	done chan struct{}
}

func NewStopCondition() *StopCondition {
	return &StopCondition{done: make(chan struct{})}
}

func (s *StopCondition) Set() {
	s.once.Do(func() {
		s.set.Store(true)
		close(s.done)
	})
}

func (s *StopCondition) IsSet() bool {
	return s.set.Load()
}

// Done is closed once the condition is set.
func (s *StopCondition) Done() <-chan struct{} {
	return s.done
}
