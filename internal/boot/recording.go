package boot

import "sync"

// RecordingTarget records the hand-off instead of performing it. A step named
// in Fail returns that error.
type RecordingTarget struct {
	mu      sync.Mutex
	calls   []string
	staged  []byte
	handoff *Handoff
	Fail    map[string]error
}

func NewRecordingTarget() *RecordingTarget {
	return &RecordingTarget{Fail: map[string]error{}}
}

func (r *RecordingTarget) Stage(stub []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staged = append([]byte(nil), stub...)
	return r.step("stage")
}

func (r *RecordingTarget) Barrier() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step("barrier")
}

func (r *RecordingTarget) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.step("reset")
}

func (r *RecordingTarget) Transfer(h Handoff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handoff = &h
	return r.step("transfer")
}

// Calls returns the steps performed so far, in order.
func (r *RecordingTarget) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *RecordingTarget) Staged() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.staged
}

// Handoff returns the last Transfer argument, or false if Transfer never ran.
func (r *RecordingTarget) Handoff() (Handoff, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handoff == nil {
		return Handoff{}, false
	}
	return *r.handoff, true
}

func (r *RecordingTarget) step(name string) error {
	r.calls = append(r.calls, name)
	return r.Fail[name]
}
