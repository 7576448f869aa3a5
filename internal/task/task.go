// Package task holds the single record a loader session produces.
//
// A Task has exactly one owner at a time: the session handler while the
// listening loop runs, the dispatcher once the loop has stopped. It carries no
// lock; ownership moves with the loop's stop transition.
package task

import "github.com/danmuck/geckoload/internal/format"

type Task struct {
	Kind format.Kind
	// Payload is sized to the declared inflate length of the last session.
	Payload []byte
	// WriteCursor counts bytes produced so far by the decompressor.
	WriteCursor int
	Args        []byte
}

func New() *Task {
	return &Task{}
}

func (t *Task) Len() int {
	return len(t.Payload)
}

// DropPayload releases the payload after a failed transfer.
func (t *Task) DropPayload() {
	t.Kind = format.None
	t.Payload = nil
	t.WriteCursor = 0
}

// DropArgs releases the argument block after a failed transfer.
func (t *Task) DropArgs() {
	t.Kind = format.None
	t.Args = nil
}

// Replace installs a completely received payload, as the fallback reader does.
func (t *Task) Replace(kind format.Kind, payload []byte) {
	t.Kind = kind
	t.Payload = payload
	t.WriteCursor = len(payload)
}
