package session

import (
	"github.com/danmuck/geckoload/internal/format"
	"github.com/danmuck/geckoload/internal/protocol/frame"
)

// Outcome is how far a session got.
type Outcome int

const (
	// OutcomeIdle: no handshake bytes arrived before the receive timeout.
	OutcomeIdle Outcome = iota
	// OutcomeHandshakeFailed: a handshake arrived but was short or invalid.
	OutcomeHandshakeFailed
	// OutcomeTransferFailed: payload or arguments could not be received.
	OutcomeTransferFailed
	// OutcomeUnclassified: transfer completed, payload matched no format.
	OutcomeUnclassified
	// OutcomeClassified: transfer completed and the payload was recognized.
	OutcomeClassified
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeHandshakeFailed:
		return "handshake_failed"
	case OutcomeTransferFailed:
		return "transfer_failed"
	case OutcomeUnclassified:
		return "unclassified"
	case OutcomeClassified:
		return "classified"
	default:
		return "unknown"
	}
}

// Result summarizes one session.
type Result struct {
	Outcome Outcome
	Kind    format.Kind
	Header  frame.Header
	// Produced is how many payload bytes the stream actually inflated to.
	Produced int
}

// Completed reports whether payload and arguments were both received.
func (r Result) Completed() bool {
	return r.Outcome == OutcomeUnclassified || r.Outcome == OutcomeClassified
}
