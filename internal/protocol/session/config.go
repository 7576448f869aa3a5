package session

import (
	"time"

	"github.com/danmuck/geckoload/internal/protocol"
	"github.com/danmuck/geckoload/internal/protocol/frame"
)

// RecvTimeout bounds every receive in a session, including the handshake poll.
const RecvTimeout = 65536 * time.Microsecond

// Config defines per-session transfer parameters.
type Config struct {
	RecvTimeout time.Duration
	ChunkSize   int
	Limits      frame.Limits
}

func DefaultConfig() Config {
	return Config{
		RecvTimeout: RecvTimeout,
		ChunkSize:   protocol.ChunkSize,
		Limits:      frame.DefaultLimits(),
	}
}
