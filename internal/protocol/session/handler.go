package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/geckoload/internal/format"
	"github.com/danmuck/geckoload/internal/observability"
	"github.com/danmuck/geckoload/internal/protocol"
	"github.com/danmuck/geckoload/internal/protocol/frame"
	"github.com/danmuck/geckoload/internal/protocol/inflate"
	"github.com/danmuck/geckoload/internal/sched"
	"github.com/danmuck/geckoload/internal/task"
	"github.com/danmuck/geckoload/internal/transport"
)

// StopSignal is raised when a session delivers a bootable executable.
type StopSignal interface {
	Set()
}

// Handler runs sessions against one channel and one task.
type Handler struct {
	ch    transport.Channel
	cfg   Config
	sched sched.Scheduler
	stop  StopSignal
}

func NewHandler(ch transport.Channel, cfg Config, s sched.Scheduler, stop StopSignal) *Handler {
	if s == nil {
		s = sched.Noop{}
	}
	return &Handler{ch: ch, cfg: cfg, sched: s, stop: stop}
}

// RunOnce serves a single session into t.
//
// A missing or bad handshake leaves t untouched. Once a valid handshake is in,
// t.Kind is cleared and both buffers are replaced: a failure leaves t.Kind at
// None with the failed buffer discarded, success leaves the classified kind.
// The channel is flushed on every path.
func (h *Handler) RunOnce(t *task.Task) (res Result, err error) {
	start := time.Now()
	defer func() {
		if ferr := h.ch.Flush(); ferr != nil {
			log.Debug().Err(ferr).Msg("session flush")
		}
		observability.RecordSession(res.Outcome.String(), time.Since(start))
	}()

	hdr, err := frame.ReadHeader(h.ch, h.cfg.RecvTimeout)
	if err != nil {
		if errors.Is(err, protocol.ErrIdle) {
			return Result{Outcome: OutcomeIdle}, err
		}
		log.Warn().Err(err).Msg("session handshake rejected")
		return Result{Outcome: OutcomeHandshakeFailed}, err
	}

	h.sched.RunElevated(func() {
		res, err = h.transfer(t, hdr)
	})
	return res, err
}

func (h *Handler) transfer(t *task.Task, hdr frame.Header) (Result, error) {
	res := Result{Outcome: OutcomeTransferFailed, Header: hdr}
	t.Kind = format.None
	logger := log.With().
		Uint32("deflate", hdr.DeflateSize).
		Uint32("inflate", hdr.InflateSize).
		Uint32("args", hdr.ArgsSize).
		Logger()
	logger.Info().Msg("session started")

	if err := hdr.CheckLimits(h.cfg.Limits); err != nil {
		t.DropPayload()
		t.DropArgs()
		logger.Warn().Err(err).Msg("session refused")
		return res, err
	}

	t.Payload = nil
	out, err := inflate.Inflate(h.ch, int(hdr.DeflateSize), int(hdr.InflateSize), inflate.Options{
		Timeout:   h.cfg.RecvTimeout,
		ChunkSize: h.cfg.ChunkSize,
		Progress:  func(n int) { t.WriteCursor = n },
	})
	if err != nil {
		t.DropPayload()
		logger.Warn().Err(err).Int("produced", t.WriteCursor).Msg("session payload failed")
		return res, fmt.Errorf("session: payload: %w", err)
	}
	t.Payload = out.Buf
	res.Produced = out.Produced
	if out.Produced < len(out.Buf) {
		logger.Warn().Int("produced", out.Produced).Msg("payload stream ended short of declared size")
	}

	args, err := h.readArgs(int(hdr.ArgsSize))
	if err != nil {
		t.DropArgs()
		logger.Warn().Err(err).Msg("session arguments failed")
		return res, fmt.Errorf("session: args: %w", err)
	}
	t.Args = args

	kind := format.Classify(t.Payload)
	t.Kind = kind
	res.Kind = kind
	res.Outcome = OutcomeUnclassified
	if kind != format.None {
		res.Outcome = OutcomeClassified
	}
	observability.RecordClassified(kind.String(), len(t.Payload))
	logger.Info().Str("kind", kind.String()).Msg(format.Describe(t.Payload))

	if kind.Bootable() && h.stop != nil {
		h.stop.Set()
	}
	return res, nil
}

func (h *Handler) readArgs(size int) ([]byte, error) {
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	if n, err := h.ch.Recv(buf, h.cfg.RecvTimeout); err != nil {
		return nil, fmt.Errorf("%w: args %d/%d bytes: %w", protocol.ErrTruncated, n, size, err)
	}
	return buf, nil
}
