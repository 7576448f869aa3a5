package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/geckoload/internal/protocol"
	"github.com/danmuck/geckoload/internal/protocol/session"
	"github.com/danmuck/geckoload/internal/sched"
)

// Mode selects how the binary drives the loop.
type Mode string

const (
	ModeBusy       Mode = "busy"
	ModeBackground Mode = "background"
)

// ServiceConfig is everything the serve command needs.
type ServiceConfig struct {
	ListenAddr      string
	Session         session.Config
	Mode            Mode
	FallbackPath    string
	StatusAddr      string
	CORSOrigins     []string
	StagingDir      string
	Runner          string
	ElevatePriority bool
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:      ":4299",
		Session:         session.DefaultConfig(),
		Mode:            ModeBusy,
		FallbackPath:    FallbackPath,
		CORSOrigins:     []string{},
		StagingDir:      filepath.Join(os.TempDir(), "geckoload"),
		ElevatePriority: true,
	}
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("listen_addr is required")
	}
	if c.Session.RecvTimeout <= 0 {
		return fmt.Errorf("recv_timeout must be positive, got %s", c.Session.RecvTimeout)
	}
	if c.Session.ChunkSize <= 0 || c.Session.ChunkSize > protocol.ChunkSize {
		return fmt.Errorf("chunk_size must be in 1..%d, got %d", protocol.ChunkSize, c.Session.ChunkSize)
	}
	if err := c.Session.Limits.Validate(); err != nil {
		return err
	}
	switch c.Mode {
	case ModeBusy, ModeBackground:
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeBusy, ModeBackground, c.Mode)
	}
	if strings.TrimSpace(c.FallbackPath) == "" {
		return errors.New("fallback_path is required")
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		return errors.New("staging_dir is required")
	}
	return nil
}

// Scheduler returns the priority hint the loop should run under.
func (c ServiceConfig) Scheduler() sched.Scheduler {
	if c.ElevatePriority {
		return sched.DefaultThreadNice()
	}
	return sched.Noop{}
}
