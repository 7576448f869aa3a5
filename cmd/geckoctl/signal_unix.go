//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/geckoload/internal/loader"
)

// stopOnSignal maps SIGUSR1 to an external loop stop until ctx ends or the
// loop stops on its own.
func stopOnSignal(ctx context.Context, loop *loader.Loop) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1)
	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			log.Info().Msg("stop requested, booting what is loaded")
			loop.Stop()
		case <-loop.StopRequested():
		case <-ctx.Done():
		}
	}()
}
