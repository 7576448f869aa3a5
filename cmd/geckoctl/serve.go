package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/geckoload/internal/boot"
	"github.com/danmuck/geckoload/internal/loader"
	"github.com/danmuck/geckoload/internal/status"
	"github.com/danmuck/geckoload/internal/task"
	"github.com/danmuck/geckoload/internal/transport"
)

type serveOptions struct {
	cfg    loader.ServiceConfig
	dryRun bool
	out    io.Writer
	// ready observes the bound loader address.
	ready func(net.Addr)
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for payloads and boot the first executable",
		Long: "Listen for loader sessions until an executable arrives, then hand it to the boot runner.\n" +
			"SIGUSR1 stops listening and boots the fallback executable; SIGINT and SIGTERM exit without booting.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loader.DefaultServiceConfig()
			if configPath != "" {
				loaded, err := loadServiceConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, serveOptions{cfg: cfg, dryRun: dryRun, out: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", "", "override listen_addr")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the hand-off instead of executing the runner")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg := opts.cfg
	ch, err := transport.ListenTCP(cfg.ListenAddr, transport.DefaultBackoff())
	if err != nil {
		return err
	}
	log.Info().Str("addr", ch.Addr().String()).Str("mode", string(cfg.Mode)).Msg("loader listening")
	if opts.ready != nil {
		opts.ready(ch.Addr())
	}

	loop := loader.NewLoop(ch, cfg.Session, cfg.Scheduler())

	var st *status.Server
	if cfg.StatusAddr != "" {
		st = status.New(cfg.StatusAddr, cfg.CORSOrigins, loop)
		if err := st.Start(); err != nil {
			_ = ch.Close()
			return err
		}
	}
	cleanup := func() {
		if st != nil {
			_ = st.Close()
		}
		_ = ch.Close()
	}

	stopOnSignal(ctx, loop)

	tk, err := drive(ctx, loop, cfg.Mode)
	if err != nil {
		cleanup()
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("interrupted, not booting")
			return nil
		}
		return err
	}

	var target boot.Target
	var rec *boot.RecordingTarget
	if opts.dryRun {
		rec = boot.NewRecordingTarget()
		target = rec
		cleanup()
	} else {
		et := boot.NewExecTarget(cfg.StagingDir, cfg.Runner)
		et.OnReset(ch.Close)
		if st != nil {
			et.OnReset(st.Close)
		}
		target = et
	}

	if err := loader.NewDispatcher(target, loader.OSReader{}, cfg.FallbackPath).Load(tk); err != nil {
		cleanup()
		return err
	}
	if rec != nil {
		h, _ := rec.Handoff()
		fmt.Fprintf(opts.out, "dry-run: %s steps=%v\n", h, rec.Calls())
	}
	return nil
}

func drive(ctx context.Context, loop *loader.Loop, mode loader.Mode) (*task.Task, error) {
	if mode == loader.ModeBackground {
		if err := loop.Start(ctx); err != nil {
			return nil, err
		}
		return loop.Wait()
	}
	return loop.Run(ctx)
}
