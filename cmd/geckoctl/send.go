package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/geckoload/internal/format"
	"github.com/danmuck/geckoload/internal/protocol/session"
)

func newSendCmd() *cobra.Command {
	var (
		addr    string
		level   int
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send [flags] file [args...]",
		Short: "Compress a file and send it to a listening loader",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			payload, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			argv := append([]string{filepath.Base(path)}, args[1:]...)

			conn, err := net.DialTimeout("tcp", addr, timeout)
			if err != nil {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			defer conn.Close()

			n, err := session.Send(conn, payload, session.JoinArgs(argv), level)
			if err != nil {
				return err
			}
			log.Info().Str("addr", addr).Str("kind", format.Classify(payload).String()).Int("bytes", n).Msg("payload sent")
			fmt.Fprintf(cmd.OutOrStdout(), "sent %s (%d bytes, %d on the wire) to %s\n", path, len(payload), n, addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:4299", "loader address")
	cmd.Flags().IntVar(&level, "level", zlib.BestCompression, "zlib compression level")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "connect timeout")
	return cmd
}
