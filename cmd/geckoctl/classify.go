package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/geckoload/internal/format"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify file...",
		Short: "Print the detected payload kind of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				buf, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, format.Describe(buf))
			}
			return nil
		},
	}
}
