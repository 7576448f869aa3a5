package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danmuck/geckoload/internal/logging"
	"github.com/danmuck/geckoload/internal/observability"
)

var jsonLogs bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "geckoctl",
		Short:         "Network loader for console executables",
		Long:          "Receive compressed executables over the wiiload protocol, identify them and boot them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
			if jsonLogs {
				observability.InitLogger("geckoctl", true)
			}
		},
	}
	root.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit JSON log lines instead of console output")
	root.AddCommand(newServeCmd())
	root.AddCommand(newSendCmd())
	root.AddCommand(newClassifyCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "geckoctl: %v\n", err)
		os.Exit(1)
	}
}
