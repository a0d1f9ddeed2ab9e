package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/persistdo/internal/model"
)

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	dataPath   string
	driver     string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "persistdo",
		Short:         "persistdo - recurring tasks and a daily streak in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", model.DefaultConfigPath(), "config file")
	flags.StringVar(&opts.dataPath, "data", "", "state file (overrides storage.path)")
	flags.StringVar(&opts.driver, "driver", "", "storage driver: sqlite or json (overrides storage.driver)")
	flags.BoolVar(&opts.debug, "debug", false, "log to stderr")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Open the full-screen interface (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTUI(cmd.Context(), opts)
			},
		},
		newAddCmd(opts),
		newListCmd(opts),
		newDoneCmd(opts),
		newRmCmd(opts),
		newMoveCmd(opts),
		newEditCmd(opts),
		newSweepCmd(opts),
		newStatsCmd(opts),
		newConfigCmd(opts),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		stop()
		os.Exit(1)
	}
}
