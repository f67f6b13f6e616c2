package main

import (
	"time"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/control"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	timeout time.Duration
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "prn",
		Short:         "Spawn and control peas and pods on remote agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.ConfigureRuntime()
		},
	}
	root.PersistentFlags().DurationVar(&opts.timeout, "control-timeout", control.DefaultTimeout, "how long to wait for each control endpoint")

	root.AddCommand(newPeaCmd(opts))
	root.AddCommand(newPodCmd(opts))
	root.AddCommand(newFlowCmd(opts))
	root.AddCommand(newTerminateCmd(opts))
	root.AddCommand(newStatusCmd(opts))

	return root
}
