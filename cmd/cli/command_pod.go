package main

import (
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/remote"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"github.com/spf13/cobra"
)

func newPodCmd(opts *rootOptions) *cobra.Command {
	a := args.Defaults()
	cmd := &cobra.Command{
		Use:   "pod --host <agent> --parallel <n> [pea flags]",
		Short: "Run a pod the remote agent expands, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := remote.NewPod(a, spawn.WithShutdownTimeout(opts.timeout))
			if err != nil {
				return err
			}
			return runUnit(cmd.Context(), cmd.OutOrStdout(), p)
		},
	}
	args.RegisterFlags(cmd.Flags(), a)
	return cmd
}
