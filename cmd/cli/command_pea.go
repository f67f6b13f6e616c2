package main

import (
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/remote"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"github.com/spf13/cobra"
)

func newPeaCmd(opts *rootOptions) *cobra.Command {
	a := args.Defaults()
	cmd := &cobra.Command{
		Use:   "pea --host <agent> [pea flags]",
		Short: "Run a single pea on a remote agent until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := remote.NewPea(a, spawn.WithShutdownTimeout(opts.timeout))
			if err != nil {
				return err
			}
			return runUnit(cmd.Context(), cmd.OutOrStdout(), p)
		},
	}
	args.RegisterFlags(cmd.Flags(), a)
	return cmd
}
