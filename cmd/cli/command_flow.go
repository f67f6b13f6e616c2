package main

import (
	"errors"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/remote"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"github.com/spf13/cobra"
)

func newFlowCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "flow -f <group.toml|group.yaml>",
		Short: "Run a pod described by a group file on one remote agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("a group file is required")
			}
			g, err := args.LoadGroupFile(file)
			if err != nil {
				return err
			}
			p, err := remote.NewParsedPod(g, spawn.WithShutdownTimeout(opts.timeout))
			if err != nil {
				return err
			}
			return runUnit(cmd.Context(), cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "group file with head, tail and peas")
	return cmd
}
