package main

import (
	"fmt"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/control"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
	"github.com/spf13/cobra"
)

func newTerminateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminate <tcp://host:port|ipc:///path>...",
		Short: "Send TERMINATE to control endpoints",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, raw []string) error {
			addrs, err := parseAddresses(raw)
			if err != nil {
				return err
			}
			sender := control.NewGRPCSender()
			var results []spawn.TerminateResult
			failed := 0
			for _, addr := range addrs {
				err := control.Terminate(cmd.Context(), sender, addr, opts.timeout)
				if err != nil {
					failed++
				}
				results = append(results, spawn.TerminateResult{Addr: addr, Err: err})
			}
			printTerminateResults(cmd.OutOrStdout(), results)
			if failed > 0 {
				return fmt.Errorf("%d of %d endpoints not terminated", failed, len(addrs))
			}
			return nil
		},
	}
	return cmd
}

func parseAddresses(raw []string) ([]args.ControlAddress, error) {
	addrs := make([]args.ControlAddress, 0, len(raw))
	for _, s := range raw {
		addr, err := args.ParseControlAddress(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
