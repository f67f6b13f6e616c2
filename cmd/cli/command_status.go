package main

import (
	"context"
	"fmt"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/control"
	"github.com/spf13/cobra"
)

const statusCommand = v1.ControlCommand_CONTROL_COMMAND_STATUS

func newStatusCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <tcp://host:port|ipc:///path>...",
		Short: "Ask peas or agents for their status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, raw []string) error {
			addrs, err := parseAddresses(raw)
			if err != nil {
				return err
			}
			sender := control.NewGRPCSender()
			rows := make([][]string, 0, len(addrs))
			failed := 0
			for _, addr := range addrs {
				msg, err := sendStatus(cmd.Context(), sender, addr, opts)
				state := "ok"
				if err != nil {
					failed++
					state, msg = "error", err.Error()
				}
				rows = append(rows, []string{addr.String(), state, msg})
			}
			printTable(cmd.OutOrStdout(), []string{"ADDRESS", "STATE", "MESSAGE"}, rows)
			if failed > 0 {
				return fmt.Errorf("%d of %d endpoints unreachable", failed, len(addrs))
			}
			return nil
		},
	}
	return cmd
}

// sendStatus asks one endpoint for its status within timeout.
func sendStatus(ctx context.Context, s control.Sender, addr args.ControlAddress, opts *rootOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	resp, err := s.Send(ctx, addr, statusCommand)
	if err != nil {
		return "", err
	}
	return resp.GetMessage(), nil
}
