// Command prn-pea is the worker process a spawn agent starts for every pea.
// It serves its control endpoint and runs until it receives TERMINATE.
package main

import (
	"fmt"
	"os"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/spf13/cobra"
)

var logger = logging.Logger("pea")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := args.Defaults()
	cmd := &cobra.Command{
		Use:           "prn-pea",
		Short:         "Run a single pea",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.ConfigureRuntime()
			return run(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
	args.RegisterFlags(cmd.Flags(), a)
	return cmd
}
