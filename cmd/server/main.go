package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := ConfigFromEnv()
	cmd := &cobra.Command{
		Use:           "prnd",
		Short:         "Agent that spawns peas and pods for remote spawners",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logging.ConfigureRuntime()
			return run(cmd.Context(), cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Address, "address", cfg.Address, "listen address (env "+EnvAddress+")")
	f.StringSliceVar(&cfg.PeaCommand, "pea-command", cfg.PeaCommand, "worker command; pea flags are appended (env "+EnvPeaCommand+")")
	f.StringVar(&cfg.MetricsAddress, "metrics-address", cfg.MetricsAddress, "serve Prometheus metrics here (env "+EnvMetricsAddress+")")
	f.DurationVar(&cfg.StopGrace, "stop-grace", cfg.StopGrace, "how long peas get to exit after SIGTERM")
	f.IntVar(&cfg.Limits.CPUWeight, "pea-cpu-weight", cfg.Limits.CPUWeight, "cgroup cpu.weight of each pea, 0 to leave unset")
	f.IntVar(&cfg.Limits.IOWeight, "pea-io-weight", cfg.Limits.IOWeight, "cgroup io.weight of each pea, 0 to leave unset")
	f.Int64Var(&cfg.Limits.MemoryHigh, "pea-memory-high", cfg.Limits.MemoryHigh, "cgroup memory.high of each pea in bytes, 0 to leave unset")
	return cmd
}

func run(ctx context.Context, cfg Config) error {
	if len(cfg.PeaCommand) == 0 || cfg.PeaCommand[0] == "" {
		return errors.New("pea command is required")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svc, err := NewSpawnServiceServer(cfg, newMetrics(reg))
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}
	defer svc.Shutdown()

	if cfg.MetricsAddress != "" {
		ms := serveMetrics(cfg.MetricsAddress, reg)
		defer ms.Close()
	}

	srv, err := NewGRPCServer(cfg.Address, svc)
	if err != nil {
		return err
	}
	logger.Info().Stringer("addr", srv.Addr()).Strs("pea_command", cfg.PeaCommand).Msg("agent listening")

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	select {
	case err := <-served:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		svc.Shutdown()
		srv.Stop()
		return nil
	}
}
