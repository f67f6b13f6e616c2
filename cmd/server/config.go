package main

import (
	"os"
	"strings"
	"time"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/runner"
)

const (
	EnvAddress        = "PRN_ADDRESS"
	EnvPeaCommand     = "PRN_PEA_COMMAND"
	EnvMetricsAddress = "PRN_METRICS_ADDRESS"

	defaultAddress    = "0.0.0.0:50051"
	defaultPeaCommand = "prn-pea"
	defaultStopGrace  = 5 * time.Second
)

// Config is the agent configuration. Flags override the environment.
type Config struct {
	Address string
	// PeaCommand is the worker binary and its leading arguments; the tokens
	// of each pea are appended to it.
	PeaCommand     []string
	MetricsAddress string
	StopGrace      time.Duration
	// Limits apply only when the agent runs as root.
	Limits runner.Limits
}

func ConfigFromEnv() Config {
	cfg := Config{
		Address:        defaultAddress,
		PeaCommand:     []string{defaultPeaCommand},
		MetricsAddress: strings.TrimSpace(os.Getenv(EnvMetricsAddress)),
		StopGrace:      defaultStopGrace,
		Limits:         runner.DefaultLimits(),
	}
	if v := strings.TrimSpace(os.Getenv(EnvAddress)); v != "" {
		cfg.Address = v
	}
	if v := strings.Fields(os.Getenv(EnvPeaCommand)); len(v) > 0 {
		cfg.PeaCommand = v
	}
	return cfg
}
