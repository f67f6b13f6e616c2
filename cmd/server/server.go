package main

import (
	"sync"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/runner"
)

var logger = logging.Logger("agent")

// SpawnServiceServer starts the peas a spawner asks for and relays their
// output for as long as the spawn stream lives.
type SpawnServiceServer struct {
	v1.UnimplementedSpawnServiceServer
	runner   *runner.Runner
	cfg      Config
	metrics  *metrics
	freePort func() (int, error)

	mu   sync.Mutex
	peas map[string]*args.ProcessArgs

	shutdown sync.Once
}

func NewSpawnServiceServer(cfg Config, m *metrics) (*SpawnServiceServer, error) {
	r, err := runner.NewRunner(runner.WithLimits(cfg.Limits))
	if err != nil {
		return nil, err
	}
	return &SpawnServiceServer{
		runner:   r,
		cfg:      cfg,
		metrics:  m,
		freePort: func() (int, error) { return lib.FreePort("") },
		peas:     make(map[string]*args.ProcessArgs),
	}, nil
}

// Shutdown stops every pea and removes the work directories. Only the first
// call does anything.
func (s *SpawnServiceServer) Shutdown() {
	s.shutdown.Do(func() {
		s.runner.StopAll(s.cfg.StopGrace)
		if err := s.runner.Close(); err != nil {
			logger.Warn().Err(err).Msg("removing work directory")
		}
	})
}
