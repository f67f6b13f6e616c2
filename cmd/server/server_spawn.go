package main

import (
	"errors"
	"fmt"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// spawned is one pea started for a stream.
type spawned struct {
	id   string
	args *args.ProcessArgs
}

// Spawn starts the requested peas, answers with the expanded body and then
// relays their output until they all exit or the spawner goes away. Peas
// still running when the stream ends are stopped.
func (s *SpawnServiceServer) Spawn(req *v1.SpawnRequest, stream grpc.ServerStreamingServer[v1.SpawnResponse]) error {
	body := req.GetBody()
	if body == nil {
		return status.Error(codes.InvalidArgument, v1.ErrNoBody.Error())
	}
	ctx := stream.Context()
	log := logger.With().Stringer("kind", body.Kind()).Logger()
	if client := extractSpiffeIdFromContext(ctx); client != nil {
		log = log.With().Str("client", *client).Logger()
	}
	s.metrics.requests.WithLabelValues(body.Kind().String()).Inc()

	g, echo, err := s.expand(body)
	if err != nil {
		s.metrics.failures.Inc()
		return status.Errorf(codes.InvalidArgument, "invalid %s request: %v", body.Kind(), err)
	}

	procs, err := s.startGroup(g)
	if err != nil {
		s.metrics.failures.Inc()
		log.Error().Err(err).Msg("failed to start peas")
		return status.Errorf(codes.Internal, "error starting peas: %v", err)
	}
	defer s.stopGroup(procs)
	log.Info().Int("peas", len(procs)).Msg("peas started")

	first := newResponse(fmt.Sprintf("started %d peas", len(procs)))
	first.Body = echo
	if err := stream.Send(first); err != nil {
		return err
	}
	return s.relay(ctx, stream, procs)
}

// startGroup starts every pea of g, or none of them.
func (s *SpawnServiceServer) startGroup(g args.ParsedPodArgs) ([]spawned, error) {
	var procs []spawned
	for _, a := range g.All() {
		c := lib.Command{
			Command: s.cfg.PeaCommand[0],
			Args:    append(append([]string(nil), s.cfg.PeaCommand[1:]...), a.Tokens()...),
		}
		res, err := s.runner.StartCommand(c)
		if err != nil {
			s.stopGroup(procs)
			return nil, errors.Join(fmt.Errorf("start %s", a.DisplayName()), err)
		}
		procs = append(procs, spawned{id: res.ID, args: a})

		s.mu.Lock()
		s.peas[res.ID] = a
		s.mu.Unlock()
		s.metrics.running.Inc()
	}
	return procs, nil
}
