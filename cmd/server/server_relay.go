package main

import (
	"context"
	"sync"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"google.golang.org/grpc"
)

type record struct {
	pea    string
	line   string
	remote bool
}

// relay sends every output line of procs as a log record. Peas without
// log-remote are logged here instead. It returns once every pea has exited or
// ctx is done.
func (s *SpawnServiceServer) relay(ctx context.Context, stream grpc.ServerStreamingServer[v1.SpawnResponse], procs []spawned) error {
	records := make(chan record)
	var wg sync.WaitGroup
	for _, p := range procs {
		stdout, stderr, err := s.runner.OutputLines(ctx, p.id)
		if err != nil {
			logger.Warn().Err(err).Str("pea", p.args.DisplayName()).Msg("no output to relay")
			continue
		}
		for _, lines := range []<-chan string{stdout, stderr} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				forward(ctx, lines, records, p.args.DisplayName(), p.args.LogRemote)
			}()
		}
	}
	go func() {
		wg.Wait()
		close(records)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case r, ok := <-records:
			if !ok {
				return nil
			}
			if !r.remote {
				logger.Info().Str("pea", r.pea).Msg(r.line)
				continue
			}
			if err := stream.Send(newResponse(r.pea + ": " + r.line)); err != nil {
				return err
			}
			s.metrics.relayed.Inc()
		}
	}
}

// forward copies lines into out until the pea's output ends or ctx is done.
// Cancelling ctx also ends the subscription behind lines.
func forward(ctx context.Context, lines <-chan string, out chan<- record, pea string, remote bool) {
	for line := range lines {
		select {
		case out <- record{pea: pea, line: line, remote: remote}:
		case <-ctx.Done():
			return
		}
	}
}
