package main

import "sync"

// stopGroup stops whatever is still running of procs and forgets them.
func (s *SpawnServiceServer) stopGroup(procs []spawned) {
	var wg sync.WaitGroup
	for _, p := range procs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.runner.StopGraceful(p.id, s.cfg.StopGrace)
			if err != nil {
				logger.Warn().Err(err).Str("pea", p.args.DisplayName()).Msg("error stopping pea")
				return
			}
			ev := logger.Debug().Str("pea", p.args.DisplayName()).Stringer("state", res.Status.State)
			if res.Status.ExitCode != nil {
				ev = ev.Int("exit_code", *res.Status.ExitCode)
			}
			ev.Msg("pea stopped")

			if err := s.runner.Forget(p.id); err != nil {
				logger.Warn().Err(err).Str("pea", p.args.DisplayName()).Msg("pea outlived stop")
				return
			}
			s.mu.Lock()
			delete(s.peas, p.id)
			s.mu.Unlock()
			s.metrics.running.Dec()
		}()
	}
	wg.Wait()
}
