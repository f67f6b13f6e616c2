package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
)

// control answers control commands sent to the agent itself: STATUS lists
// its peas, TERMINATE stops all of them.
func (s *SpawnServiceServer) control(ctx context.Context, cmd v1.ControlCommand) (string, error) {
	switch cmd {
	case v1.ControlCommand_CONTROL_COMMAND_STATUS:
		return s.statusLine(), nil
	case v1.ControlCommand_CONTROL_COMMAND_TERMINATE:
		n := len(s.runner.IDs())
		s.runner.StopAll(s.cfg.StopGrace)
		return fmt.Sprintf("stopped %d peas", n), nil
	default:
		return "", fmt.Errorf("unsupported command %s", cmd)
	}
}

func (s *SpawnServiceServer) statusLine() string {
	s.mu.Lock()
	names := make(map[string]string, len(s.peas))
	for id, a := range s.peas {
		names[id] = a.DisplayName()
	}
	s.mu.Unlock()

	var running []string
	for id, name := range names {
		st, err := s.runner.Status(id)
		if err != nil || st.Status.State != lib.ProcessStateRunning {
			continue
		}
		running = append(running, name)
	}
	sort.Strings(running)
	if len(running) == 0 {
		return "0 peas running"
	}
	return fmt.Sprintf("%d peas running: %s", len(running), strings.Join(running, ", "))
}
