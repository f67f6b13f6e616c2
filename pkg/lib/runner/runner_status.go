package runner

import (
	"os"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
)

type StatusResult struct {
	Command *lib.Command
	Status  *lib.ProcessStatus
}

// Status reports the command and current state of a process.
func (runner *Runner) Status(id string) (*StatusResult, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}

	status := pe.lockAndGetStatus()
	result := StatusResult{
		Command: &pe.command,
		Status:  &status,
	}

	return &result, nil
}

func (runner *Runner) getProcess(id string) (*processEntry, error) {
	runner.mu.RLock()
	pe := runner.processes[id]
	runner.mu.RUnlock()
	if pe == nil {
		return nil, os.ErrNotExist
	}
	return pe, nil
}

func (pe *processEntry) lockAndGetStatus() lib.ProcessStatus {
	pe.mu.RLock()
	defer pe.mu.RUnlock()

	st := lib.ProcessStatus{State: pe.state, StartTime: pe.start}
	if pe.exitCode != nil {
		code := *pe.exitCode
		st.ExitCode = &code
	}
	if pe.end != nil {
		t := *pe.end
		st.EndTime = &t
	}
	return st
}
