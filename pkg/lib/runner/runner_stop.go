package runner

import (
	"errors"
	"time"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
	"golang.org/x/sys/unix"
)

var (
	ErrRunning  = errors.New("process is still running")
	errNoCgroup = errors.New("process has no cgroup")
)

// killWait bounds how long Stop waits for a killed process to be reaped.
const killWait = time.Second

type StopResult struct {
	Command *lib.Command
	Status  *lib.ProcessStatus
}

// Stop kills the process group immediately.
func (runner *Runner) Stop(id string) (*StopResult, error) {
	return runner.StopGraceful(id, 0)
}

// StopGraceful sends SIGTERM to the process group and waits up to grace for
// it to exit before killing it. A zero grace kills right away. The result
// holds the final status, or the current one if the process outlived the
// kill.
func (runner *Runner) StopGraceful(id string, grace time.Duration) (*StopResult, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}
	res := StopResult{Command: &pe.command}

	select {
	case <-pe.done:
		st := pe.lockAndGetStatus()
		res.Status = &st
		return &res, nil
	default:
	}

	if grace > 0 {
		// Negative pid addresses the process group.
		if err := unix.Kill(-pe.pid, unix.SIGTERM); err == nil {
			select {
			case <-pe.done:
			case <-time.After(grace):
			}
		}
	}

	select {
	case <-pe.done:
	default:
		logger.Debug().Str("process", id).Int("pid", pe.pid).Msg("killing process group")
		if err := killCgroup(id); err != nil {
			if !errors.Is(err, errNoCgroup) {
				logger.Warn().Err(err).Str("process", id).Msg("cgroup kill failed")
			}
			_ = unix.Kill(-pe.pid, unix.SIGKILL)
		}
		select {
		case <-pe.done:
		case <-time.After(killWait):
		}
	}

	st := pe.lockAndGetStatus()
	res.Status = &st
	return &res, nil
}

// StopAll stops every running process with the same grace, concurrently.
func (runner *Runner) StopAll(grace time.Duration) {
	ids := runner.IDs()
	done := make(chan struct{}, len(ids))
	for _, id := range ids {
		go func() {
			_, _ = runner.StopGraceful(id, grace)
			done <- struct{}{}
		}()
	}
	for range ids {
		<-done
	}
}
