package runner

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/output_storage"
	"github.com/rs/zerolog"
)

var ErrNoCommand = errors.New("command is required")

type StartResult struct {
	ID     string
	pid    int
	Status *lib.ProcessStatus
}

// Start runs command with args in the agent's environment.
func (runner *Runner) Start(command string, args ...string) (*StartResult, error) {
	return runner.StartCommand(lib.Command{Command: command, Args: args})
}

// StartCommand starts a process in its own process group and work directory.
func (runner *Runner) StartCommand(c lib.Command) (*StartResult, error) {
	if c.Command == "" {
		return nil, ErrNoCommand
	}
	id := lib.NewID()
	log := logger.With().Str("process", id).Logger()

	workDir := filepath.Join(runner.baseDir, id)
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		return nil, err
	}

	cmd := exec.Command(c.Command, c.Args...)
	cmd.Dir = workDir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	attr, err := runner.procAttr(id)
	if err != nil {
		return nil, err
	}
	cmd.SysProcAttr = attr.Raw

	stdout := output_storage.RunNewOutputStorage()
	stderr := output_storage.RunNewOutputStorage()
	// Stdin stays nil, which is /dev/null.
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	pe := &processEntry{
		id: id,
		command: lib.Command{
			Command: c.Command,
			Args:    append([]string(nil), c.Args...),
			Env:     append([]string(nil), c.Env...),
		},
		cmd:     cmd,
		workDir: workDir,
		done:    make(chan struct{}),
		state:   lib.ProcessStateRunning,
		start:   time.Now(),
		stdout:  stdout,
		stderr:  stderr,
	}

	log.Debug().Str("command", c.Command).Strs("args", c.Args).Msg("starting process")
	err = cmd.Start()
	if attr.File != nil {
		_ = attr.File.Close()
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to start process")
		stdout.Stop()
		stderr.Stop()
		removeCgroup(id)
		return nil, err
	}
	pe.pid = cmd.Process.Pid

	go pe.wait(log)

	runner.mu.Lock()
	runner.processes[id] = pe
	runner.mu.Unlock()

	status := pe.lockAndGetStatus()
	return &StartResult{ID: id, pid: pe.pid, Status: &status}, nil
}

func (pe *processEntry) wait(log zerolog.Logger) {
	err := pe.cmd.Wait()
	pe.stdout.Stop()
	pe.stderr.Stop()

	pe.mu.Lock()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		code := 0
		pe.exitCode = &code
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		pe.exitCode = &code
	}
	now := time.Now()
	pe.end = &now
	pe.state = lib.ProcessStateStopped
	pe.mu.Unlock()

	ev := log.Debug()
	if err != nil {
		ev = log.Info().Err(err)
	}
	ev.Int("pid", pe.pid).Msg("process finished")

	removeCgroup(pe.id)
	close(pe.done)
}
