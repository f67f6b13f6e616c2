// Package runner starts and stops the processes of one agent and keeps their
// output for replay.
package runner

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/logging"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/output_storage"
)

var logger = logging.Logger("runner")

// Runner manages processes started by this library.
type Runner struct {
	mu        sync.RWMutex
	processes map[string]*processEntry
	baseDir   string
	limits    Limits
}

type processEntry struct {
	id      string
	command lib.Command
	cmd     *exec.Cmd
	workDir string
	pid     int
	// done is closed once the process has exited and its status is final.
	done chan struct{}

	mu       sync.RWMutex
	state    lib.ProcessState
	exitCode *int
	start    time.Time
	end      *time.Time

	stdout *output_storage.OutputStorage
	stderr *output_storage.OutputStorage
}

// SysProcAttr is the platform process setup. File, when set, must stay open
// until the process has started.
type SysProcAttr struct {
	File *os.File
	Raw  *syscall.SysProcAttr
}

func NewRunner(opts ...Option) (*Runner, error) {
	baseDir, err := os.MkdirTemp("", "prn-*")
	if err != nil {
		return nil, err
	}
	r := &Runner{processes: make(map[string]*processEntry), baseDir: baseDir, limits: DefaultLimits()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// IDs lists every process the runner has started, running or not.
func (runner *Runner) IDs() []string {
	runner.mu.RLock()
	defer runner.mu.RUnlock()
	ids := make([]string, 0, len(runner.processes))
	for id := range runner.processes {
		ids = append(ids, id)
	}
	return ids
}

// Done is closed when the process exits.
func (runner *Runner) Done(id string) (<-chan struct{}, error) {
	pe, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}
	return pe.done, nil
}

// Forget drops a stopped process and its work directory.
func (runner *Runner) Forget(id string) error {
	pe, err := runner.getProcess(id)
	if err != nil {
		return err
	}
	select {
	case <-pe.done:
	default:
		return ErrRunning
	}
	runner.mu.Lock()
	delete(runner.processes, id)
	runner.mu.Unlock()
	return os.RemoveAll(pe.workDir)
}

// Close removes the runner's work directory. Processes must be stopped first.
func (runner *Runner) Close() error {
	return os.RemoveAll(runner.baseDir)
}
