package lib

import "time"

type ProcessState int

const (
	ProcessStateUnspecified ProcessState = iota
	ProcessStateRunning
	ProcessStateStopped
)

func (s ProcessState) String() string {
	switch s {
	case ProcessStateRunning:
		return "running"
	case ProcessStateStopped:
		return "stopped"
	default:
		return "unspecified"
	}
}

// Command is what a process was started with. Env is added to the
// environment of the parent.
type Command struct {
	Command string
	Args    []string
	Env     []string
}

// ProcessStatus is the state of a process and its exit, once it has one.
type ProcessStatus struct {
	State     ProcessState
	ExitCode  *int
	StartTime time.Time
	EndTime   *time.Time
}
