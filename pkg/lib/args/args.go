// Package args holds the namespace of a single pea process, its flat token
// form used on the wire, and the head/tail/peas shape of a pod.
package args

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

const (
	// DefaultHost is the sentinel for "this machine".
	DefaultHost     = "0.0.0.0"
	DefaultPortGRPC = 50051

	// Control ports picked by the spawner come from the dynamic range.
	minRandomPort = 49153
	maxRandomPort = 65535
)

type Role string

const (
	RolePea  Role = "pea"
	RoleHead Role = "head"
	RoleTail Role = "tail"
)

// ProcessArgs is the namespace of one pea. PortGRPC is the port of the agent
// that spawns it; PortCtrl is the pea's own control endpoint.
type ProcessArgs struct {
	Name         string
	Identity     string
	Role         Role
	Host         string
	PortGRPC     int
	PortCtrl     int
	CtrlWithIPC  bool
	LogRemote    bool
	Parallel     int
	Uses         string
	TimeoutReady time.Duration
}

// Defaults returns the namespace an empty token list parses to.
func Defaults() *ProcessArgs {
	return &ProcessArgs{
		Role:     RolePea,
		Host:     DefaultHost,
		PortGRPC: DefaultPortGRPC,
		Parallel: 1,
	}
}

func (a *ProcessArgs) Clone() *ProcessArgs {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// IsLocal reports whether the host is unset or the local sentinel.
func (a *ProcessArgs) IsLocal() bool {
	return a == nil || a.Host == "" || a.Host == DefaultHost
}

// AssignCtrlPort picks a control port when a has neither a port nor IPC, so
// its control address is known before the agent starts it.
func (a *ProcessArgs) AssignCtrlPort() {
	if a.PortCtrl == 0 && !a.CtrlWithIPC {
		a.PortCtrl = minRandomPort + rand.IntN(maxRandomPort-minRandomPort+1)
	}
}

// RegisterFlags binds every field of a to fs. The current values of a become
// the flag defaults.
func RegisterFlags(fs *pflag.FlagSet, a *ProcessArgs) {
	fs.StringVar(&a.Name, "name", a.Name, "name of the pea")
	fs.StringVar(&a.Identity, "identity", a.Identity, "unique identity of the pea")
	fs.Var((*roleValue)(&a.Role), "role", "role inside a pod: pea, head or tail")
	fs.StringVar(&a.Host, "host", a.Host, "host of the remote agent")
	fs.IntVar(&a.PortGRPC, "port-grpc", a.PortGRPC, "port of the remote agent")
	fs.IntVar(&a.PortCtrl, "port-ctrl", a.PortCtrl, "port of the pea control endpoint")
	fs.BoolVar(&a.CtrlWithIPC, "ctrl-with-ipc", a.CtrlWithIPC, "serve the control endpoint on a unix socket")
	fs.BoolVar(&a.LogRemote, "log-remote", a.LogRemote, "relay logs back to the spawner")
	fs.IntVar(&a.Parallel, "parallel", a.Parallel, "number of parallel peas in a pod")
	fs.StringVar(&a.Uses, "uses", a.Uses, "payload handed to the worker")
	fs.DurationVar(&a.TimeoutReady, "timeout-ready", a.TimeoutReady, "how long to wait for readiness, 0 waits forever")
}

// Parse builds a namespace from tokens on top of Defaults. Unknown flags are
// ignored so newer peers can add fields.
func Parse(tokens []string) (*ProcessArgs, error) {
	a := Defaults()
	fs := pflag.NewFlagSet("pea", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	RegisterFlags(fs, a)
	if err := fs.Parse(tokens); err != nil {
		return nil, fmt.Errorf("parse pea args: %w", err)
	}
	return a, nil
}

// Tokens renders a as a flat token list. Only fields that differ from
// Defaults are emitted, except --host which is always present, so a
// namespace never renders to an empty list.
func (a *ProcessArgs) Tokens() []string {
	d := Defaults()
	var out []string
	str := func(flag, v, def string) {
		if v != def {
			out = append(out, "--"+flag, v)
		}
	}
	num := func(flag string, v, def int) {
		if v != def {
			out = append(out, "--"+flag, strconv.Itoa(v))
		}
	}
	flag := func(flag string, v, def bool) {
		if v != def {
			out = append(out, "--"+flag+"="+strconv.FormatBool(v))
		}
	}

	str("name", a.Name, d.Name)
	str("identity", a.Identity, d.Identity)
	role := a.Role
	if role == "" {
		role = RolePea
	}
	str("role", string(role), string(d.Role))
	out = append(out, "--host", a.Host)
	num("port-grpc", a.PortGRPC, d.PortGRPC)
	num("port-ctrl", a.PortCtrl, d.PortCtrl)
	flag("ctrl-with-ipc", a.CtrlWithIPC, d.CtrlWithIPC)
	flag("log-remote", a.LogRemote, d.LogRemote)
	num("parallel", a.Parallel, d.Parallel)
	str("uses", a.Uses, d.Uses)
	if a.TimeoutReady != d.TimeoutReady {
		out = append(out, "--timeout-ready", a.TimeoutReady.String())
	}
	return out
}

// DisplayName is the name used in logs and socket paths.
func (a *ProcessArgs) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Identity != "":
		return a.Identity
	default:
		return string(a.Role)
	}
}

type roleValue Role

func (r *roleValue) String() string { return string(*r) }

func (r *roleValue) Set(s string) error {
	switch Role(s) {
	case RolePea, RoleHead, RoleTail:
		*r = roleValue(s)
		return nil
	default:
		return fmt.Errorf("unknown role %q", s)
	}
}

func (r *roleValue) Type() string { return "role" }
