package spawn

import (
	"errors"
	"fmt"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
)

var (
	// ErrMixedHosts is returned when the peas of one group target different hosts.
	ErrMixedHosts = errors.New("peas of a group must share one host")
	ErrEmptyGroup = errors.New("group has no peas")
)

// NewPeaHelper spawns a single pea. Its own control address is known up
// front and registered immediately; a pea without one gets a port picked
// here and sent to the agent.
func NewPeaHelper(a *args.ProcessArgs, opts ...Option) (*Helper, error) {
	a.LogRemote = false
	a.AssignCtrlPort()
	h, err := newHelper(v1.KindPea, a, unitRequest(v1.KindPea, a), opts)
	if err != nil {
		return nil, err
	}
	h.AddCtrlAddresses(args.CtrlAddress(a))
	return h, nil
}

// NewPodHelper spawns a pod the agent expands. The control addresses of its
// sub-processes are unknown until the agent echoes them back, so the caller
// registers them with AddCtrlAddresses from the ready callback.
func NewPodHelper(a *args.ProcessArgs, opts ...Option) (*Helper, error) {
	a.LogRemote = false
	return newHelper(v1.KindPod, a, unitRequest(v1.KindPod, a), opts)
}

// NewParsedPodHelper spawns a pod the caller already expanded. Every
// sub-process is marked for remote logging and its control address is
// registered before anything is sent, so entries without a control port get
// one picked here.
func NewParsedPodHelper(g args.ParsedPodArgs, opts ...Option) (*Helper, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	all := g.All()
	if len(all) == 0 {
		return nil, ErrEmptyGroup
	}

	// Any entry will do for the connection; head, tail, first pea in that order.
	seed := g.Head
	if seed == nil {
		seed = g.Tail
	}
	if seed == nil {
		seed = g.Peas[0]
	}
	for _, a := range all {
		if a.Host != seed.Host {
			return nil, fmt.Errorf("%w: %q and %q", ErrMixedHosts, seed.Host, a.Host)
		}
	}

	h, err := newHelper(v1.KindParsedPod, seed, func() (*v1.SpawnRequest, error) {
		return EncodeGroup(g), nil
	}, opts)
	if err != nil {
		return nil, err
	}
	for _, a := range all {
		a.LogRemote = true
		a.AssignCtrlPort()
		h.AddCtrlAddresses(args.CtrlAddress(a))
	}
	return h, nil
}

func unitRequest(kind v1.Kind, a *args.ProcessArgs) func() (*v1.SpawnRequest, error) {
	return func() (*v1.SpawnRequest, error) {
		a.LogRemote = true
		return EncodeUnit(kind, a)
	}
}
