package remote

import (
	"fmt"
	"time"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/pea"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

// ParsedPod is a pod expanded locally and started as a whole by one agent.
type ParsedPod struct {
	*pea.Runtime
	unit *unit
}

// NewParsedPod requires every entry of g to target the same remote host.
func NewParsedPod(g args.ParsedPodArgs, opts ...spawn.Option) (*ParsedPod, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	all := g.All()
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrConfig, spawn.ErrEmptyGroup)
	}
	for _, a := range all {
		if err := checkHost(a); err != nil {
			return nil, fmt.Errorf("%s: %w", a.DisplayName(), err)
		}
	}
	g = g.Clone()

	name := all[0].DisplayName()
	if g.Head != nil {
		name = g.Head.DisplayName()
	}
	p := &ParsedPod{}
	p.unit = &unit{
		name:      name,
		newHelper: func() (*spawn.Helper, error) { return spawn.NewParsedPodHelper(g, opts...) },
		onReady:   func(*spawn.Helper, *v1.SpawnResponse) { p.SetReady() },
	}
	p.Runtime = pea.NewRuntime(name, maxTimeoutReady(all), p.unit)
	return p, nil
}

func (p *ParsedPod) CtrlAddresses() []args.ControlAddress { return p.unit.ctrlAddresses() }

func (p *ParsedPod) TerminateResults() []spawn.TerminateResult { return p.unit.terminateResults() }

func maxTimeoutReady(all []*args.ProcessArgs) (d time.Duration) {
	for _, a := range all {
		if a.TimeoutReady > d {
			d = a.TimeoutReady
		}
	}
	return d
}
