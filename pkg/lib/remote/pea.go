package remote

import (
	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/pea"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

// Pea is a single pea started by a remote agent.
type Pea struct {
	*pea.Runtime
	unit *unit
}

func NewPea(a *args.ProcessArgs, opts ...spawn.Option) (*Pea, error) {
	if err := checkHost(a); err != nil {
		return nil, err
	}
	a = a.Clone()
	p := &Pea{}
	p.unit = &unit{
		name:      a.DisplayName(),
		newHelper: func() (*spawn.Helper, error) { return spawn.NewPeaHelper(a, opts...) },
		onReady:   func(*spawn.Helper, *v1.SpawnResponse) { p.SetReady() },
	}
	p.Runtime = pea.NewRuntime(a.DisplayName(), a.TimeoutReady, p.unit)
	return p, nil
}

// CtrlAddresses lists what Close will terminate.
func (p *Pea) CtrlAddresses() []args.ControlAddress { return p.unit.ctrlAddresses() }

func (p *Pea) TerminateResults() []spawn.TerminateResult { return p.unit.terminateResults() }
