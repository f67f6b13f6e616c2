package remote

import (
	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/pea"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

// Pod is a pod the remote agent expands into head, tail and peas.
type Pod struct {
	*pea.Runtime
	unit *unit
	host string
}

func NewPod(a *args.ProcessArgs, opts ...spawn.Option) (*Pod, error) {
	if err := checkHost(a); err != nil {
		return nil, err
	}
	a = a.Clone()
	p := &Pod{host: a.Host}
	p.unit = &unit{
		name:      a.DisplayName(),
		newHelper: func() (*spawn.Helper, error) { return spawn.NewPodHelper(a, opts...) },
		onReady:   p.setReady,
	}
	p.Runtime = pea.NewRuntime(a.DisplayName(), a.TimeoutReady, p.unit)
	return p, nil
}

// setReady learns the expanded pod from the first response. The agent reports
// its own view of the host, so every entry is pointed back at the host this
// pod was sent to before its control address is registered.
func (p *Pod) setReady(h *spawn.Helper, resp *v1.SpawnResponse) {
	g, err := spawn.DecodeBody(resp.GetBody())
	if err != nil {
		logger.Error().Err(err).Str("pod", p.Name()).Msg("agent did not report the expanded pod, sub-processes will not be terminated")
		p.SetReady()
		return
	}
	for _, a := range g.All() {
		a.Host = p.host
		h.AddCtrlAddresses(args.CtrlAddress(a))
	}
	p.SetReady()
}

func (p *Pod) CtrlAddresses() []args.ControlAddress { return p.unit.ctrlAddresses() }

func (p *Pod) TerminateResults() []spawn.TerminateResult { return p.unit.terminateResults() }
