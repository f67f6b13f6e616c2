package main

import (
	"fmt"

	v1 "github.com/SanjoDeundiak/remote-peapods/api/v1"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/args"
	"github.com/SanjoDeundiak/remote-peapods/pkg/lib/spawn"
)

// expand turns a request body into the peas to run here and the body echoed
// back as the first response. The echo carries the final namespaces, so the
// spawner learns the control port given to every pea.
func (s *SpawnServiceServer) expand(body v1.SpawnBody) (args.ParsedPodArgs, v1.SpawnBody, error) {
	var g args.ParsedPodArgs
	switch b := body.(type) {
	case *v1.SpawnBody_Pea:
		a, err := args.Parse(b.Pea.GetArgs())
		if err != nil {
			return g, nil, err
		}
		g.Peas = []*args.ProcessArgs{a}
	case *v1.SpawnBody_Pod:
		a, err := args.Parse(b.Pod.GetArgs())
		if err != nil {
			return g, nil, err
		}
		g = expandPod(a)
	case *v1.SpawnBody_ParsedPod:
		var err error
		if g, err = spawn.DecodeGroup(b.ParsedPod); err != nil {
			return g, nil, err
		}
	default:
		return g, nil, v1.ErrNoBody
	}
	if g.Empty() {
		return g, nil, spawn.ErrEmptyGroup
	}

	for _, a := range g.All() {
		if err := s.prepare(a); err != nil {
			return g, nil, err
		}
	}

	if _, ok := body.(*v1.SpawnBody_Pea); ok {
		return g, &v1.SpawnBody_Pea{Pea: spawn.EncodeSingle(g.Peas[0])}, nil
	}
	return g, spawn.EncodeGroup(g).Body, nil
}

// prepare binds a pea to this machine and gives it whatever identity and
// control port it is missing.
func (s *SpawnServiceServer) prepare(a *args.ProcessArgs) error {
	a.Host = args.DefaultHost
	if a.Identity == "" {
		a.Identity = lib.NewID()
	}
	if !a.CtrlWithIPC && a.PortCtrl == 0 {
		port, err := s.freePort()
		if err != nil {
			return fmt.Errorf("allocate control port for %s: %w", a.DisplayName(), err)
		}
		a.PortCtrl = port
	}
	return nil
}

// expandPod splits a pod into its peas. With more than one pea the pod also
// gets a head and a tail.
func expandPod(a *args.ProcessArgs) args.ParsedPodArgs {
	base := a.DisplayName()
	unit := func(name string, role args.Role) *args.ProcessArgs {
		c := a.Clone()
		c.Name = name
		c.Identity = ""
		c.Role = role
		c.Parallel = 1
		c.PortCtrl = 0
		return c
	}

	if a.Parallel <= 1 {
		p := unit(base, args.RolePea)
		p.PortCtrl = a.PortCtrl
		p.Identity = a.Identity
		return args.ParsedPodArgs{Peas: []*args.ProcessArgs{p}}
	}

	g := args.ParsedPodArgs{
		Head: unit(base+"-head", args.RoleHead),
		Tail: unit(base+"-tail", args.RoleTail),
	}
	for i := 0; i < a.Parallel; i++ {
		g.Peas = append(g.Peas, unit(fmt.Sprintf("%s-%d", base, i), args.RolePea))
	}
	return g
}
